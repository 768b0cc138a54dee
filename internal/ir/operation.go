package ir

// OperationKind names a composition layer mutation.
type OperationKind string

const (
	OpAdd              OperationKind = "add"
	OpRemove           OperationKind = "remove"
	OpConnect          OperationKind = "connect"
	OpDisconnect       OperationKind = "disconnect"
	OpDisconnectAll    OperationKind = "disconnect_all"
	OpDisconnectImport OperationKind = "disconnect_import"
)

// ValidOperationKinds defines the allowed operation kinds.
var ValidOperationKinds = map[OperationKind]bool{
	OpAdd:              true,
	OpRemove:           true,
	OpConnect:          true,
	OpDisconnect:       true,
	OpDisconnectAll:    true,
	OpDisconnectImport: true,
}

// Operation is one journaled mutation. Which fields are set depends on Kind:
//
//	add                Group, Definition
//	remove             Group
//	connect            Connection
//	disconnect         Importer, Exporter
//	disconnect_all     Group
//	disconnect_import  Importer, Contract
type Operation struct {
	Seq        int64              `json:"seq"`
	Kind       OperationKind      `json:"kind"`
	Group      GroupCompositionID `json:"group,omitzero"`
	Importer   GroupCompositionID `json:"importer,omitzero"`
	Exporter   GroupCompositionID `json:"exporter,omitzero"`
	Contract   string             `json:"contract,omitempty"`
	Definition *GroupDefinition   `json:"definition,omitempty"`
	Connection *GroupConnection   `json:"connection,omitempty"`
}
