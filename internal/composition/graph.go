package composition

import (
	"cmp"
	"maps"
	"slices"

	"github.com/roach88/groupwire/internal/ir"
)

// edgeKey identifies the single edge that may satisfy one import contract of
// one importing group.
type edgeKey struct {
	importer ir.GroupCompositionID
	contract string
}

func (k edgeKey) compare(other edgeKey) int {
	if c := k.importer.Compare(other.importer); c != 0 {
		return c
	}
	return cmp.Compare(k.contract, other.contract)
}

// connectionGraph is the live edge set with adjacency indexes in both
// directions. Every edge appears in edges, in byImporter under its importer,
// and in byExporter under its exporter; nothing else.
type connectionGraph struct {
	edges      map[edgeKey]ir.GroupConnection
	byImporter map[ir.GroupCompositionID]map[edgeKey]struct{}
	byExporter map[ir.GroupCompositionID]map[edgeKey]struct{}
}

func newConnectionGraph() *connectionGraph {
	return &connectionGraph{
		edges:      make(map[edgeKey]ir.GroupConnection),
		byImporter: make(map[ir.GroupCompositionID]map[edgeKey]struct{}),
		byExporter: make(map[ir.GroupCompositionID]map[edgeKey]struct{}),
	}
}

func keyOf(conn ir.GroupConnection) edgeKey {
	return edgeKey{importer: conn.Importer, contract: conn.Import.Contract}
}

func (g *connectionGraph) get(importer ir.GroupCompositionID, contract string) (ir.GroupConnection, bool) {
	conn, ok := g.edges[edgeKey{importer: importer, contract: contract}]
	return conn, ok
}

func (g *connectionGraph) insert(conn ir.GroupConnection) {
	key := keyOf(conn)
	g.edges[key] = conn
	index(g.byImporter, conn.Importer, key)
	index(g.byExporter, conn.Exporter, key)
}

func (g *connectionGraph) remove(key edgeKey) (ir.GroupConnection, bool) {
	conn, ok := g.edges[key]
	if !ok {
		return ir.GroupConnection{}, false
	}
	delete(g.edges, key)
	unindex(g.byImporter, conn.Importer, key)
	unindex(g.byExporter, conn.Exporter, key)
	return conn, true
}

// removeAll removes the given edges and returns them in key order.
func (g *connectionGraph) removeAll(keys []edgeKey) []ir.GroupConnection {
	slices.SortFunc(keys, edgeKey.compare)
	removed := make([]ir.GroupConnection, 0, len(keys))
	for _, k := range keys {
		if conn, ok := g.remove(k); ok {
			removed = append(removed, conn)
		}
	}
	return removed
}

// between returns the keys of every edge from importer to exporter.
func (g *connectionGraph) between(importer, exporter ir.GroupCompositionID) []edgeKey {
	var keys []edgeKey
	for k := range g.byImporter[importer] {
		if g.edges[k].Exporter == exporter {
			keys = append(keys, k)
		}
	}
	return keys
}

// touching returns the keys of every edge with id in either role.
func (g *connectionGraph) touching(id ir.GroupCompositionID) []edgeKey {
	set := make(map[edgeKey]struct{}, len(g.byImporter[id])+len(g.byExporter[id]))
	maps.Copy(set, g.byImporter[id])
	maps.Copy(set, g.byExporter[id])
	return slices.Collect(maps.Keys(set))
}

// dependents returns the importers currently fed by exporter, sorted.
func (g *connectionGraph) dependents(exporter ir.GroupCompositionID) []ir.GroupCompositionID {
	seen := make(map[ir.GroupCompositionID]bool)
	out := []ir.GroupCompositionID{}
	for k := range g.byExporter[exporter] {
		if !seen[k.importer] {
			seen[k.importer] = true
			out = append(out, k.importer)
		}
	}
	slices.SortFunc(out, ir.GroupCompositionID.Compare)
	return out
}

// all returns every edge in key order.
func (g *connectionGraph) all() []ir.GroupConnection {
	keys := slices.SortedFunc(maps.Keys(g.edges), edgeKey.compare)
	out := make([]ir.GroupConnection, len(keys))
	for i, k := range keys {
		out[i] = g.edges[k]
	}
	return out
}

func (g *connectionGraph) len() int {
	return len(g.edges)
}

func index(idx map[ir.GroupCompositionID]map[edgeKey]struct{}, id ir.GroupCompositionID, key edgeKey) {
	set, ok := idx[id]
	if !ok {
		set = make(map[edgeKey]struct{})
		idx[id] = set
	}
	set[key] = struct{}{}
}

func unindex(idx map[ir.GroupCompositionID]map[edgeKey]struct{}, id ir.GroupCompositionID, key edgeKey) {
	set := idx[id]
	delete(set, key)
	if len(set) == 0 {
		delete(idx, id)
	}
}
