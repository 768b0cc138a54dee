package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/groupwire/internal/ir"
)

// Catalog is a compiled set of group definitions plus the topology that
// instantiates them.
type Catalog struct {
	Groups    map[string]*ir.GroupDefinition
	Topology  *Topology
	Value     cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// GroupNames returns the catalog's group names in sorted order.
func (c *Catalog) GroupNames() []string {
	names := make([]string, 0, len(c.Groups))
	for name := range c.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrNoCUEFiles is returned when a catalog directory holds no .cue files.
var ErrNoCUEFiles = errors.New("no CUE files found")

// LoadCatalog loads every .cue file in dir as one CUE instance and compiles
// it. Compile errors are collected; load and build errors are returned alone.
func LoadCatalog(dir string) (*Catalog, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("catalog directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scanning %s: %w", dir, err)}
	}
	if len(files) == 0 {
		return nil, []error{fmt.Errorf("%w in %s", ErrNoCUEFiles, dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", dir)}
	}
	if err := instances[0].Err; err != nil {
		return nil, []error{formatCUEError(err)}
	}

	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	cat, errs := CompileCatalog(value)
	cat.FileCount = len(files)
	return cat, errs
}

// CompileCatalog compiles the group and topology sections of a CUE value.
// All group errors are collected; the topology is compiled only when every
// group compiled.
func CompileCatalog(v cue.Value) (*Catalog, []error) {
	cat := &Catalog{
		Groups:   make(map[string]*ir.GroupDefinition),
		Topology: &Topology{Instances: []Instance{}, Connections: []ConnectRequest{}},
		Value:    v,
	}
	var errs []error

	if gv := v.LookupPath(cue.ParsePath("group")); gv.Exists() {
		iter, err := gv.Fields()
		if err != nil {
			return cat, []error{formatCUEError(err)}
		}
		for iter.Next() {
			def, err := CompileGroup(iter.Value())
			if err != nil {
				errs = append(errs, prefixError(err, "group."+iter.Label()))
				continue
			}
			cat.Groups[def.Name] = def
		}
	}
	if len(cat.Groups) == 0 && len(errs) == 0 {
		errs = append(errs, &CompileError{Field: "group", Message: "no groups found in catalog", Pos: v.Pos()})
	}
	if len(errs) > 0 {
		return cat, errs
	}

	topo, err := CompileTopology(v, cat.Groups)
	if err != nil {
		return cat, []error{err}
	}
	cat.Topology = topo
	return cat, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// prefixError qualifies a compile error's field with the group it came from.
func prefixError(err error, prefix string) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &CompileError{Field: prefix + "." + ce.Field, Message: ce.Message, Pos: ce.Pos}
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
