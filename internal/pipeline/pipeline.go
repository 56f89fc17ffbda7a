package pipeline

import (
	"fmt"
	"sort"
)

// Store is the named-variable space a pipeline executes over. Values are
// usually *DataArray but stages may exchange any type.
type Store map[string]any

// Stage is one processing step. Inputs and Outputs declare the store
// variables it reads and writes; Apply only ever sees the declared inputs
// and must return exactly the declared outputs.
type Stage struct {
	Name    string
	Inputs  []string
	Outputs []string
	Apply   func(in Store) (Store, error)
}

// Pipeline is a set of stages ordered by their data dependencies. The
// execution order is fixed at construction time.
type Pipeline struct {
	stages []Stage
	order  []int
	finals []string
}

// New builds a pipeline from stages and the names of the variables the
// final dataset exports. Stage order in the argument list is irrelevant;
// dependencies are resolved by matching output names to input names.
// Duplicate producers and dependency cycles are construction errors.
func New(stages []Stage, finals []string) (*Pipeline, error) {
	producer := make(map[string]int)
	for i, s := range stages {
		for _, out := range s.Outputs {
			if j, ok := producer[out]; ok {
				return nil, fmt.Errorf("pipeline: %q produced by both %q and %q",
					out, stages[j].Name, s.Name)
			}
			producer[out] = i
		}
	}

	// Kahn's algorithm, ties broken by stage name for a stable order.
	deps := make([][]int, len(stages))
	indeg := make([]int, len(stages))
	for i, s := range stages {
		seen := map[int]bool{}
		for _, in := range s.Inputs {
			if j, ok := producer[in]; ok && j != i && !seen[j] {
				seen[j] = true
				deps[j] = append(deps[j], i)
				indeg[i]++
			}
		}
	}
	var ready []int
	for i := range stages {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	var order []int
	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool { return stages[ready[a]].Name < stages[ready[b]].Name })
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)
		for _, j := range deps[i] {
			indeg[j]--
			if indeg[j] == 0 {
				ready = append(ready, j)
			}
		}
	}
	if len(order) != len(stages) {
		return nil, fmt.Errorf("pipeline: dependency cycle among stages")
	}

	return &Pipeline{stages: stages, order: order, finals: finals}, nil
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.order))
	for k, i := range p.order {
		names[k] = p.stages[i].Name
	}
	return names
}

// Run executes the pipeline over an initial variable store. Initial
// variables satisfy any input no stage produces. The returned dataset
// holds the final variables; non-array finals are ignored.
func (p *Pipeline) Run(initial Store) (*Dataset, error) {
	store := make(Store, len(initial))
	for k, v := range initial {
		store[k] = v
	}

	for _, i := range p.order {
		s := p.stages[i]
		in := make(Store, len(s.Inputs))
		for _, name := range s.Inputs {
			v, ok := store[name]
			if !ok {
				return nil, fmt.Errorf("pipeline: stage %q misses input %q", s.Name, name)
			}
			in[name] = v
		}
		out, err := s.Apply(in)
		if err != nil {
			return nil, fmt.Errorf("pipeline: stage %q: %w", s.Name, err)
		}
		for _, name := range s.Outputs {
			v, ok := out[name]
			if !ok {
				return nil, fmt.Errorf("pipeline: stage %q did not produce declared output %q", s.Name, name)
			}
			store[name] = v
		}
	}

	ds := NewDataset()
	for _, name := range p.finals {
		v, ok := store[name]
		if !ok {
			return nil, fmt.Errorf("pipeline: final variable %q never produced", name)
		}
		if arr, ok := v.(*DataArray); ok {
			ds.Vars[name] = arr
		}
	}
	return ds, nil
}

// Dataset is the pipeline's end product: a bundle of named data arrays
// plus dataset-level attributes.
type Dataset struct {
	Vars  map[string]*DataArray
	Attrs map[string]string
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{Vars: map[string]*DataArray{}, Attrs: map[string]string{}}
}

// VarNames returns the dataset variable names in sorted order.
func (d *Dataset) VarNames() []string {
	names := make([]string, 0, len(d.Vars))
	for k := range d.Vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
