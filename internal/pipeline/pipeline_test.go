package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func passthrough(name string, inputs, outputs []string) Stage {
	return Stage{
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
		Apply: func(in Store) (Store, error) {
			out := Store{}
			for _, o := range outputs {
				out[o] = in[inputs[0]]
			}
			return out, nil
		},
	}
}

func TestPipelineOrderFollowsDependencies(t *testing.T) {
	// c depends on b depends on a; declaration order is scrambled.
	stages := []Stage{
		passthrough("c", []string{"vb"}, []string{"vc"}),
		passthrough("a", []string{"seed"}, []string{"va"}),
		passthrough("b", []string{"va"}, []string{"vb"}),
	}
	p, err := New(stages, []string{"vc"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, p.Stages()); diff != "" {
		t.Errorf("execution order mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineRejectsCycle(t *testing.T) {
	stages := []Stage{
		passthrough("a", []string{"vb"}, []string{"va"}),
		passthrough("b", []string{"va"}, []string{"vb"}),
	}
	if _, err := New(stages, nil); err == nil {
		t.Error("cyclic pipeline should fail to build")
	}
}

func TestPipelineRejectsDuplicateProducer(t *testing.T) {
	stages := []Stage{
		passthrough("a", []string{"seed"}, []string{"v"}),
		passthrough("b", []string{"seed"}, []string{"v"}),
	}
	_, err := New(stages, nil)
	if err == nil {
		t.Fatal("two producers of one variable should fail to build")
	}
	if !strings.Contains(err.Error(), `"v"`) {
		t.Errorf("error %q does not name the contested variable", err)
	}
}

func TestPipelineRunMissingInput(t *testing.T) {
	p, err := New([]Stage{passthrough("a", []string{"absent"}, []string{"v"})}, []string{"v"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(Store{}); err == nil {
		t.Error("run with an unsatisfied input should fail")
	}
}

func TestPipelineStageSeesOnlyDeclaredInputs(t *testing.T) {
	probe := Stage{
		Name:   "probe",
		Inputs: []string{"a"},
		Outputs: []string{
			"out",
		},
		Apply: func(in Store) (Store, error) {
			if _, leaked := in["hidden"]; leaked {
				t.Error("stage received a variable it never declared")
			}
			arr := in["a"].(*DataArray)
			return Store{"out": arr.Copy("out")}, nil
		},
	}
	arr, err := NewDataArray("a", []string{"x"}, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	p, err := New([]Stage{probe}, []string{"out"})
	if err != nil {
		t.Fatal(err)
	}
	ds, err := p.Run(Store{"a": arr, "hidden": arr})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ds.Vars["out"]; !ok {
		t.Error("final variable missing from dataset")
	}
}

func TestPipelineRejectsUndeclaredOutput(t *testing.T) {
	bad := Stage{
		Name:    "bad",
		Outputs: []string{"promised"},
		Apply: func(in Store) (Store, error) {
			return Store{"other": 1}, nil
		},
	}
	p, err := New([]Stage{bad}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(Store{}); err == nil {
		t.Error("stage omitting a declared output should fail the run")
	}
}
