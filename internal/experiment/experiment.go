package experiment

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/radiance.report/internal/kernel"
	"github.com/banshee-data/radiance.report/internal/measure"
	"github.com/banshee-data/radiance.report/internal/pipeline"
	"github.com/banshee-data/radiance.report/internal/scene"
	"github.com/banshee-data/radiance.report/internal/spectral"
	"github.com/banshee-data/radiance.report/internal/timeutil"
)

// PlacementError reports a sensor whose declared medium embedding does not
// match its position relative to the atmosphere slab.
type PlacementError struct {
	Measure string
	Reason  string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("measure %q: inconsistent sensor placement: %s", e.Measure, e.Reason)
}

// Experiment assembles a scene, runs the spectral loop over it and
// post-processes the raw films into one dataset per measure.
type Experiment struct {
	Title string

	Mode spectral.Mode
	Grid *spectral.Grid
	Quad *spectral.Quad // CKD only

	Surface      *LambertianSurface
	Illumination *DirectionalIllumination
	Atmosphere   *HomogeneousAtmosphere // optional
	Measures     []measure.Measure

	Renderer kernel.Renderer
	Seed     uint64

	// Clock stamps run metadata. Nil means the wall clock.
	Clock timeutil.Clock

	template *scene.Template
	params   *scene.ParameterMap
	kscene   *kernel.Scene
	results  kernel.Results
	runID    string
}

// RunID returns the run identifier assigned at Init, or "".
func (e *Experiment) RunID() string { return e.runID }

// Init composes the scene template and parameter map, validates sensor
// placement and loads the kernel scene. It must run before Process.
func (e *Experiment) Init() error {
	if e.Renderer == nil {
		return fmt.Errorf("experiment: renderer is required")
	}
	if e.Surface == nil || e.Illumination == nil {
		return fmt.Errorf("experiment: surface and illumination are required")
	}
	if len(e.Measures) == 0 {
		return fmt.Errorf("experiment: at least one measure is required")
	}
	if e.Grid == nil {
		return fmt.Errorf("experiment: spectral grid is required")
	}
	if e.Mode == spectral.ModeCKD && e.Quad == nil {
		return fmt.Errorf("experiment: CKD mode needs a quadrature rule")
	}
	if err := e.checkPlacement(); err != nil {
		return err
	}

	elements := []scene.Element{e.Surface, e.Illumination}
	if e.Atmosphere != nil {
		elements = append(elements, e.Atmosphere)
	}
	for _, m := range e.Measures {
		elements = append(elements, m)
	}
	tmpl, params, err := scene.Traverse(elements...)
	if err != nil {
		return fmt.Errorf("experiment: composing scene: %w", err)
	}
	e.template = tmpl
	e.params = params

	ctxs, err := e.contexts()
	if err != nil {
		return err
	}
	nested, err := tmpl.RenderNested(ctxs[0], scene.FlagAll, false)
	if err != nil {
		return fmt.Errorf("experiment: rendering initial template: %w", err)
	}
	scn, err := e.Renderer.Load(nested)
	if err != nil {
		return fmt.Errorf("experiment: loading kernel scene: %w", err)
	}
	e.kscene = scn
	e.runID = uuid.NewString()
	return nil
}

// checkPlacement verifies each measure's declared medium embedding against
// the atmosphere geometry.
func (e *Experiment) checkPlacement() error {
	for _, m := range e.Measures {
		declared := m.Medium()
		rm, embedded := m.(*measure.RadianceMeter)
		inside := embedded && e.Atmosphere != nil && e.Atmosphere.Contains(rm.Origin)

		switch {
		case declared != "" && e.Atmosphere == nil:
			return &PlacementError{Measure: m.ID(), Reason: "declares a medium but the scene has no atmosphere"}
		case declared != "" && e.Atmosphere != nil && declared != e.Atmosphere.MediumID():
			return &PlacementError{Measure: m.ID(),
				Reason: fmt.Sprintf("declares medium %q but the atmosphere provides %q", declared, e.Atmosphere.MediumID())}
		case declared != "" && !inside:
			return &PlacementError{Measure: m.ID(), Reason: "declares a medium but its origin is outside the atmosphere slab"}
		case declared == "" && inside:
			return &PlacementError{Measure: m.ID(), Reason: "origin sits inside the atmosphere slab but no medium is declared"}
		}
	}
	return nil
}

// contexts returns the deduplicated spectral context sequence covering
// every measure, each context carrying the medium kwarg shared by all
// measures that need it.
func (e *Experiment) contexts() ([]*scene.Context, error) {
	var indexes []spectral.Index
	for _, m := range e.Measures {
		mi, err := measure.SpectralIndexes(m, e.Mode, e.Grid, e.Quad)
		if err != nil {
			return nil, fmt.Errorf("experiment: %w", err)
		}
		indexes = append(indexes, mi...)
	}
	indexes = spectral.SortDedup(indexes)

	var kwargs map[string]any
	for _, m := range e.Measures {
		if medium := m.Medium(); medium != "" {
			kwargs = map[string]any{"medium": medium}
			break
		}
	}

	ctxs := make([]*scene.Context, len(indexes))
	for i, si := range indexes {
		if kwargs != nil {
			ctxs[i] = scene.NewContextWith(si, kwargs)
		} else {
			ctxs[i] = scene.NewContext(si)
		}
	}
	return ctxs, nil
}

// Process runs the spectral loop for every measure. Raw films accumulate
// on the experiment for Postprocess.
func (e *Experiment) Process() error {
	if e.kscene == nil {
		return fmt.Errorf("experiment: Process before Init")
	}
	ctxs, err := e.contexts()
	if err != nil {
		return err
	}

	kernel.Opsf("[Experiment] %s: rendering %d spectral contexts over %d measures",
		e.Title, len(ctxs), len(e.Measures))

	results, err := kernel.RenderLoop(kernel.LoopConfig{
		Renderer:  e.Renderer,
		Scene:     e.kscene,
		Params:    e.params,
		SeedState: kernel.NewSeedState(e.Seed),
	}, ctxs)
	e.results = results
	if err != nil {
		return fmt.Errorf("experiment: spectral loop: %w", err)
	}
	return nil
}

// Postprocess assembles and runs the per-measure pipelines over the raw
// results and returns one dataset per measure id.
func (e *Experiment) Postprocess() (map[string]*pipeline.Dataset, error) {
	if e.results == nil {
		return nil, fmt.Errorf("experiment: Postprocess before Process")
	}

	out := make(map[string]*pipeline.Dataset, len(e.Measures))
	for _, m := range e.Measures {
		spec := m.PipelineSpec()
		spec.Mode = e.Mode
		spec.Grid = measure.Selected(m, e.Grid)
		spec.Quad = e.Quad
		spec.Irradiance = e.Illumination.EvalIrradiance

		p, err := pipeline.Assemble(spec)
		if err != nil {
			return nil, fmt.Errorf("experiment: measure %q: %w", m.ID(), err)
		}
		ds, err := p.Run(pipeline.Store{pipeline.RawResultsVar: e.measureResults(m)})
		if err != nil {
			return nil, fmt.Errorf("experiment: measure %q: %w", m.ID(), err)
		}
		e.annotate(ds, m)
		out[m.ID()] = ds
	}
	return out, nil
}

// measureResults restricts the raw result map to the contexts and sensor
// of one measure.
func (e *Experiment) measureResults(m measure.Measure) kernel.Results {
	indexes, err := measure.SpectralIndexes(m, e.Mode, e.Grid, e.Quad)
	if err != nil {
		return kernel.Results{}
	}
	subset := make(kernel.Results, len(indexes))
	for _, si := range indexes {
		if sensors, ok := e.results[si]; ok {
			if res, ok := sensors[m.ID()]; ok {
				subset[si] = map[string]kernel.SensorResult{m.ID(): res}
			}
		}
	}
	return subset
}

func (e *Experiment) annotate(ds *pipeline.Dataset, m measure.Measure) {
	clock := e.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ds.Attrs["title"] = e.Title
	ds.Attrs["measure"] = m.ID()
	ds.Attrs["mode"] = e.Mode.String()
	ds.Attrs["run_id"] = e.runID
	ds.Attrs["history"] = fmt.Sprintf("%s - processed by radiance.report",
		clock.Now().UTC().Format(time.RFC3339))
}

// Run executes Init, Process and Postprocess in sequence.
func (e *Experiment) Run() (map[string]*pipeline.Dataset, error) {
	if err := e.Init(); err != nil {
		return nil, err
	}
	if err := e.Process(); err != nil {
		return nil, err
	}
	return e.Postprocess()
}

// MeasureIDs returns the measure identifiers in sorted order.
func (e *Experiment) MeasureIDs() []string {
	ids := make([]string, len(e.Measures))
	for i, m := range e.Measures {
		ids[i] = m.ID()
	}
	sort.Strings(ids)
	return ids
}
