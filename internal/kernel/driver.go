package kernel

import (
	"fmt"

	"github.com/banshee-data/radiance.report/internal/scene"
	"github.com/banshee-data/radiance.report/internal/spectral"
)

// SensorResult is the raw output of one render call: the film tensor and
// the effective sample count used to produce it.
type SensorResult struct {
	Image *Image
	SPP   int
}

// Results holds raw spectral-loop outputs keyed by (spectral index, sensor
// id). Downstream consumers must rely on key identity only, never on
// insertion order.
type Results map[spectral.Index]map[string]SensorResult

// VariantError reports a scene handle built under one kernel variant being
// asked to render under another.
type VariantError struct {
	SceneVariant    string
	RendererVariant string
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("kernel variant mismatch: scene built under %q, renderer runs %q",
		e.SceneVariant, e.RendererVariant)
}

// LoopConfig holds the inputs of the spectral render loop.
type LoopConfig struct {
	Renderer Renderer
	Scene    *Scene
	Params   *scene.ParameterMap

	// Flags selects which parameter update classes are re-evaluated per
	// context. Zero means FlagSpectral: init and geometric values are
	// assumed already applied at scene build time.
	Flags scene.UpdateFlags

	// Sensors lists the sensor indices to render. Nil renders all.
	Sensors []int

	// SPP overrides each sensor's configured sample count when positive.
	SPP int

	// SeedState provides per-render seeds. Required.
	SeedState *SeedState
}

// RenderLoop runs the spectral loop: for each context in order, it renders
// the update-class parameters against that context, pushes the concrete
// values into the live scene state, then renders each requested sensor with
// a fresh seed and stores the film under (spectral index, sensor id).
//
// The loop is strictly sequential: the live scene state is exclusively
// owned by the driver for the loop's duration and no iteration starts
// before the previous render call has returned. A render failure aborts
// the remaining loop; results collected for earlier contexts are returned
// alongside the error, but the caller must treat the run as incomplete.
func RenderLoop(cfg LoopConfig, ctxs []*scene.Context) (Results, error) {
	if cfg.Renderer == nil || cfg.Scene == nil || cfg.Params == nil {
		return nil, fmt.Errorf("kernel: renderer, scene and params are all required")
	}
	if cfg.SeedState == nil {
		return nil, fmt.Errorf("kernel: seed state is required")
	}
	if cfg.Scene.Variant() != cfg.Renderer.Variant() {
		return nil, &VariantError{
			SceneVariant:    cfg.Scene.Variant(),
			RendererVariant: cfg.Renderer.Variant(),
		}
	}

	flags := cfg.Flags
	if flags == 0 {
		flags = scene.FlagSpectral
	}

	sensors := cfg.Scene.Sensors()
	indices := cfg.Sensors
	if indices == nil {
		indices = make([]int, len(sensors))
		for i := range sensors {
			indices[i] = i
		}
	}
	for _, i := range indices {
		if i < 0 || i >= len(sensors) {
			return nil, fmt.Errorf("kernel: sensor index %d out of range (scene has %d sensors)", i, len(sensors))
		}
	}

	results := make(Results, len(ctxs))

	for _, ctx := range ctxs {
		si := ctx.SpectralIndex()
		Tracef("[Loop] Rendering context %s (%d sensors)", si, len(indices))

		values, err := cfg.Params.Render(ctx, flags, true)
		if err != nil {
			return results, fmt.Errorf("rendering parameters for %s: %w", si, err)
		}
		cfg.Scene.Update(values)

		perSensor := make(map[string]SensorResult, len(indices))
		for _, i := range indices {
			sensor := sensors[i]
			spp := cfg.SPP
			if spp <= 0 {
				spp = sensor.SPP
			}

			seed := cfg.SeedState.Next()
			img, err := cfg.Renderer.Render(cfg.Scene, i, seed, spp)
			if err != nil {
				Opsf("[Loop] Render failed for %s sensor %s: %v", si, sensor.ID, err)
				return results, fmt.Errorf("rendering %s sensor %q: %w", si, sensor.ID, err)
			}
			perSensor[sensor.ID] = SensorResult{Image: img, SPP: spp}
		}
		results[si] = perSensor
	}

	Diagf("[Loop] Completed %d contexts", len(ctxs))
	return results, nil
}
