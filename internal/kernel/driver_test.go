package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/radiance.report/internal/scene"
	"github.com/banshee-data/radiance.report/internal/spectral"
)

func testTemplate() map[string]any {
	return map[string]any{
		"surface": map[string]any{
			"type":        "lambertian",
			"reflectance": 0.5,
		},
		"illumination": map[string]any{
			"type":       "directional",
			"irradiance": 2.0,
		},
		"meas": map[string]any{
			"type": "radiancemeter",
			"spp":  16,
			"film": map[string]any{"width": 1, "height": 1},
		},
	}
}

func testParams(t *testing.T) *scene.ParameterMap {
	t.Helper()
	params := scene.NewParameterMap()
	err := params.SetParameter("surface.reflectance", scene.SpectralParameter(
		func(ctx *scene.Context) (any, error) {
			// Wavelength-dependent albedo so iterations are distinguishable.
			return ctx.SpectralIndex().W / 1000, nil
		}))
	if err != nil {
		t.Fatal(err)
	}
	return params
}

func testContexts(wavelengths ...float64) []*scene.Context {
	ctxs := make([]*scene.Context, len(wavelengths))
	for i, w := range wavelengths {
		ctxs[i] = scene.NewContext(spectral.MonoIndex(w))
	}
	return ctxs
}

func TestRenderLoopStoresResultsByKey(t *testing.T) {
	renderer := NewMockRenderer(3.5)
	scn, err := renderer.Load(testTemplate())
	if err != nil {
		t.Fatal(err)
	}

	results, err := RenderLoop(LoopConfig{
		Renderer:  renderer,
		Scene:     scn,
		Params:    testParams(t),
		SeedState: NewSeedState(1),
	}, testContexts(550, 560))
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d spectral keys, want 2", len(results))
	}
	for _, w := range []float64{550, 560} {
		per, ok := results[spectral.MonoIndex(w)]
		if !ok {
			t.Fatalf("missing results for %g nm", w)
		}
		res, ok := per["meas"]
		if !ok {
			t.Fatalf("missing sensor meas at %g nm", w)
		}
		if res.Image.Data[0] != 3.5 {
			t.Errorf("pixel = %v, want 3.5", res.Image.Data[0])
		}
		if res.SPP != 16 {
			t.Errorf("spp = %d, want sensor's configured 16", res.SPP)
		}
	}
}

func TestRenderLoopPushesSpectralParams(t *testing.T) {
	renderer := NewLambertRenderer("")
	scn, err := renderer.Load(testTemplate())
	if err != nil {
		t.Fatal(err)
	}

	results, err := RenderLoop(LoopConfig{
		Renderer:  renderer,
		Scene:     scn,
		Params:    testParams(t),
		SeedState: NewSeedState(1),
	}, testContexts(550))
	if err != nil {
		t.Fatal(err)
	}

	// The spectral parameter overrides the template's 0.5: rho = 0.55,
	// L = rho * E / pi.
	want := 0.55 * 2.0 / math.Pi
	got := results[spectral.MonoIndex(550)]["meas"].Image.Data[0]
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("radiance = %v, want %v", got, want)
	}
}

func TestRenderLoopSPPOverride(t *testing.T) {
	renderer := NewMockRenderer(1)
	scn, err := renderer.Load(testTemplate())
	if err != nil {
		t.Fatal(err)
	}

	results, err := RenderLoop(LoopConfig{
		Renderer:  renderer,
		Scene:     scn,
		Params:    testParams(t),
		SPP:       64,
		SeedState: NewSeedState(1),
	}, testContexts(550))
	if err != nil {
		t.Fatal(err)
	}
	if got := results[spectral.MonoIndex(550)]["meas"].SPP; got != 64 {
		t.Errorf("spp = %d, want override 64", got)
	}
	if got := renderer.Calls[0].SPP; got != 64 {
		t.Errorf("renderer received spp %d, want 64", got)
	}
}

func TestRenderLoopFreshSeedsPerSensor(t *testing.T) {
	renderer := NewMockRenderer(1)
	scn, err := renderer.Load(testTemplate())
	if err != nil {
		t.Fatal(err)
	}

	_, err = RenderLoop(LoopConfig{
		Renderer:  renderer,
		Scene:     scn,
		Params:    testParams(t),
		SeedState: NewSeedState(99),
	}, testContexts(550, 560, 570))
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[uint64]bool)
	for _, call := range renderer.Calls {
		if seen[call.Seed] {
			t.Fatalf("seed %d reused", call.Seed)
		}
		seen[call.Seed] = true
	}
	if len(renderer.Calls) != 3 {
		t.Fatalf("got %d render calls, want 3", len(renderer.Calls))
	}
}

func TestRenderLoopFailureRetainsEarlierResults(t *testing.T) {
	renderer := NewMockRenderer(1)
	renderer.FailAt = 1 // fail on the second context's render
	scn, err := renderer.Load(testTemplate())
	if err != nil {
		t.Fatal(err)
	}

	results, err := RenderLoop(LoopConfig{
		Renderer:  renderer,
		Scene:     scn,
		Params:    testParams(t),
		SeedState: NewSeedState(1),
	}, testContexts(550, 560, 570))
	if err == nil {
		t.Fatal("expected render failure")
	}

	// The first context's results are retained; the failing and later
	// contexts are absent.
	if _, ok := results[spectral.MonoIndex(550)]; !ok {
		t.Error("results for 550 nm should be retained")
	}
	if _, ok := results[spectral.MonoIndex(560)]; ok {
		t.Error("results for the failed context must not be stored")
	}
	if _, ok := results[spectral.MonoIndex(570)]; ok {
		t.Error("the loop must abort after a failure")
	}
}

func TestRenderLoopVariantMismatch(t *testing.T) {
	builder := NewMockRenderer(1)
	builder.VariantID = VariantScalarMono
	scn, err := builder.Load(testTemplate())
	if err != nil {
		t.Fatal(err)
	}

	runner := NewMockRenderer(1)
	runner.VariantID = VariantScalarMonoDouble

	_, err = RenderLoop(LoopConfig{
		Renderer:  runner,
		Scene:     scn,
		Params:    testParams(t),
		SeedState: NewSeedState(1),
	}, testContexts(550))

	var mismatch *VariantError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected VariantError, got %v", err)
	}
	if mismatch.SceneVariant != VariantScalarMono || mismatch.RendererVariant != VariantScalarMonoDouble {
		t.Errorf("unexpected variants in error: %+v", mismatch)
	}
}

func TestRenderLoopSensorSelection(t *testing.T) {
	template := testTemplate()
	template["meas2"] = map[string]any{
		"type": "radiancemeter",
		"spp":  8,
		"film": map[string]any{"width": 1, "height": 1},
	}

	renderer := NewMockRenderer(1)
	scn, err := renderer.Load(template)
	if err != nil {
		t.Fatal(err)
	}
	if len(scn.Sensors()) != 2 {
		t.Fatalf("got %d sensors, want 2", len(scn.Sensors()))
	}

	// Sensors load in key order: meas, meas2. Render only the second.
	results, err := RenderLoop(LoopConfig{
		Renderer:  renderer,
		Scene:     scn,
		Params:    testParams(t),
		Sensors:   []int{1},
		SeedState: NewSeedState(1),
	}, testContexts(550))
	if err != nil {
		t.Fatal(err)
	}

	per := results[spectral.MonoIndex(550)]
	if _, ok := per["meas2"]; !ok {
		t.Error("meas2 missing from results")
	}
	if _, ok := per["meas"]; ok {
		t.Error("meas should not have been rendered")
	}

	if _, err := RenderLoop(LoopConfig{
		Renderer:  renderer,
		Scene:     scn,
		Params:    testParams(t),
		Sensors:   []int{5},
		SeedState: NewSeedState(1),
	}, testContexts(550)); err == nil {
		t.Error("out-of-range sensor index should be rejected")
	}
}

func TestLambertRendererFluxSensor(t *testing.T) {
	template := testTemplate()
	template["flux"] = map[string]any{
		"type": "distantflux",
		"spp":  4,
		"film": map[string]any{"width": 4, "height": 2},
	}

	renderer := NewLambertRenderer("")
	scn, err := renderer.Load(template)
	if err != nil {
		t.Fatal(err)
	}

	// flux sorts before meas; sensor 0 is the flux film.
	img, err := renderer.Render(scn, 0, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 4 || img.Height != 2 {
		t.Fatalf("film dims = %dx%d", img.Width, img.Height)
	}

	// Sector values sum to the total radiosity rho * E.
	total := 0.0
	for _, v := range img.Data {
		total += v
	}
	want := 0.5 * 2.0
	if math.Abs(total-want) > 1e-12 {
		t.Errorf("summed radiosity = %v, want %v", total, want)
	}
}

func TestSceneClone(t *testing.T) {
	renderer := NewMockRenderer(1)
	scn, err := renderer.Load(testTemplate())
	if err != nil {
		t.Fatal(err)
	}

	clone := scn.Clone()
	clone.Update(map[string]any{"surface.reflectance": 0.9})

	v, _ := scn.Value("surface.reflectance")
	if v != 0.5 {
		t.Errorf("clone update leaked into original: %v", v)
	}
}
