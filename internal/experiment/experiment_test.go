package experiment

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/radiance.report/internal/kernel"
	"github.com/banshee-data/radiance.report/internal/measure"
	"github.com/banshee-data/radiance.report/internal/spectral"
	"github.com/banshee-data/radiance.report/internal/timeutil"
)

func testExperiment(t *testing.T, measures ...measure.Measure) *Experiment {
	t.Helper()
	grid, err := spectral.NewGridRange(500, 600, 10)
	if err != nil {
		t.Fatal(err)
	}
	return &Experiment{
		Title:        "test run",
		Mode:         spectral.ModeMono,
		Grid:         grid,
		Surface:      &LambertianSurface{Name: "surface", Reflectance: spectral.UniformSpectrum(0.4)},
		Illumination: &DirectionalIllumination{Name: "illumination", Zenith: 30, Irradiance: spectral.UniformSpectrum(2.0)},
		Measures:     measures,
		Renderer:     kernel.NewLambertRenderer(""),
		Seed:         42,
	}
}

// The analytic Lambertian kernel records rho E / pi, so the derived BRF
// must recover the surface reflectance exactly.
func TestRunRecoversReflectance(t *testing.T) {
	m := &measure.MultiDistant{
		Name:       "toa",
		Samples:    32,
		Response:   spectral.NewDeltaSRF(505, 555),
		Directions: [][2]float64{{0, 0}, {45, 0}},
	}
	e := testExperiment(t, m)
	datasets, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	ds, ok := datasets["toa"]
	if !ok {
		t.Fatalf("no dataset for measure toa, got %v", len(datasets))
	}

	brf, ok := ds.Vars["brf"]
	if !ok {
		t.Fatal("dataset has no brf variable")
	}
	approx := cmpopts.EquateApprox(0, 1e-12)
	want := []float64{0.4, 0.4, 0.4, 0.4}
	if diff := cmp.Diff(want, brf.Values, approx); diff != "" {
		t.Errorf("brf mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{505, 555}, brf.Coords["w"].Values); diff != "" {
		t.Errorf("w coord mismatch (-want +got):\n%s", diff)
	}
	if ds.Attrs["run_id"] == "" {
		t.Error("dataset carries no run id")
	}
	if ds.Attrs["measure"] != "toa" {
		t.Errorf("measure attr = %q", ds.Attrs["measure"])
	}
}

func TestRunCKDAlbedo(t *testing.T) {
	quad, err := spectral.GaussLegendre(4)
	if err != nil {
		t.Fatal(err)
	}
	m := &measure.DistantFlux{
		Name:     "flux",
		Samples:  16,
		Response: spectral.NewUniformSRF(540, 560),
		FilmRes:  4,
	}
	e := testExperiment(t, m)
	e.Mode = spectral.ModeCKD
	e.Quad = quad

	datasets, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	ds := datasets["flux"]
	albedo, ok := ds.Vars["albedo"]
	if !ok {
		t.Fatal("dataset has no albedo variable")
	}
	approx := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff([]float64{0.4, 0.4, 0.4}, albedo.Values, approx); diff != "" {
		t.Errorf("albedo mismatch (-want +got):\n%s", diff)
	}
	albedoSRF, ok := ds.Vars["albedo_srf"]
	if !ok {
		t.Fatal("dataset has no band-integrated albedo")
	}
	if math.Abs(albedoSRF.Values[0]-0.4) > 1e-12 {
		t.Errorf("albedo_srf = %v, want 0.4", albedoSRF.Values[0])
	}
}

// Two measures with overlapping responses share one deduplicated context
// sequence.
func TestContextsDeduplicateAcrossMeasures(t *testing.T) {
	a := &measure.RadianceMeter{Name: "a", Samples: 1, Origin: [3]float64{0, 0, 100},
		Response: spectral.NewDeltaSRF(505, 515)}
	b := &measure.RadianceMeter{Name: "b", Samples: 1, Origin: [3]float64{0, 0, 100},
		Response: spectral.NewDeltaSRF(515, 525)}
	e := testExperiment(t, a, b)

	ctxs, err := e.contexts()
	if err != nil {
		t.Fatal(err)
	}
	var got []spectral.Index
	for _, c := range ctxs {
		got = append(got, c.SpectralIndex())
	}
	want := []spectral.Index{
		spectral.MonoIndex(505),
		spectral.MonoIndex(515),
		spectral.MonoIndex(525),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestPlacementInsideWithoutDeclaredMedium(t *testing.T) {
	m := &measure.RadianceMeter{
		Name:     "inside",
		Samples:  1,
		Origin:   [3]float64{0, 0, 5},
		Response: spectral.NewDeltaSRF(550),
	}
	e := testExperiment(t, m)
	e.Atmosphere = &HomogeneousAtmosphere{Name: "atmosphere", Top: 10}

	err := e.Init()
	var perr *PlacementError
	if !errors.As(err, &perr) {
		t.Fatalf("Init error = %v, want PlacementError", err)
	}
	if perr.Measure != "inside" {
		t.Errorf("PlacementError names %q", perr.Measure)
	}
}

func TestPlacementDeclaredButOutside(t *testing.T) {
	m := &measure.RadianceMeter{
		Name:     "outside",
		Samples:  1,
		Origin:   [3]float64{0, 0, 50},
		Response: spectral.NewDeltaSRF(550),
		InMedium: "atmosphere.medium",
	}
	e := testExperiment(t, m)
	e.Atmosphere = &HomogeneousAtmosphere{Name: "atmosphere", Top: 10}

	var perr *PlacementError
	if err := e.Init(); !errors.As(err, &perr) {
		t.Fatalf("Init error = %v, want PlacementError", err)
	}
}

func TestEmbeddedSensorGetsMediumKwarg(t *testing.T) {
	m := &measure.RadianceMeter{
		Name:     "inside",
		Samples:  1,
		Origin:   [3]float64{0, 0, 5},
		Response: spectral.NewDeltaSRF(550),
		InMedium: "atmosphere.medium",
	}
	e := testExperiment(t, m)
	e.Atmosphere = &HomogeneousAtmosphere{Name: "atmosphere", Top: 10,
		SigmaT: spectral.UniformSpectrum(0.1), Albedo: spectral.UniformSpectrum(0.9)}

	ctxs, err := e.contexts()
	if err != nil {
		t.Fatal(err)
	}
	medium, ok := ctxs[0].Kwarg("medium")
	if !ok || medium != "atmosphere.medium" {
		t.Errorf("medium kwarg = %v, %v", medium, ok)
	}
}

func TestDatasetHistoryUsesClock(t *testing.T) {
	m := &measure.RadianceMeter{Name: "m", Samples: 8,
		Origin: [3]float64{0, 0, 100}, Target: [3]float64{0, 0, 0},
		Response: spectral.NewDeltaSRF(550)}
	e := testExperiment(t, m)
	e.Clock = timeutil.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	datasets, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	history := datasets["m"].Attrs["history"]
	if !strings.HasPrefix(history, "2026-03-01T12:00:00Z") {
		t.Errorf("history = %q", history)
	}
}

func TestProcessBeforeInit(t *testing.T) {
	e := testExperiment(t, &measure.RadianceMeter{Name: "m", Samples: 1,
		Origin: [3]float64{0, 0, 100}, Response: spectral.NewDeltaSRF(550)})
	if err := e.Process(); err == nil {
		t.Error("Process before Init should fail")
	}
}
