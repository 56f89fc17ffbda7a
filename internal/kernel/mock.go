package kernel

import "fmt"

// MockRenderer implements Renderer for testing. It returns a constant image
// for every render call and records each call so tests can assert on
// sequencing and seed usage.
type MockRenderer struct {
	// VariantID is the variant the mock reports. Defaults to
	// scalar_mono_double when empty.
	VariantID string

	// Value is the constant pixel value returned by Render.
	Value float64

	// FailAt, when non-negative, makes the FailAt-th Render call (counted
	// from zero) return an error. Use -1 to never fail.
	FailAt int

	// Calls records every Render invocation in order.
	Calls []MockRenderCall
}

// MockRenderCall captures the arguments of one Render call.
type MockRenderCall struct {
	Sensor int
	Seed   uint64
	SPP    int
}

// NewMockRenderer returns a MockRenderer producing the given constant value.
func NewMockRenderer(value float64) *MockRenderer {
	return &MockRenderer{Value: value, FailAt: -1}
}

func (m *MockRenderer) Variant() string {
	if m.VariantID == "" {
		return VariantScalarMonoDouble
	}
	return m.VariantID
}

func (m *MockRenderer) Load(template map[string]any) (*Scene, error) {
	return loadScene(template, m.Variant())
}

func (m *MockRenderer) Render(scn *Scene, sensor int, seed uint64, spp int) (*Image, error) {
	if scn.Variant() != m.Variant() {
		return nil, &VariantError{SceneVariant: scn.Variant(), RendererVariant: m.Variant()}
	}
	if m.FailAt >= 0 && len(m.Calls) == m.FailAt {
		m.Calls = append(m.Calls, MockRenderCall{Sensor: sensor, Seed: seed, SPP: spp})
		return nil, fmt.Errorf("mock render failure at call %d", m.FailAt)
	}
	m.Calls = append(m.Calls, MockRenderCall{Sensor: sensor, Seed: seed, SPP: spp})

	if sensor < 0 || sensor >= len(scn.sensors) {
		return nil, fmt.Errorf("mock: sensor index %d out of range", sensor)
	}
	s := scn.sensors[sensor]
	return NewUniformImage(s.Width, s.Height, m.Value), nil
}
