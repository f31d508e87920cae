package integrator

import (
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// mockMaterial returns a fixed scatter result and counts calls
type mockMaterial struct {
	result  material.ScatterResult
	scatter bool
	calls   int
}

func (m *mockMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	m.calls++
	return m.result, m.scatter
}

func (m *mockMaterial) Validate() error { return nil }

func vecNear(a, b core.Vec3) bool {
	return a.Subtract(b).Length() < 1e-12
}

func TestGradientBackground(t *testing.T) {
	sky := NewSkyBackground()

	tests := []struct {
		name      string
		direction core.Vec3
		expected  core.Vec3
	}{
		{"Straight up", core.NewVec3(0, 1, 0), core.NewVec3(0.5, 0.7, 1.0)},
		{"Straight down", core.NewVec3(0, -5, 0), core.NewVec3(1, 1, 1)},
		{"Horizon", core.NewVec3(0, 0, -1), core.NewVec3(0.75, 0.85, 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sky.Color(core.NewRay(core.NewVec3(0, 0, 0), tt.direction))
			if !vecNear(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPathTracing_BackgroundOnlyMatchesGradient(t *testing.T) {
	pt := NewPathTracingIntegrator(50, nil)
	world := geometry.NewHittableList()
	sampler := core.NewSequenceSampler()

	dirSampler := core.NewSeededSampler(9)
	for i := 0; i < 200; i++ {
		dir := core.RandomUnitVector(dirSampler)
		ray := core.NewRay(core.NewVec3(1, 2, 3), dir)

		// Evaluate the gradient by hand: (1-t)*white + t*blue
		unit := dir.UnitVector()
		tt := 0.5 * (unit.Y + 1.0)
		expected := core.NewVec3(1, 1, 1).Multiply(1 - tt).Add(core.NewVec3(0.5, 0.7, 1.0).Multiply(tt))

		if got := pt.RayColor(ray, world, sampler); got != expected {
			t.Fatalf("Direction %v: expected %v, got %v", dir, expected, got)
		}
	}
	if sampler.Draws() != 0 {
		t.Errorf("Miss path should not draw random numbers, drew %d", sampler.Draws())
	}
}

func TestPathTracing_DepthTermination(t *testing.T) {
	mat := &mockMaterial{
		result: material.ScatterResult{
			Scattered:   core.NewRay(core.NewVec3(0, 0, -0.5), core.NewVec3(0, 1, 0)),
			Attenuation: core.NewVec3(0.5, 0.5, 0.5),
		},
		scatter: true,
	}
	world := geometry.NewHittableList(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, mat))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	sampler := core.NewSequenceSampler()

	tests := []struct {
		name     string
		depth    int
		expected core.Vec3
	}{
		{"Depth zero is black", 0, core.Vec3{}},
		{"Negative depth is black", -3, core.Vec3{}},
		// One bounce allowed: the scattered ray has no depth left
		{"Depth one gives black after scatter", 1, core.Vec3{}},
		// Scattered ray escapes straight up to the sky top color
		{"Depth two reaches the sky", 2, core.NewVec3(0.25, 0.35, 0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := NewPathTracingIntegrator(tt.depth, nil)
			got := pt.RayColor(ray, world, sampler)
			if !vecNear(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPathTracing_AbsorptionIsBlack(t *testing.T) {
	mat := &mockMaterial{scatter: false}
	world := geometry.NewHittableList(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, mat))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	got := NewPathTracingIntegrator(10, nil).RayColor(ray, world, core.NewSequenceSampler())
	if got != (core.Vec3{}) {
		t.Errorf("Expected black for absorbed ray, got %v", got)
	}
	if mat.calls != 1 {
		t.Errorf("Expected exactly one scatter call, got %d", mat.calls)
	}
}

func TestPathTracing_IgnoresHitsInsideEpsilon(t *testing.T) {
	mat := &mockMaterial{scatter: false}
	// Ray origin sits just outside the surface so the only root is within epsilon
	world := geometry.NewHittableList(geometry.NewSphere(core.NewVec3(0, 0, 0), 1, mat))
	ray := core.NewRay(core.NewVec3(0, 1.0005, 0), core.NewVec3(0, -1, 0))

	// The near root at t=0.0005 is rejected; the far root at t=2.0005 is taken
	NewPathTracingIntegrator(10, nil).RayColor(ray, world, core.NewSequenceSampler())
	if mat.calls != 1 {
		t.Fatalf("Expected the far surface to be hit once, got %d calls", mat.calls)
	}

	mat.calls = 0
	outward := core.NewRay(core.NewVec3(0, 1.0005, 0), core.NewVec3(0, 1, 0))
	NewPathTracingIntegrator(10, nil).RayColor(outward, world, core.NewSequenceSampler())
	if mat.calls != 0 {
		t.Errorf("Ray leaving the surface should not hit, got %d calls", mat.calls)
	}
}

func TestPathTracing_CustomBackground(t *testing.T) {
	bg := GradientBackground{Top: core.NewVec3(0, 0, 0), Bottom: core.NewVec3(0, 0, 0)}
	pt := NewPathTracingIntegrator(5, bg)
	got := pt.RayColor(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)), geometry.NewHittableList(), core.NewSequenceSampler())
	if got != (core.Vec3{}) {
		t.Errorf("Expected black background, got %v", got)
	}
}

func TestPathTracing_LambertianSceneIsFinite(t *testing.T) {
	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3))),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)),
	)
	pt := NewPathTracingIntegrator(50, nil)
	sampler := core.NewSeededSampler(1)

	for i := 0; i < 500; i++ {
		dir := core.NewVec3(sampler.Get1D()*2-1, sampler.Get1D()-0.5, -1)
		c := pt.RayColor(core.NewRay(core.NewVec3(0, 0, 0), dir), world, sampler)
		if !c.IsFinite() {
			t.Fatalf("Non-finite color %v for direction %v", c, dir)
		}
		if c.X < 0 || c.Y < 0 || c.Z < 0 || c.X > 1 || c.Y > 1 || c.Z > 1 {
			t.Fatalf("Color %v outside [0, 1]", c)
		}
	}
}

func TestPathTracing_HitsCountAgainstMaxDepth(t *testing.T) {
	// A sphere around the origin whose material scatters forever
	mat := &mockMaterial{
		result: material.ScatterResult{
			Scattered:   core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)),
			Attenuation: core.NewVec3(1, 1, 1),
		},
		scatter: true,
	}
	world := geometry.NewHittableList(geometry.NewSphere(core.NewVec3(0, 0, 0), 10, mat))

	got := NewPathTracingIntegrator(7, nil).RayColor(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0)), world, core.NewSequenceSampler())
	if got != (core.Vec3{}) {
		t.Errorf("Expected black when depth is exhausted, got %v", got)
	}
	if mat.calls != 7 {
		t.Errorf("Expected 7 scatter calls, got %d", mat.calls)
	}
}
