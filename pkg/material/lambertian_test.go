package material

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

const tolerance = 1e-9

func vecNear(a, b core.Vec3) bool {
	return a.Subtract(b).Length() < tolerance
}

func TestLambertian_Scatter(t *testing.T) {
	albedo := core.NewVec3(0.7, 0.3, 0.3)
	lambertian := NewLambertian(albedo)

	hit := HitRecord{
		Point:     core.NewVec3(1, 2, 3),
		Normal:    core.NewVec3(0, 1, 0),
		T:         1.0,
		FrontFace: true,
		Material:  lambertian,
	}
	rayIn := core.NewRay(core.NewVec3(1, 5, 3), core.NewVec3(0, -1, 0))

	// (0.5, 0.75, 0.5) maps to (0, 0.5, 0), normalized to (0, 1, 0)
	sampler := core.NewSequenceSampler(0.5, 0.75, 0.5)
	result, scattered := lambertian.Scatter(rayIn, hit, sampler)

	if !scattered {
		t.Fatal("Lambertian should always scatter")
	}
	if result.Attenuation != albedo {
		t.Errorf("Expected attenuation %v, got %v", albedo, result.Attenuation)
	}
	if result.Scattered.Origin != hit.Point {
		t.Errorf("Scattered ray should start at hit point %v, got %v", hit.Point, result.Scattered.Origin)
	}
	if !vecNear(result.Scattered.Direction, core.NewVec3(0, 2, 0)) {
		t.Errorf("Expected direction (0, 2, 0), got %v", result.Scattered.Direction)
	}
}

func TestLambertian_DegenerateDirectionFallsBackToNormal(t *testing.T) {
	lambertian := NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: true,
	}
	rayIn := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))

	// (0.5, 0.25, 0.5) maps to (0, -0.5, 0), which exactly cancels the normal
	sampler := core.NewSequenceSampler(0.5, 0.25, 0.5)
	result, _ := lambertian.Scatter(rayIn, hit, sampler)

	if result.Scattered.Direction != hit.Normal {
		t.Errorf("Expected fallback to normal %v, got %v", hit.Normal, result.Scattered.Direction)
	}
}

func TestLambertian_ScatterStaysInHemisphere(t *testing.T) {
	lambertian := NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	normal := core.NewVec3(1, 1, 0).Normalize()
	hit := HitRecord{Point: core.NewVec3(0, 0, 0), Normal: normal, FrontFace: true}
	rayIn := core.NewRay(core.NewVec3(1, 1, 0), normal.Negate())
	sampler := core.NewSeededSampler(42)

	for i := 0; i < 1000; i++ {
		result, _ := lambertian.Scatter(rayIn, hit, sampler)
		if result.Scattered.Direction.Dot(normal) < 0 {
			t.Fatalf("Scatter direction %v points below the surface", result.Scattered.Direction)
		}
	}
}

func TestLambertian_Validate(t *testing.T) {
	tests := []struct {
		name    string
		albedo  core.Vec3
		wantErr bool
	}{
		{"Regular albedo", core.NewVec3(0.8, 0.8, 0.0), false},
		{"Black", core.NewVec3(0, 0, 0), false},
		{"NaN component", core.NewVec3(math.NaN(), 0, 0), true},
		{"Inf component", core.NewVec3(0, math.Inf(1), 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLambertian(tt.albedo).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMaterial) {
				t.Errorf("Expected ErrInvalidMaterial, got %v", err)
			}
		})
	}
}

func TestHitRecord_SetFaceNormal(t *testing.T) {
	outward := core.NewVec3(0, 0, 1)

	var front HitRecord
	front.SetFaceNormal(core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)), outward)
	if !front.FrontFace || front.Normal != outward {
		t.Errorf("Ray from outside: expected front face with normal %v, got %v (front=%v)", outward, front.Normal, front.FrontFace)
	}

	var back HitRecord
	back.SetFaceNormal(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)), outward)
	if back.FrontFace || back.Normal != outward.Negate() {
		t.Errorf("Ray from inside: expected back face with normal %v, got %v (front=%v)", outward.Negate(), back.Normal, back.FrontFace)
	}
}
