package material

import (
	"fmt"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// Metal represents a metallic material with specular reflection
type Metal struct {
	Albedo core.Vec3 // Metal color
	Fuzz   float64   // 0.0 = perfect mirror, 1.0 = very fuzzy
}

// NewMetal creates a new metal material
func NewMetal(albedo core.Vec3, fuzz float64) *Metal {
	return &Metal{Albedo: albedo, Fuzz: fuzz}
}

// Scatter implements the Material interface for metal scattering
func (m *Metal) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	// Calculate perfect reflection direction
	reflected := core.Reflect(rayIn.Direction.UnitVector(), hit.Normal)

	// Add fuzziness by perturbing the reflection direction
	perturbation := core.RandomInUnitSphere(sampler).Multiply(m.Fuzz)
	scattered := core.NewRay(hit.Point, reflected.Add(perturbation))

	// Fuzz can push the ray below the surface, in which case it is absorbed
	scatters := scattered.Direction.Dot(hit.Normal) > 0

	return ScatterResult{
		Scattered:   scattered,
		Attenuation: m.Albedo,
	}, scatters
}

// Validate implements the Material interface
func (m *Metal) Validate() error {
	if !m.Albedo.IsFinite() {
		return fmt.Errorf("%w: metal albedo %v is not finite", ErrInvalidMaterial, m.Albedo)
	}
	if !(m.Fuzz >= 0 && m.Fuzz <= 1) {
		return fmt.Errorf("%w: metal fuzz %g outside [0, 1]", ErrInvalidMaterial, m.Fuzz)
	}
	return nil
}
