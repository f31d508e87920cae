package material

import (
	"fmt"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base color/reflectance
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements the Material interface for lambertian scattering
func (l *Lambertian) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	// normal + unit sphere sample approximates a cosine-weighted hemisphere
	scatterDirection := hit.Normal.Add(core.RandomUnitVector(sampler))

	// Catch the sample that cancels the normal
	if scatterDirection.NearZero() {
		scatterDirection = hit.Normal
	}

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, scatterDirection),
		Attenuation: l.Albedo,
	}, true
}

// Validate implements the Material interface
func (l *Lambertian) Validate() error {
	if !l.Albedo.IsFinite() {
		return fmt.Errorf("%w: lambertian albedo %v is not finite", ErrInvalidMaterial, l.Albedo)
	}
	return nil
}
