package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	World          *geometry.HittableList // Spheres in the scene
	Background     integrator.GradientBackground
	CameraConfig   renderer.CameraConfig
	SamplingConfig renderer.SamplingConfig
}

// New creates an empty scene with the sky background and default configs
func New(name string) *Scene {
	return &Scene{
		Name:           name,
		World:          geometry.NewHittableList(),
		Background:     integrator.NewSkyBackground(),
		CameraConfig:   renderer.DefaultCameraConfig(),
		SamplingConfig: renderer.DefaultSamplingConfig(),
	}
}

// AddSphere appends a sphere to the world
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.Material) {
	s.World.Add(geometry.NewSphere(center, radius, mat))
}

// GetPrimitiveCount returns the total number of spheres in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// SetImageWidth changes the width and derives the height from the camera aspect ratio
func (s *Scene) SetImageWidth(width int) {
	s.SamplingConfig.Width = width
	s.SamplingConfig.Height = max(1, int(float64(width)/s.CameraConfig.AspectRatio))
}

// SetImageSize sets both dimensions and matches the camera aspect ratio to them
func (s *Scene) SetImageSize(width, height int) {
	s.SamplingConfig.Width = width
	s.SamplingConfig.Height = height
	if width > 0 && height > 0 {
		s.CameraConfig.AspectRatio = float64(width) / float64(height)
	}
}

// Validate checks the camera, sampling config and every sphere, joining all failures
func (s *Scene) Validate() error {
	var errs []error
	if err := s.CameraConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := s.SamplingConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !s.Background.Top.IsFinite() || !s.Background.Bottom.IsFinite() {
		errs = append(errs, fmt.Errorf("background colors must be finite"))
	}
	for i, sphere := range s.World.Objects {
		if err := sphere.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("sphere %d: %w", i, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}
	return nil
}

// NewRaytracer validates the scene and wires it to a path tracing raytracer
func (s *Scene) NewRaytracer() (*renderer.Raytracer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	camera := renderer.NewCamera(s.CameraConfig)
	pt := integrator.NewPathTracingIntegrator(s.SamplingConfig.MaxDepth, s.Background)
	return renderer.NewRaytracer(s.World, camera, pt, s.SamplingConfig), nil
}
