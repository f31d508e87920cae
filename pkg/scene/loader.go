package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// vec3JSON is a vector written as [x, y, z]
type vec3JSON [3]float64

func (v vec3JSON) toVec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

type sceneFile struct {
	Name       string          `json:"name"`
	Image      *imageJSON      `json:"image"`
	Sampling   *samplingJSON   `json:"sampling"`
	Camera     *cameraJSON     `json:"camera"`
	Background *backgroundJSON `json:"background"`
	Spheres    []sphereJSON    `json:"spheres"`
}

type imageJSON struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type samplingJSON struct {
	SamplesPerPixel int `json:"samplesPerPixel"`
	MaxDepth        int `json:"maxDepth"`
}

type cameraJSON struct {
	LookFrom      *vec3JSON `json:"lookFrom"`
	LookAt        *vec3JSON `json:"lookAt"`
	ViewUp        *vec3JSON `json:"viewUp"`
	VFov          *float64  `json:"vfov"`
	Aperture      *float64  `json:"aperture"`
	FocusDistance *float64  `json:"focusDistance"`
}

type backgroundJSON struct {
	Top    vec3JSON `json:"top"`
	Bottom vec3JSON `json:"bottom"`
}

type sphereJSON struct {
	Center   vec3JSON     `json:"center"`
	Radius   float64      `json:"radius"`
	Material materialJSON `json:"material"`
}

type materialJSON struct {
	Type   string   `json:"type"`
	Albedo vec3JSON `json:"albedo"`
	Fuzz   float64  `json:"fuzz"`
	IOR    float64  `json:"ior"`
}

func (m materialJSON) build() (material.Material, error) {
	switch strings.ToLower(m.Type) {
	case "lambertian":
		return material.NewLambertian(m.Albedo.toVec3()), nil
	case "metal":
		return material.NewMetal(m.Albedo.toVec3(), m.Fuzz), nil
	case "dielectric", "glass":
		return material.NewDielectric(m.IOR), nil
	default:
		return nil, fmt.Errorf("%w: unknown material type %q", material.ErrInvalidMaterial, m.Type)
	}
}

// LoadFile reads and validates a JSON scene description
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Decode builds a scene from a JSON description. Omitted sections keep the
// defaults of New; the result is validated before it is returned.
func Decode(r io.Reader) (*Scene, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var file sceneFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}

	s := New(file.Name)

	if c := file.Camera; c != nil {
		if c.LookFrom != nil {
			s.CameraConfig.LookFrom = c.LookFrom.toVec3()
		}
		if c.LookAt != nil {
			s.CameraConfig.LookAt = c.LookAt.toVec3()
		}
		if c.ViewUp != nil {
			s.CameraConfig.ViewUp = c.ViewUp.toVec3()
		}
		if c.VFov != nil {
			s.CameraConfig.VFov = *c.VFov
		}
		if c.Aperture != nil {
			s.CameraConfig.Aperture = *c.Aperture
		}
		if c.FocusDistance != nil {
			s.CameraConfig.FocusDistance = *c.FocusDistance
		}
	}

	if img := file.Image; img != nil {
		switch {
		case img.Width > 0 && img.Height > 0:
			s.SetImageSize(img.Width, img.Height)
		case img.Width > 0:
			s.SetImageWidth(img.Width)
		case img.Height > 0:
			s.SetImageSize(s.SamplingConfig.Width, img.Height)
		}
	}

	if sp := file.Sampling; sp != nil {
		if sp.SamplesPerPixel != 0 {
			s.SamplingConfig.SamplesPerPixel = sp.SamplesPerPixel
		}
		if sp.MaxDepth != 0 {
			s.SamplingConfig.MaxDepth = sp.MaxDepth
		}
	}

	if bg := file.Background; bg != nil {
		s.Background = integrator.GradientBackground{Top: bg.Top.toVec3(), Bottom: bg.Bottom.toVec3()}
	}

	for i, sphere := range file.Spheres {
		mat, err := sphere.Material.build()
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		s.AddSphere(sphere.Center.toVec3(), sphere.Radius, mat)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
