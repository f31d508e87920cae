package renderer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// ErrInvalidCamera is returned when a camera configuration cannot produce rays
var ErrInvalidCamera = errors.New("invalid camera")

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	LookFrom      core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	ViewUp        core.Vec3 // Up direction
	VFov          float64   // Vertical field of view in degrees
	AspectRatio   float64   // Width / height
	Aperture      float64   // Lens diameter, 0 for a pinhole camera
	FocusDistance float64   // Distance to the plane in perfect focus
}

// DefaultCameraConfig returns a pinhole camera at the origin looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		LookFrom:      core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		ViewUp:        core.NewVec3(0, 1, 0),
		VFov:          90.0,
		AspectRatio:   16.0 / 9.0,
		Aperture:      0.0,
		FocusDistance: 1.0,
	}
}

// Validate reports every problem with the configuration in one error
func (c CameraConfig) Validate() error {
	var problems []string

	if !c.LookFrom.IsFinite() || !c.LookAt.IsFinite() || !c.ViewUp.IsFinite() {
		problems = append(problems, "lookFrom, lookAt and viewUp must be finite")
	} else {
		gaze := c.LookFrom.Subtract(c.LookAt)
		if gaze.NearZero() {
			problems = append(problems, "lookFrom and lookAt must differ")
		} else if c.ViewUp.Cross(gaze).NearZero() {
			problems = append(problems, "viewUp must not be parallel to the view direction")
		}
	}
	if !(c.VFov > 0 && c.VFov < 180) {
		problems = append(problems, fmt.Sprintf("vfov %g must be in (0, 180)", c.VFov))
	}
	if !(c.AspectRatio > 0) || math.IsInf(c.AspectRatio, 0) {
		problems = append(problems, fmt.Sprintf("aspect ratio %g must be positive", c.AspectRatio))
	}
	if !(c.Aperture >= 0) || math.IsInf(c.Aperture, 0) {
		problems = append(problems, fmt.Sprintf("aperture %g must be non-negative", c.Aperture))
	}
	if !(c.FocusDistance > 0) || math.IsInf(c.FocusDistance, 0) {
		problems = append(problems, fmt.Sprintf("focus distance %g must be positive", c.FocusDistance))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCamera, strings.Join(problems, "; "))
	}
	return nil
}

// Camera generates rays for rendering with optional depth of field
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3 // Orthonormal basis
	lensRadius      float64
	config          CameraConfig
}

// NewCamera derives the viewport basis from config. Call Validate first;
// a degenerate config yields NaN rays.
func NewCamera(config CameraConfig) *Camera {
	theta := config.VFov * math.Pi / 180.0
	viewportHeight := 2.0 * math.Tan(theta/2)
	viewportWidth := config.AspectRatio * viewportHeight

	w := config.LookFrom.Subtract(config.LookAt).UnitVector()
	u := config.ViewUp.Cross(w).UnitVector()
	v := w.Cross(u)

	origin := config.LookFrom
	horizontal := u.Multiply(config.FocusDistance * viewportWidth)
	vertical := v.Multiply(config.FocusDistance * viewportHeight)
	lowerLeftCorner := origin.
		Subtract(horizontal.Divide(2)).
		Subtract(vertical.Divide(2)).
		Subtract(w.Multiply(config.FocusDistance))

	return &Camera{
		origin:          origin,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
		config:          config,
	}
}

// GetRay generates a ray for viewport coordinates (s, t) where 0 <= s,t <= 1,
// with (0, 0) at the lower left. It always draws one lens sample.
func (c *Camera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	rd := core.RandomInUnitDisk(sampler).Multiply(c.lensRadius)
	offset := c.u.Multiply(rd.X).Add(c.v.Multiply(rd.Y))

	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(c.origin).
		Subtract(offset)

	return core.NewRay(c.origin.Add(offset), direction)
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}
