package geometry

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// HittableList is an ordered collection of spheres searched linearly.
// It is append-only while a scene is built and read-only while rendering.
type HittableList struct {
	Objects []*Sphere
}

// NewHittableList creates a list holding the given spheres
func NewHittableList(objects ...*Sphere) *HittableList {
	return &HittableList{Objects: objects}
}

// Add appends a sphere to the list
func (l *HittableList) Add(sphere *Sphere) {
	l.Objects = append(l.Objects, sphere)
}

// Len returns the number of spheres
func (l *HittableList) Len() int {
	return len(l.Objects)
}

// Hit returns the nearest intersection across all spheres
func (l *HittableList) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	closestSoFar := tMax

	for _, object := range l.Objects {
		if hit, ok := object.Hit(ray, tMin, closestSoFar); ok {
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closest, closest != nil
}

// Validate checks every sphere in the list
func (l *HittableList) Validate() error {
	for _, object := range l.Objects {
		if err := object.Validate(); err != nil {
			return err
		}
	}
	return nil
}
