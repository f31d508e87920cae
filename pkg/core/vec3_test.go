package core

import (
	"math"
	"testing"
)

const vecTolerance = 1e-9

func vecAlmostEqual(a, b Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance &&
		math.Abs(a.Y-b.Y) <= tolerance &&
		math.Abs(a.Z-b.Z) <= tolerance
}

func TestVec3_Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	tests := []struct {
		name     string
		got      Vec3
		expected Vec3
	}{
		{"Add", a.Add(b), NewVec3(5, 7, 9)},
		{"Subtract", a.Subtract(NewVec3(6, 5, 4)), NewVec3(-5, -3, -1)},
		{"Negate", NewVec3(1, 2.5, 4).Negate(), NewVec3(-1, -2.5, -4)},
		{"Multiply", a.Multiply(3), NewVec3(3, 6, 9)},
		{"Scale", Scale(3, a), NewVec3(3, 6, 9)},
		{"Divide", a.Divide(2), NewVec3(0.5, 1, 1.5)},
		{"MultiplyVec", a.MultiplyVec(b), NewVec3(4, 10, 18)},
		{"Cross", NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)), NewVec3(0, 0, 1)},
		{"Lerp start", a.Lerp(b, 0), a},
		{"Lerp end", a.Lerp(b, 1), b},
		{"Lerp middle", a.Lerp(b, 0.5), NewVec3(2.5, 3.5, 4.5)},
		{"Clamp", NewVec3(-1, 0.5, 2).Clamp(0, 0.999), NewVec3(0, 0.5, 0.999)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !vecAlmostEqual(tt.got, tt.expected, vecTolerance) {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestVec3_OperationsDoNotAlias(t *testing.T) {
	a := NewVec3(1, 2, 3)
	original := a

	_ = a.Add(NewVec3(1, 1, 1))
	_ = a.Multiply(10)
	_ = a.Negate()
	_ = a.UnitVector()

	if a != original {
		t.Errorf("Expected %v to be unchanged, got %v", original, a)
	}
}

func TestVec3_LengthScalesWithScalar(t *testing.T) {
	vectors := []Vec3{
		NewVec3(1, 2, 3),
		NewVec3(-0.5, 4, 0.25),
		NewVec3(0, 0, -7),
	}
	scalars := []float64{0, 1, -1, 2.5, -3.75, 1e-3}

	for _, v := range vectors {
		for _, k := range scalars {
			got := v.Multiply(k).Length()
			expected := math.Abs(k) * v.Length()
			if math.Abs(got-expected) > 1e-9 {
				t.Errorf("length(%g * %v): expected %g, got %g", k, v, expected, got)
			}
		}
	}
}

func TestVec3_DotAndCrossSymmetry(t *testing.T) {
	pairs := [][2]Vec3{
		{NewVec3(1, 2, 3), NewVec3(4, 5, 6)},
		{NewVec3(-1, 0.5, 2), NewVec3(3, -2, 0.25)},
		{NewVec3(0, 1, 0), NewVec3(0, 0, 1)},
	}

	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		if a.Dot(b) != b.Dot(a) {
			t.Errorf("dot(%v, %v) should equal dot(%v, %v)", a, b, b, a)
		}
		if !vecAlmostEqual(a.Cross(b), b.Cross(a).Negate(), vecTolerance) {
			t.Errorf("cross(%v, %v) should equal -cross(%v, %v)", a, b, b, a)
		}
	}

	if got := NewVec3(1, 2, 3).Dot(NewVec3(4, 5, 6)); got != 32 {
		t.Errorf("Expected dot product 32, got %g", got)
	}
}

func TestVec3_UnitVector(t *testing.T) {
	vectors := []Vec3{
		NewVec3(1, 2, 3),
		NewVec3(0, 0, -5),
		NewVec3(1e-3, -2e-3, 5e-4),
		NewVec3(123, 456, 789),
	}

	for _, v := range vectors {
		unit := v.UnitVector()
		if math.Abs(unit.Length()-1) > 1e-12 {
			t.Errorf("Expected unit length for %v, got %g", v, unit.Length())
		}
	}

	expected := NewVec3(1, 2, 3).Divide(math.Sqrt(14))
	if !vecAlmostEqual(NewVec3(1, 2, 3).UnitVector(), expected, vecTolerance) {
		t.Errorf("Expected %v, got %v", expected, NewVec3(1, 2, 3).UnitVector())
	}

	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize of zero vector should stay zero, got %v", got)
	}
}

func TestVec3_NearZero(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		expected bool
	}{
		{"zero", NewVec3(0, 0, 0), true},
		{"tiny", NewVec3(1e-8, -1e-8, 1e-9), true},
		{"just above threshold", NewVec3(2e-6, 0, 0), false},
		{"unit", NewVec3(0, 1, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vector.NearZero(); got != tt.expected {
				t.Errorf("NearZero(%v): expected %t, got %t", tt.vector, tt.expected, got)
			}
		})
	}
}

func TestReflect(t *testing.T) {
	normal := NewVec3(0, 1, 0)
	incoming := NewVec3(1, -1, 0)

	reflected := Reflect(incoming, normal)
	expected := NewVec3(1, 1, 0)
	if !vecAlmostEqual(reflected, expected, vecTolerance) {
		t.Errorf("Expected %v, got %v", expected, reflected)
	}

	// Reflection about the tangent plane is an involution
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(1, 1, 0).UnitVector(),
		NewVec3(-0.3, 0.2, 0.9).UnitVector(),
	}
	vectors := []Vec3{
		NewVec3(1, -1, 0),
		NewVec3(0.2, 0.7, -0.4),
		NewVec3(-3, 2, 5),
	}
	for _, n := range normals {
		for _, v := range vectors {
			twice := Reflect(Reflect(v, n), n)
			if !vecAlmostEqual(twice, v, 1e-12) {
				t.Errorf("Reflecting %v twice about %v gave %v", v, n, twice)
			}
			// tangential component is preserved
			vTangent := v.Subtract(n.Multiply(v.Dot(n)))
			r := Reflect(v, n)
			rTangent := r.Subtract(n.Multiply(r.Dot(n)))
			if !vecAlmostEqual(vTangent, rTangent, 1e-12) {
				t.Errorf("Tangential component changed: %v -> %v", vTangent, rTangent)
			}
		}
	}
}

func TestRefract(t *testing.T) {
	normal := NewVec3(0, 1, 0)

	t.Run("normal incidence passes straight through", func(t *testing.T) {
		in := NewVec3(0, -1, 0)
		out := Refract(in, normal, 1.0/1.5)
		if !vecAlmostEqual(out, in, 1e-12) {
			t.Errorf("Expected %v, got %v", in, out)
		}
	})

	t.Run("matched indices leave direction unchanged", func(t *testing.T) {
		in := NewVec3(1, -1, 0).UnitVector()
		out := Refract(in, normal, 1.0)
		if !vecAlmostEqual(out, in, 1e-12) {
			t.Errorf("Expected %v, got %v", in, out)
		}
	})

	t.Run("obeys Snell's law", func(t *testing.T) {
		eta := 1.0 / 1.5
		in := NewVec3(1, -1, 0).UnitVector()
		out := Refract(in, normal, eta)

		sinIn := math.Abs(in.X)
		sinOut := math.Abs(out.UnitVector().X)
		if math.Abs(sinOut-eta*sinIn) > 1e-12 {
			t.Errorf("Expected sin(out) = %g, got %g", eta*sinIn, sinOut)
		}
		if math.Abs(out.Length()-1) > 1e-12 {
			t.Errorf("Expected unit length refracted ray, got %g", out.Length())
		}
		if out.Y >= 0 {
			t.Errorf("Refracted ray should continue below the surface, got %v", out)
		}
	})
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(2, 4, 7), NewVec3(1, 2, 3))
	got := ray.At(5)
	expected := NewVec3(7, 14, 22)
	if !vecAlmostEqual(got, expected, vecTolerance) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if ray.At(0) != ray.Origin {
		t.Errorf("At(0) should return the origin")
	}
}

func TestVec3_GammaCorrectIsSquareRoot(t *testing.T) {
	color := NewVec3(0.25, 0.81, 0.5)
	got := color.GammaCorrect(2.0)
	expected := NewVec3(0.5, 0.9, math.Sqrt(0.5))
	if !vecAlmostEqual(got, expected, 1e-15) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
