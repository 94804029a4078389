package kernel

import (
	"math"
	"testing"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
	warnings     []string
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

func (s *stubSolid) Warnings() []string { return s.warnings }

// plainSolid does not report diagnostics.
type plainSolid struct{}

func (plainSolid) BoundingBox() (min, max [3]float64) { return min, max }

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{0, 0, 0},
		maxBB: [3]float64{x, y, z},
	}
}

func (k *stubKernel) Cylinder(height, radius float64, _ int) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, 0},
		maxBB: [3]float64{radius, radius, height},
	}
}

func (k *stubKernel) Union(a, _ Solid) Solid       { return a }
func (k *stubKernel) Difference(a, _ Solid) Solid   { return a }
func (k *stubKernel) Intersection(a, _ Solid) Solid { return a }

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Diagnostics = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
}

func TestStubKernelToMesh(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(1, 1, 1)
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m == nil {
		t.Fatal("ToMesh() returned nil mesh")
	}
	if !m.IsEmpty() {
		t.Error("stub ToMesh() should return empty mesh")
	}
}

func TestWarningsOf(t *testing.T) {
	if got := WarningsOf(&stubSolid{warnings: []string{"capped"}}); len(got) != 1 || got[0] != "capped" {
		t.Errorf("WarningsOf(stub) = %v, want [capped]", got)
	}
	if got := WarningsOf(plainSolid{}); got != nil {
		t.Errorf("WarningsOf(plain) = %v, want nil", got)
	}
}

// --- Mesh building ---

func TestFaceNormal(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c [3]float64
		want    [3]float64
	}{
		{"ccw in xy", [3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0}, [3]float64{0, 0, 1}},
		{"cw in xy", [3]float64{0, 0, 0}, [3]float64{0, 1, 0}, [3]float64{1, 0, 0}, [3]float64{0, 0, -1}},
		{"scaled", [3]float64{0, 0, 0}, [3]float64{0, 5, 0}, [3]float64{0, 0, 5}, [3]float64{1, 0, 0}},
		{"degenerate", [3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{2, 0, 0}, [3]float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FaceNormal(tt.a, tt.b, tt.c); got != tt.want {
				t.Errorf("FaceNormal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppendTriangle(t *testing.T) {
	m := &Mesh{}
	m.AppendTriangle([3]float64{0, 0, 0}, [3]float64{2, 0, 0}, [3]float64{0, 2, 0})
	m.AppendTriangle([3]float64{0, 0, 1}, [3]float64{1, 0, 1}, [3]float64{0, 1, 1})

	if m.VertexCount() != 6 || m.TriangleCount() != 2 {
		t.Fatalf("got %d vertices, %d triangles; want 6, 2", m.VertexCount(), m.TriangleCount())
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Fatalf("normals length %d != vertices length %d", len(m.Normals), len(m.Vertices))
	}
	wantIdx := []uint32{0, 1, 2, 3, 4, 5}
	for i, idx := range m.Indices {
		if idx != wantIdx[i] {
			t.Fatalf("indices = %v, want %v", m.Indices, wantIdx)
		}
	}
	for i := 0; i < len(m.Normals); i += 3 {
		if m.Normals[i+2] != 1 {
			t.Errorf("normal %d = %v, want +Z", i/3, m.Normals[i:i+3])
		}
	}
	if a := m.SurfaceArea(); math.Abs(a-2.5) > 1e-6 {
		t.Errorf("SurfaceArea() = %v, want 2.5", a)
	}
}

func TestMeshBoundingBox(t *testing.T) {
	m := &Mesh{}
	if min, max := m.BoundingBox(); min != [3]float64{} || max != [3]float64{} {
		t.Errorf("empty mesh bounds = %v, %v", min, max)
	}
	m.AppendTriangle([3]float64{-1, 2, 3}, [3]float64{4, -5, 6}, [3]float64{0, 0, -7})
	min, max := m.BoundingBox()
	if min != [3]float64{-1, -5, -7} || max != [3]float64{4, 2, 6} {
		t.Errorf("BoundingBox() = %v, %v", min, max)
	}
}
