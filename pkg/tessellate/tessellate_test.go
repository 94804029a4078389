package tessellate_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/meshrepair"
	"github.com/chazu/kerf/pkg/scene"
	"github.com/chazu/kerf/pkg/tessellate"
)

// newKernel returns a fresh bsp kernel for testing.
func newKernel() kernel.Kernel {
	return bsp.New(bsp.DefaultConfig())
}

// mustScene builds a scene from alternating name/root pairs.
func mustScene(t *testing.T, parts ...any) *scene.Scene {
	t.Helper()
	s := scene.New()
	for i := 0; i+1 < len(parts); i += 2 {
		if _, err := s.AddPart(parts[i].(string), parts[i+1].(*scene.Node)); err != nil {
			t.Fatalf("AddPart: %v", err)
		}
	}
	return s
}

func assertMeshBounds(t *testing.T, m *kernel.Mesh, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := m.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol || math.Abs(max[i]-wantMax[i]) > tol {
			t.Fatalf("mesh %q bounds %v..%v, want %v..%v", m.PartName, min, max, wantMin, wantMax)
		}
	}
}

func TestSingleBox(t *testing.T) {
	s := mustScene(t, "shelf", scene.Box(scene.Vec3{X: 600, Y: 300, Z: 18}))

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.PartName != "shelf" {
		t.Errorf("expected PartName %q, got %q", "shelf", m.PartName)
	}
	if m.TriangleCount() != 12 {
		t.Errorf("box triangle count = %d, want 12", m.TriangleCount())
	}
	assertMeshBounds(t, m, [3]float64{0, 0, 0}, [3]float64{600, 300, 18}, 1e-6)
}

func TestPartsKeepOrder(t *testing.T) {
	var parts []any
	for i := 0; i < 8; i++ {
		parts = append(parts, fmt.Sprintf("p%d", i), scene.Box(scene.Vec3{X: float64(i + 1), Y: 1, Z: 1}))
	}
	s := mustScene(t, parts...)

	meshes, err := tessellate.Tessellate(s, newKernel(), tessellate.WithWorkers(3))
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 8 {
		t.Fatalf("expected 8 meshes, got %d", len(meshes))
	}
	for i, m := range meshes {
		if want := fmt.Sprintf("p%d", i); m.PartName != want {
			t.Errorf("meshes[%d].PartName = %q, want %q", i, m.PartName, want)
		}
		_, max := m.BoundingBox()
		if math.Abs(max[0]-float64(i+1)) > 1e-6 {
			t.Errorf("meshes[%d] max X = %f, want %d", i, max[0], i+1)
		}
	}
}

func TestRotationBeforeTranslation(t *testing.T) {
	rot := scene.Vec3{Z: 90}
	move := scene.Vec3{X: 200}
	node := &scene.Node{
		Kind:     scene.NodeTransform,
		Children: []*scene.Node{scene.Box(scene.Vec3{X: 100, Y: 10, Z: 10})},
		Data:     scene.TransformData{Translation: &move, Rotation: &rot},
	}
	s := mustScene(t, "beam", node)

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	// Rotating first swings the beam onto +Y, then it moves along X.
	assertMeshBounds(t, meshes[0], [3]float64{190, 0, 0}, [3]float64{200, 100, 10}, 1e-3)
}

func TestNestedTransforms(t *testing.T) {
	inner := scene.Translate(scene.Box(scene.Vec3{X: 10, Y: 10, Z: 10}), scene.Vec3{X: 5})
	outer := scene.Translate(scene.Union(inner, scene.Box(scene.Vec3{X: 1, Y: 1, Z: 1})), scene.Vec3{Y: 100})
	s := mustScene(t, "p", outer)

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	assertMeshBounds(t, meshes[0], [3]float64{0, 100, 0}, [3]float64{15, 110, 10}, 1e-6)
}

func TestDifferencePart(t *testing.T) {
	hole := scene.Translate(scene.Cylinder(40, 5, 32), scene.Vec3{X: 50, Y: 50, Z: 10})
	plate := scene.Difference(scene.Box(scene.Vec3{X: 100, Y: 100, Z: 20}), hole)
	s := mustScene(t, "plate", plate)

	k := newKernel()
	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	m := meshes[0]
	if m.TriangleCount() <= 12 {
		t.Errorf("drilled plate has %d triangles, want more than a plain box", m.TriangleCount())
	}
	assertMeshBounds(t, m, [3]float64{0, 0, 0}, [3]float64{100, 100, 20}, 1e-3)
	if len(m.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", m.Warnings)
	}
}

func TestIntersectionFoldsAllChildren(t *testing.T) {
	root := scene.Intersection(
		scene.Box(scene.Vec3{X: 10, Y: 10, Z: 10}),
		scene.Translate(scene.Box(scene.Vec3{X: 10, Y: 10, Z: 10}), scene.Vec3{X: 4}),
		scene.Translate(scene.Box(scene.Vec3{X: 10, Y: 10, Z: 10}), scene.Vec3{Y: 6}),
	)
	solid, err := tessellate.Build(root, newKernel())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	min, max := solid.BoundingBox()
	wantMin, wantMax := [3]float64{4, 6, 0}, [3]float64{10, 10, 10}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > 1e-9 || math.Abs(max[i]-wantMax[i]) > 1e-9 {
			t.Fatalf("intersection bounds = %v..%v, want %v..%v", min, max, wantMin, wantMax)
		}
	}
}

func TestEmptyScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(scene.New(), newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes, got %d", len(meshes))
	}

	meshes, err = tessellate.Tessellate(nil, newKernel())
	if err != nil || meshes != nil {
		t.Errorf("nil scene = %v, %v", meshes, err)
	}
}

// --- Errors ---

func TestInvalidSceneRejected(t *testing.T) {
	s := mustScene(t, "bad", scene.Box(scene.Vec3{X: 0, Y: 1, Z: 1}))
	_, err := tessellate.Tessellate(s, newKernel())
	if !errors.Is(err, tessellate.ErrInvalidScene) {
		t.Fatalf("err = %v, want ErrInvalidScene", err)
	}
}

func TestBuildUnknownKind(t *testing.T) {
	if _, err := tessellate.Build(&scene.Node{Kind: scene.NodeKind(42)}, newKernel()); err == nil {
		t.Error("expected error for unknown node kind")
	}
	if _, err := tessellate.Build(nil, newKernel()); err == nil {
		t.Error("expected error for nil node")
	}
}

func TestToMeshErrorPropagates(t *testing.T) {
	k := bsp.New(bsp.Config{Repair: meshrepair.Config{Epsilon: math.NaN(), MaxPasses: 1}})
	s := mustScene(t, "p", scene.Box(scene.Vec3{X: 1, Y: 1, Z: 1}))
	_, err := tessellate.Tessellate(s, k)
	if !errors.Is(err, meshrepair.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

// --- sdfx backend ---

func TestSdfxBackend(t *testing.T) {
	s := mustScene(t, "cube", scene.Translate(scene.Box(scene.Vec3{X: 100, Y: 100, Z: 100}), scene.Vec3{X: 200, Y: 100, Z: 50}))

	meshes, err := tessellate.Tessellate(s, sdfx.NewWithCells(40))
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	m := meshes[0]
	if m.IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if m.PartName != "cube" {
		t.Errorf("expected PartName %q, got %q", "cube", m.PartName)
	}

	// Marching cubes is approximate, so allow a few cells of slack.
	assertMeshBounds(t, m, [3]float64{200, 100, 50}, [3]float64{300, 200, 150}, 10)
}
