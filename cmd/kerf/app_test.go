package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
)

func newApp() *App {
	return NewApp(bsp.New(bsp.DefaultConfig()), 4, nil)
}

func requireNoErrors(t *testing.T, r EvalResult) {
	t.Helper()
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
}

// TestE2EBracketExample exercises the full pipeline: Lisp source -> engine
// -> scene -> tessellate -> meshes.
func TestE2EBracketExample(t *testing.T) {
	source, err := os.ReadFile("../../examples/bracket.kerf")
	if err != nil {
		t.Fatalf("failed to read bracket.kerf: %v", err)
	}

	result := newApp().Evaluate(string(source))
	requireNoErrors(t, result)
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}

	tests := []struct {
		name     string
		min, max [3]float64
	}{
		{"bracket", [3]float64{0, 0, 0}, [3]float64{80, 40, 56}},
		{"spacer", [3]float64{-6, -6, -5}, [3]float64{6, 6, 5}},
	}
	for i, tt := range tests {
		m := result.Meshes[i]
		if m.PartName != tt.name {
			t.Fatalf("meshes[%d] = %q, want %q", i, m.PartName, tt.name)
		}
		if len(m.Vertices) == 0 || len(m.Normals) != len(m.Vertices) || len(m.Indices) == 0 {
			t.Errorf("part %q: malformed mesh buffers", m.PartName)
		}
		if m.Color == "" {
			t.Errorf("part %q: no color assigned", m.PartName)
		}
		for j := 0; j < 3; j++ {
			if math.Abs(m.Min[j]-tt.min[j]) > 1e-3 || math.Abs(m.Max[j]-tt.max[j]) > 1e-3 {
				t.Errorf("part %q bounds %v..%v, want %v..%v", m.PartName, m.Min, m.Max, tt.min, tt.max)
				break
			}
		}
	}
}

func TestE2EEmptySource(t *testing.T) {
	result := newApp().Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	// Slices stay non-nil so JSON serializes them as [] rather than null.
	if result.Meshes == nil || result.Errors == nil || result.Warnings == nil {
		t.Error("result slices should be non-nil")
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	source := `
;; This is a comment
  ; indented	with a tab
`
	result := newApp().Evaluate(source)
	requireNoErrors(t, result)
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for comments-only source, got %d", len(result.Meshes))
	}
}

func TestE2ESyntaxError(t *testing.T) {
	result := newApp().Evaluate("(+ 1 2)\n(defpart \"test\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if result.Errors[0].Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2EUndefinedPartReference(t *testing.T) {
	result := newApp().Evaluate(`(defpart "a" (translate (part "missing") (vec3 1 0 0)))`)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an undefined part")
	}
	if !strings.Contains(result.Errors[0].Message, "missing") {
		t.Errorf("error %q should name the missing part", result.Errors[0].Message)
	}
}

func TestE2EWarningsReported(t *testing.T) {
	result := newApp().Evaluate(`(defpart "rod" (cylinder :height 10 :radius 1 :segments 1))`)
	requireNoErrors(t, result)
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", result.Warnings)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
}

func TestE2EKernelWarningsCarryPartName(t *testing.T) {
	app := NewApp(bsp.New(bsp.Config{MaxBuildIterations: 2}), 1, nil)
	result := app.Evaluate(`(defpart "capped" (union (box 10 10 10) (translate (box 10 10 10) (vec3 5 5 5))))`)
	requireNoErrors(t, result)
	if len(result.Warnings) == 0 {
		t.Fatal("expected a kernel warning for the capped build")
	}
	if result.Warnings[0].Part != "capped" {
		t.Errorf("warning part = %q, want %q", result.Warnings[0].Part, "capped")
	}
}

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// zygomys is not safe for concurrent sandbox creation, so the calls
	// are sequential.
	app := newApp()

	sources := []string{
		`(defpart "ok" (box 100 50 10))`,
		`(defpart "broken"`,
		``,
		`(part "missing")`,
		`(defpart "also-ok" (difference (box 20 20 20) (box 5 5 5)))`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(undefined-func 1 2 3)`,
		`(defpart "last" (cylinder :height 10 :radius 3))`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			_ = app.Evaluate(source)
		}()
	}

	// The app recovers cleanly after errors.
	result := app.Evaluate(`(defpart "final" (box 1 2 3))`)
	requireNoErrors(t, result)
	if len(result.Meshes) != 1 {
		t.Errorf("expected 1 mesh after recovery, got %d", len(result.Meshes))
	}
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	var src strings.Builder
	for i := 0; i < len(colorPalette)+1; i++ {
		src.WriteString(`(defpart "p` + string(rune('a'+i)) + `" (box 10 10 10))` + "\n")
	}
	result := newApp().Evaluate(src.String())
	requireNoErrors(t, result)

	if len(result.Meshes) != len(colorPalette)+1 {
		t.Fatalf("expected %d meshes, got %d", len(colorPalette)+1, len(result.Meshes))
	}
	if first, last := result.Meshes[0].Color, result.Meshes[len(colorPalette)].Color; first != last {
		t.Errorf("palette did not wrap: first %q, last %q", first, last)
	}
}

func TestE2EKernelsAgree(t *testing.T) {
	source := `(defpart "block" (translate (box 40 20 10) (vec3 10 10 10)))`
	kernels := map[string]kernel.Kernel{
		"bsp":  bsp.New(bsp.DefaultConfig()),
		"sdfx": sdfx.NewWithCells(60),
	}
	for name, k := range kernels {
		t.Run(name, func(t *testing.T) {
			result := NewApp(k, 2, nil).Evaluate(source)
			requireNoErrors(t, result)
			m := result.Meshes[0]
			// Marching cubes is approximate, so allow about one cell.
			want := [2][3]float64{{10, 10, 10}, {50, 30, 20}}
			for j := 0; j < 3; j++ {
				if math.Abs(m.Min[j]-want[0][j]) > 1.5 || math.Abs(m.Max[j]-want[1][j]) > 1.5 {
					t.Fatalf("bounds %v..%v, want %v..%v", m.Min, m.Max, want[0], want[1])
				}
			}
		})
	}
}

// --- Output ---

func TestPrintSummary(t *testing.T) {
	result := newApp().Evaluate(`(defpart "cube" (box 1 1 1))`)
	result.Warnings = append(result.Warnings, EvalErrorData{Part: "cube", Message: "note"})
	result.Errors = append(result.Errors, EvalErrorData{Line: 3, Message: "bad"})

	var buf bytes.Buffer
	printSummary(&buf, result)
	out := buf.String()
	for _, want := range []string{"cube", "12 triangles", "(0, 0, 0)..(1, 1, 1)", "area 6.00", `warning: part "cube": note`, "error: line 3: bad"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestResultJSON(t *testing.T) {
	result := newApp().Evaluate(`(defpart "cube" (box 1 1 1))`)
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded struct {
		Meshes []struct {
			PartName string    `json:"partName"`
			Indices  []uint32  `json:"indices"`
			Max      []float64 `json:"max"`
		} `json:"meshes"`
		Errors []any `json:"errors"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(decoded.Meshes) != 1 || decoded.Meshes[0].PartName != "cube" || len(decoded.Meshes[0].Indices) != 36 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Errors == nil {
		t.Error("errors should serialize as [] not null")
	}
}

func TestFatalErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind string
		wantExit int
	}{
		{"timeout", fmt.Errorf("%w after 5s", engine.ErrTimeout), "timeout", 3},
		{"superseded", engine.ErrSuperseded, "superseded", 1},
		{"panic", fmt.Errorf("%w: boom", engine.ErrPanic), "panic", 1},
		{"other", errors.New("disk on fire"), "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := fatalError(tt.err)
			if e.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", e.Kind, tt.wantKind)
			}
			if e.Message != tt.err.Error() {
				t.Errorf("Message = %q, want %q", e.Message, tt.err.Error())
			}
			if got := exitCode(EvalResult{Errors: []EvalErrorData{e}}); got != tt.wantExit {
				t.Errorf("exitCode = %d, want %d", got, tt.wantExit)
			}
		})
	}
	if got := exitCode(EvalResult{}); got != 0 {
		t.Errorf("exitCode with no errors = %d, want 0", got)
	}
}
