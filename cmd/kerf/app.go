package main

import (
	"errors"
	"io"
	"log"

	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs the evaluate-then-tessellate pipeline for the command line.
type App struct {
	engine  *engine.Engine
	kernel  kernel.Kernel
	workers int
	logger  *log.Logger
}

// MeshData is the JSON-serializable mesh format written with -json.
type MeshData struct {
	Vertices []float32  `json:"vertices"`
	Normals  []float32  `json:"normals"`
	Indices  []uint32   `json:"indices"`
	PartName string     `json:"partName"`
	Color    string     `json:"color"`
	Min      [3]float64 `json:"min"`
	Max      [3]float64 `json:"max"`
	Area     float64    `json:"area"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Part    string `json:"part,omitempty"`
	Kind    string `json:"kind,omitempty"` // timeout, superseded or panic for fatal errors
	Message string `json:"message"`
}

// fatalError classifies an error that stopped evaluation outright.
func fatalError(err error) EvalErrorData {
	e := EvalErrorData{Message: err.Error()}
	switch {
	case errors.Is(err, engine.ErrTimeout):
		e.Kind = "timeout"
	case errors.Is(err, engine.ErrSuperseded):
		e.Kind = "superseded"
	case errors.Is(err, engine.ErrPanic):
		e.Kind = "panic"
	}
	return e
}

// EvalResult is the full result of one run.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App that tessellates with k. A nil logger discards.
func NewApp(k kernel.Kernel, workers int, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &App{
		engine:  engine.NewEngine(),
		kernel:  k,
		workers: workers,
		logger:  logger,
	}
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	res, err := a.engine.EvaluateResult(source)
	if err != nil {
		a.logger.Printf("evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, fatalError(err))
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	meshes, err := tessellate.Tessellate(res.Scene, a.kernel, tessellate.WithWorkers(a.workers))
	if err != nil {
		a.logger.Printf("tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	for i, m := range meshes {
		min, max := m.BoundingBox()
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
			Min:      min,
			Max:      max,
			Area:     m.SurfaceArea(),
		})
		for _, w := range m.Warnings {
			result.Warnings = append(result.Warnings, EvalErrorData{Part: m.PartName, Message: w})
		}
	}

	return result
}
