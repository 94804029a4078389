// Command kerf evaluates a kerf part file and reports the resulting meshes.
//
//	kerf [flags] part.kerf
//
// With -json the full mesh data is written to stdout; otherwise one summary
// line is printed per part. The exit status is 1 when evaluation reports
// errors and 3 when it times out.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/meshrepair"
)

func main() {
	var (
		kernelName    = flag.String("kernel", "bsp", "geometry kernel: bsp or sdfx")
		workers       = flag.Int("workers", runtime.GOMAXPROCS(0), "goroutines for tessellation and tree work")
		repairEps     = flag.Float64("repair-eps", meshrepair.DefaultEpsilon, "T-junction repair distance (bsp kernel)")
		repairPasses  = flag.Int("repair-passes", meshrepair.DefaultMaxPasses, "T-junction repair pass cap (bsp kernel)")
		maxIterations = flag.Int("max-iterations", 0, "BSP build iteration cap; 0 uses the default (bsp kernel)")
		cells         = flag.Int("cells", sdfx.DefaultMeshCells, "marching cubes resolution (sdfx kernel)")
		asJSON        = flag.Bool("json", false, "write mesh data as JSON")
		verbose       = flag.Bool("v", false, "log kernel diagnostics to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: kerf [flags] file.kerf|-\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("kerf: ")

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	source, err := readSource(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "kerf: ", 0)
	}

	var k kernel.Kernel
	switch *kernelName {
	case "bsp":
		k = bsp.New(bsp.Config{
			Workers:            *workers,
			MaxBuildIterations: *maxIterations,
			Repair:             meshrepair.Config{Epsilon: *repairEps, MaxPasses: *repairPasses},
			Logger:             logger,
		})
	case "sdfx":
		k = sdfx.NewWithCells(*cells)
	default:
		log.Fatalf("unknown kernel %q, expected bsp or sdfx", *kernelName)
	}

	result := NewApp(k, *workers, logger).Evaluate(string(source))
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		if err := enc.Encode(result); err != nil {
			log.Fatal(err)
		}
	} else {
		printSummary(os.Stdout, result)
	}
	os.Exit(exitCode(result))
}

// exitCode is 0 on success, 3 when evaluation timed out and 1 for any
// other error.
func exitCode(r EvalResult) int {
	if len(r.Errors) == 0 {
		return 0
	}
	for _, e := range r.Errors {
		if e.Kind == "timeout" {
			return 3
		}
	}
	return 1
}

func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// printSummary writes one line per mesh, then warnings and errors.
func printSummary(w io.Writer, r EvalResult) {
	for _, m := range r.Meshes {
		fmt.Fprintf(w, "%-24s %7d triangles  %s..%s  area %.2f\n",
			m.PartName, len(m.Indices)/3, fmtVec(m.Min), fmtVec(m.Max), m.Area)
	}
	for _, x := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", describe(x))
	}
	for _, x := range r.Errors {
		fmt.Fprintf(w, "error: %s\n", describe(x))
	}
}

func describe(e EvalErrorData) string {
	switch {
	case e.Kind != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Part != "":
		return fmt.Sprintf("part %q: %s", e.Part, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}

func fmtVec(v [3]float64) string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}
