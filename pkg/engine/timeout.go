package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/kerf/pkg/scene"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is matched by errors from evaluations that ran past
	// EvalTimeout.
	ErrTimeout = errors.New("evaluation timed out")

	// ErrSuperseded is matched by errors from evaluations that finished
	// after a newer one had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")

	// ErrPanic is matched by errors from evaluations that panicked.
	ErrPanic = errors.New("panic during evaluation")
)

// evalResult passes evaluation output through channels.
type evalResult struct {
	scene    *scene.Scene
	errors   []EvalError
	warnings []EvalWarning
	err      error
}

// waitWithTimeout waits for a result from ch. Results that arrive after
// EvalTimeout give ErrTimeout; results whose generation is no longer
// current give ErrSuperseded. A timed-out goroutine may keep running, and
// its late result is dropped.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (evalResult, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return evalResult{}, ErrSuperseded
		}
		if res.err != nil {
			return evalResult{}, res.err
		}
		return res, nil

	case <-timer.C:
		return evalResult{}, fmt.Errorf("%w after %s", ErrTimeout, EvalTimeout)
	}
}
