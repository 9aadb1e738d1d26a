// Package lifecycle runs a step function on its own goroutine until it stops or is closed.
package lifecycle

import (
	"errors"
	"fmt"
)

// Stepper is driven by a Runner. Step is called in a loop until it returns an error;
// returning ErrStop ends the loop quietly. Release is called exactly once, after the last Step.
type Stepper interface {
	fmt.Stringer
	Step(stop <-chan struct{}) error
	Release()
}

var (
	ErrStop              = errors.New("lifecycle: stop")
	ErrStartedAlready    = errors.New("lifecycle: started already")
	ErrStartedAfterClose = errors.New("lifecycle: start after close")
)
