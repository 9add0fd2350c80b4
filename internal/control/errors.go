package control

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupported = errors.New("intent not handled by the orchestrator")

type Step string

const (
	StepFetchState     Step = "fetch_state"
	StepSetPower       Step = "set_power"
	StepSetBrightness  Step = "set_brightness"
	StepSetTemperature Step = "set_temperature"
)

// StepError reports the call that failed and the writes that had already
// been applied before it.
type StepError struct {
	Step    Step
	Applied []Step
	Err     error
}

func (e *StepError) Error() string {
	if len(e.Applied) == 0 {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	applied := make([]string, len(e.Applied))
	for i, s := range e.Applied {
		applied[i] = string(s)
	}
	return fmt.Sprintf("%s: %v (already applied: %s)", e.Step, e.Err, strings.Join(applied, ", "))
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Partial reports whether the light was changed before the failure.
func (e *StepError) Partial() bool {
	return len(e.Applied) > 0
}
