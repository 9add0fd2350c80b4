// Package control maps a parsed intent onto the ordered sequence of calls
// against one light.
//
// Calls are issued strictly one after another. The power-on precondition and
// the relative brightness change are a read followed by a write with no
// compare-and-swap in between; another client changing the light in that
// window wins or loses arbitrarily.
package control

import (
	"context"
	"fmt"

	"keylightctl/internal/intent"
	"keylightctl/internal/lights"
)

type Orchestrator struct {
	light lights.Controller
}

func New(light lights.Controller) *Orchestrator {
	return &Orchestrator{light: light}
}

// Execute runs the call sequence for in. It returns the snapshot read for
// Status and nil for every mutation. The first failing call aborts the
// sequence; calls already applied are not undone.
func (o *Orchestrator) Execute(ctx context.Context, in intent.DeviceIntent) (*lights.DeviceState, error) {
	s := &sequence{light: o.light}

	switch in := in.(type) {
	case intent.On:
		if err := s.setPower(ctx, true); err != nil {
			return nil, err
		}
		if err := s.setBrightness(ctx, in.Brightness); err != nil {
			return nil, err
		}
		return nil, s.setTemperature(ctx, in.Temperature)

	case intent.Off:
		return nil, s.setPower(ctx, false)

	case intent.AdjustBrightness:
		current, err := s.ensurePoweredOn(ctx)
		if err != nil {
			return nil, err
		}
		return nil, s.setBrightness(ctx, Clamp(current.Brightness, in.Delta))

	case intent.SetTemperature:
		if _, err := s.ensurePoweredOn(ctx); err != nil {
			return nil, err
		}
		return nil, s.setTemperature(ctx, in.Temperature)

	case intent.Status:
		state, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		return &state, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupported, in.Command())
}

// Clamp applies delta to current and saturates the result to 0..100.
func Clamp(current uint8, delta int8) uint8 {
	v := int(current) + int(delta)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return uint8(v)
}

// sequence issues facade calls and remembers which writes succeeded, so a
// failure can report how far it got.
type sequence struct {
	light   lights.Controller
	applied []Step
}

// ensurePoweredOn reads the state and powers the light on if it is off. The
// returned snapshot is the one read before any write.
func (s *sequence) ensurePoweredOn(ctx context.Context) (lights.DeviceState, error) {
	state, err := s.fetch(ctx)
	if err != nil {
		return state, err
	}
	if !state.On {
		if err := s.setPower(ctx, true); err != nil {
			return state, err
		}
	}
	return state, nil
}

func (s *sequence) fetch(ctx context.Context) (lights.DeviceState, error) {
	state, err := s.light.State(ctx)
	if err != nil {
		return state, s.fail(StepFetchState, err)
	}
	return state, nil
}

func (s *sequence) setPower(ctx context.Context, on bool) error {
	return s.do(StepSetPower, s.light.SetPower(ctx, on))
}

func (s *sequence) setBrightness(ctx context.Context, b uint8) error {
	return s.do(StepSetBrightness, s.light.SetBrightness(ctx, b))
}

func (s *sequence) setTemperature(ctx context.Context, k uint32) error {
	return s.do(StepSetTemperature, s.light.SetTemperature(ctx, k))
}

func (s *sequence) do(step Step, err error) error {
	if err != nil {
		return s.fail(step, err)
	}
	s.applied = append(s.applied, step)
	return nil
}

func (s *sequence) fail(step Step, err error) error {
	return &StepError{
		Step:    step,
		Applied: append([]Step(nil), s.applied...),
		Err:     err,
	}
}
