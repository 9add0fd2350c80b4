package lights

import "context"

// Controller is the only channel to a single light. Every call is one
// network round trip; nothing is cached between calls.
type Controller interface {
	State(ctx context.Context) (DeviceState, error)
	SetPower(ctx context.Context, on bool) error
	SetBrightness(ctx context.Context, brightness uint8) error
	SetTemperature(ctx context.Context, kelvin uint32) error
}

var _ Controller = &ElgatoController{}
