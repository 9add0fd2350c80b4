package lights

import (
	"errors"
	"fmt"
)

// Hardware limits of the Elgato Key Light family, as enforced by the
// keylight client library.
const (
	MinBrightness = 3
	MaxBrightness = 100
	MinKelvin     = 2900
	MaxKelvin     = 7000
	DefaultPort   = 9123
)

var ErrNoLights = errors.New("device reported no lights")

type DeviceState struct {
	On          bool   `json:"on" yaml:"on"`
	Brightness  uint8  `json:"brightness" yaml:"brightness"`
	Temperature uint32 `json:"temperature" yaml:"temperature"`
}

func (s DeviceState) String() string {
	power := "off"
	if s.On {
		power = "on"
	}
	return fmt.Sprintf("power=%s brightness=%d%% temperature=%dK", power, s.Brightness, s.Temperature)
}

type Accessory struct {
	DisplayName     string `json:"displayName" yaml:"displayName"`
	ProductName     string `json:"productName" yaml:"productName"`
	FirmwareVersion string `json:"firmwareVersion,omitempty" yaml:"firmwareVersion,omitempty"`
}

// DeviceError reports a failed round trip to the light.
type DeviceError struct {
	Op   string
	Addr string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
