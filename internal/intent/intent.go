// Package intent turns command-line tokens into validated, typed commands
// for a single light. Nothing in this package talks to the network.
package intent

import (
	"net/netip"
	"time"
)

const (
	DefaultAddress         = "192.168.0.16"
	DefaultBrightness      = 10
	DefaultTemperature     = 3000
	DefaultDiscoverTimeout = 3 * time.Second
)

// Intent is one parsed command. The set of implementations is closed.
type Intent interface {
	Command() string
	intent()
}

// DeviceIntent is an Intent addressed to one light.
type DeviceIntent interface {
	Intent
	DeviceAddress() netip.Addr
}

type Target struct {
	Address netip.Addr
}

func (t Target) DeviceAddress() netip.Addr {
	return t.Address
}

type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatPrometheus Format = "prometheus"
)

type On struct {
	Target
	Brightness  uint8
	Temperature uint32
}

type Off struct {
	Target
}

// AdjustBrightness changes brightness relative to the current value.
type AdjustBrightness struct {
	Target
	Delta int8
}

type SetTemperature struct {
	Target
	Temperature uint32
}

type Status struct {
	Target
	Format Format
}

type Info struct {
	Target
	Format Format
}

// Discover lists lights on the local network. It has no target.
type Discover struct {
	Timeout time.Duration
	Format  Format
}

func (On) Command() string               { return "on" }
func (Off) Command() string              { return "off" }
func (AdjustBrightness) Command() string { return "brightness" }
func (SetTemperature) Command() string   { return "temperature" }
func (Status) Command() string           { return "status" }
func (Info) Command() string             { return "info" }
func (Discover) Command() string         { return "discover" }

func (On) intent()               {}
func (Off) intent()              {}
func (AdjustBrightness) intent() {}
func (SetTemperature) intent()   {}
func (Status) intent()           {}
func (Info) intent()             {}
func (Discover) intent()         {}
