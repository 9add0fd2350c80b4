package intent

import (
	"errors"
	"io"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Parser holds the values used when a flag is omitted.
type Parser struct {
	DefaultAddress string
}

func Parse(args []string) (Intent, error) {
	return Parser{DefaultAddress: DefaultAddress}.Parse(args)
}

func (p Parser) Parse(args []string) (Intent, error) {
	if len(args) == 0 {
		return nil, &ParseError{Kind: ErrMissingCommand}
	}

	name, rest := args[0], args[1:]
	switch name {
	case "-h", "--help", "help":
		return nil, &ParseError{Kind: ErrHelp}
	case "on":
		return p.parseOn(rest)
	case "off":
		return p.parseOff(rest)
	case "brightness":
		return p.parseBrightness(rest)
	case "temperature":
		return p.parseTemperature(rest)
	case "status":
		return p.parseStatus(rest)
	case "info":
		return p.parseInfo(rest)
	case "discover":
		return p.parseDiscover(rest)
	}
	return nil, &ParseError{Kind: ErrUnknownCommand, Value: name}
}

func (p Parser) parseOn(args []string) (Intent, error) {
	fs, addr := p.deviceFlags("on")
	brightness := fs.StringP("brightness", "b", strconv.Itoa(DefaultBrightness), "brightness in percent (0-100)")
	temperature := fs.StringP("temperature", "t", strconv.Itoa(DefaultTemperature), "colour temperature in Kelvin")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(fs.Args()); err != nil {
		return nil, err
	}

	t, err := p.target(*addr)
	if err != nil {
		return nil, err
	}
	b, err := parseUnsigned("--brightness", *brightness, 8, 100)
	if err != nil {
		return nil, err
	}
	k, err := parseUnsigned("--temperature", *temperature, 32, math.MaxUint32)
	if err != nil {
		return nil, err
	}
	return On{Target: t, Brightness: uint8(b), Temperature: uint32(k)}, nil
}

func (p Parser) parseOff(args []string) (Intent, error) {
	t, err := p.targetOnly("off", args)
	if err != nil {
		return nil, err
	}
	return Off{Target: t}, nil
}

func (p Parser) parseBrightness(args []string) (Intent, error) {
	fs, addr := p.deviceFlags("brightness")
	flags, literals := splitSigned(args)
	if err := parseFlags(fs, flags); err != nil {
		return nil, err
	}

	positional := append(literals, fs.Args()...)
	value, err := onePositional("DELTA", positional)
	if err != nil {
		return nil, err
	}

	t, err := p.target(*addr)
	if err != nil {
		return nil, err
	}
	d, err := parseDelta(value)
	if err != nil {
		return nil, err
	}
	return AdjustBrightness{Target: t, Delta: d}, nil
}

func (p Parser) parseTemperature(args []string) (Intent, error) {
	fs, addr := p.deviceFlags("temperature")
	flagValue := fs.StringP("temperature", "t", "", "colour temperature in Kelvin")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}

	var value string
	switch {
	case fs.Changed("temperature") && len(fs.Args()) > 0:
		return nil, &ParseError{Kind: ErrUnexpectedArgument, Value: fs.Args()[0]}
	case fs.Changed("temperature"):
		value = *flagValue
	default:
		v, err := onePositional("TEMPERATURE", fs.Args())
		if err != nil {
			return nil, err
		}
		value = v
	}

	t, err := p.target(*addr)
	if err != nil {
		return nil, err
	}
	k, err := parseUnsigned("TEMPERATURE", value, 32, math.MaxUint32)
	if err != nil {
		return nil, err
	}
	return SetTemperature{Target: t, Temperature: uint32(k)}, nil
}

func (p Parser) parseStatus(args []string) (Intent, error) {
	t, f, err := p.targetWithFormat("status", args)
	if err != nil {
		return nil, err
	}
	return Status{Target: t, Format: f}, nil
}

func (p Parser) parseInfo(args []string) (Intent, error) {
	t, f, err := p.targetWithFormat("info", args)
	if err != nil {
		return nil, err
	}
	return Info{Target: t, Format: f}, nil
}

func (p Parser) parseDiscover(args []string) (Intent, error) {
	fs := newFlagSet("discover")
	timeout := fs.String("timeout", DefaultDiscoverTimeout.String(), "how long to wait for answers")
	output := fs.StringP("output", "o", string(FormatText), "output format: text, json or yaml")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if err := noPositional(fs.Args()); err != nil {
		return nil, err
	}

	d, err := time.ParseDuration(*timeout)
	if err != nil {
		return nil, &ParseError{Kind: ErrMalformedNumber, Arg: "--timeout", Value: *timeout}
	}
	if d <= 0 {
		return nil, &ParseError{Kind: ErrOutOfRange, Arg: "--timeout", Value: *timeout}
	}
	f, err := parseFormat(*output, FormatText, FormatJSON, FormatYAML)
	if err != nil {
		return nil, err
	}
	return Discover{Timeout: d, Format: f}, nil
}

func (p Parser) targetOnly(name string, args []string) (Target, error) {
	fs, addr := p.deviceFlags(name)
	if err := parseFlags(fs, args); err != nil {
		return Target{}, err
	}
	if err := noPositional(fs.Args()); err != nil {
		return Target{}, err
	}
	return p.target(*addr)
}

func (p Parser) targetWithFormat(name string, args []string) (Target, Format, error) {
	fs, addr := p.deviceFlags(name)
	output := fs.StringP("output", "o", string(FormatText), "output format: text, json, yaml or prometheus")
	if err := parseFlags(fs, args); err != nil {
		return Target{}, "", err
	}
	if err := noPositional(fs.Args()); err != nil {
		return Target{}, "", err
	}
	t, err := p.target(*addr)
	if err != nil {
		return Target{}, "", err
	}
	f, err := parseFormat(*output, FormatText, FormatJSON, FormatYAML, FormatPrometheus)
	if err != nil {
		return Target{}, "", err
	}
	return t, f, nil
}

func (p Parser) deviceFlags(name string) (*pflag.FlagSet, *string) {
	fs := newFlagSet(name)
	addr := fs.StringP("ip-address", "i", p.DefaultAddress, "IPv4 address of the light")
	return fs, addr
}

func (p Parser) target(addr string) (Target, error) {
	a, err := parseAddress(addr)
	if err != nil {
		return Target{}, err
	}
	return Target{Address: a}, nil
}

// parseAddress accepts only dotted-quad IPv4 literals.
func parseAddress(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, &ParseError{Kind: ErrInvalidAddress, Arg: "--ip-address", Value: s}
	}
	if !a.Is4() {
		return netip.Addr{}, &ParseError{Kind: ErrInvalidAddress, Arg: "--ip-address", Value: s}
	}
	return a, nil
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil {
		return nil
	}
	if errors.Is(err, pflag.ErrHelp) {
		return &ParseError{Kind: ErrHelp}
	}
	// Every flag is string-valued, so a known flag can only fail by
	// missing its value.
	if name := undefinedFlag(fs, args); name != "" {
		return &ParseError{Kind: ErrUnknownFlag, Value: name}
	}
	return &ParseError{Kind: ErrMissingArgument, Err: err}
}

// undefinedFlag returns the first flag token in args that fs does not
// define, skipping the values consumed by defined flags.
func undefinedFlag(fs *pflag.FlagSet, args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return ""
		}
		if len(a) < 2 || a[0] != '-' {
			continue
		}

		var (
			f        *pflag.Flag
			hasValue bool
		)
		if strings.HasPrefix(a, "--") {
			var name string
			name, _, hasValue = strings.Cut(a[2:], "=")
			if name == "help" {
				continue
			}
			f = fs.Lookup(name)
		} else {
			if a[1] == 'h' {
				continue
			}
			f = fs.ShorthandLookup(a[1:2])
			hasValue = len(a) > 2
		}
		if f == nil {
			return a
		}
		if !hasValue && f.NoOptDefVal == "" {
			i++
		}
	}
	return ""
}

// splitSigned pulls tokens that start with '-' followed by a digit out of
// args before flag parsing, so "-50" is a value and never a shorthand flag.
func splitSigned(args []string) (flags, literals []string) {
	for i, a := range args {
		if a == "--" {
			literals = append(literals, args[i+1:]...)
			return flags, literals
		}
		if len(a) > 1 && a[0] == '-' && a[1] >= '0' && a[1] <= '9' {
			literals = append(literals, a)
			continue
		}
		flags = append(flags, a)
	}
	return flags, literals
}

func noPositional(args []string) error {
	if len(args) > 0 {
		return &ParseError{Kind: ErrUnexpectedArgument, Value: args[0]}
	}
	return nil
}

func onePositional(name string, args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", &ParseError{Kind: ErrMissingArgument, Arg: name}
	case 1:
		return args[0], nil
	}
	return "", &ParseError{Kind: ErrUnexpectedArgument, Value: args[1]}
}

func parseUnsigned(arg, value string, bits int, limit uint64) (uint64, error) {
	n, err := strconv.ParseUint(value, 10, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &ParseError{Kind: ErrOutOfRange, Arg: arg, Value: value}
		}
		return 0, &ParseError{Kind: ErrMalformedNumber, Arg: arg, Value: value}
	}
	if n > limit {
		return 0, &ParseError{Kind: ErrOutOfRange, Arg: arg, Value: value}
	}
	return n, nil
}

func parseDelta(value string) (int8, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &ParseError{Kind: ErrOutOfRange, Arg: "DELTA", Value: value}
		}
		return 0, &ParseError{Kind: ErrMalformedNumber, Arg: "DELTA", Value: value}
	}
	if n < -100 || n > 100 {
		return 0, &ParseError{Kind: ErrOutOfRange, Arg: "DELTA", Value: value}
	}
	return int8(n), nil
}

func parseFormat(value string, allowed ...Format) (Format, error) {
	for _, f := range allowed {
		if string(f) == value {
			return f, nil
		}
	}
	return "", &ParseError{Kind: ErrInvalidFormat, Arg: "--output", Value: value}
}
