// Package report renders results for stdout in the format picked on the
// command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"keylightctl/internal/discovery"
	"keylightctl/internal/intent"
	"keylightctl/internal/lights"
)

type stateDoc struct {
	Address            string `json:"address" yaml:"address"`
	lights.DeviceState `yaml:",inline"`
}

type accessoryDoc struct {
	Address          string `json:"address" yaml:"address"`
	lights.Accessory `yaml:",inline"`
}

func State(w io.Writer, f intent.Format, addr netip.Addr, s lights.DeviceState) error {
	switch f {
	case intent.FormatJSON:
		return writeJSON(w, stateDoc{Address: addr.String(), DeviceState: s})
	case intent.FormatYAML:
		return writeYAML(w, stateDoc{Address: addr.String(), DeviceState: s})
	case intent.FormatPrometheus:
		return writeStateMetrics(w, addr, s)
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", addr, s)
	return err
}

func Accessory(w io.Writer, f intent.Format, addr netip.Addr, a lights.Accessory) error {
	switch f {
	case intent.FormatJSON:
		return writeJSON(w, accessoryDoc{Address: addr.String(), Accessory: a})
	case intent.FormatYAML:
		return writeYAML(w, accessoryDoc{Address: addr.String(), Accessory: a})
	case intent.FormatPrometheus:
		return writeAccessoryMetrics(w, addr, a)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Address:\t%s\n", addr)
	fmt.Fprintf(tw, "Name:\t%s\n", a.DisplayName)
	fmt.Fprintf(tw, "Product:\t%s\n", a.ProductName)
	fmt.Fprintf(tw, "Firmware:\t%s\n", a.FirmwareVersion)
	return tw.Flush()
}

func Discovered(w io.Writer, f intent.Format, found []discovery.Light) error {
	if found == nil {
		found = []discovery.Light{}
	}
	switch f {
	case intent.FormatJSON:
		return writeJSON(w, found)
	case intent.FormatYAML:
		return writeYAML(w, found)
	}
	if len(found) == 0 {
		_, err := fmt.Fprintln(w, "no lights found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tPORT\tNAME\tSOURCE")
	for _, l := range found {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", l.Address, l.Port, l.Name, l.Source)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
