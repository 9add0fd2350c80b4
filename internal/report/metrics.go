package report

import (
	"io"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"keylightctl/internal/lights"
)

// Output is meant for the node_exporter textfile collector.
func writeStateMetrics(w io.Writer, addr netip.Addr, s lights.DeviceState) error {
	reg := prometheus.NewRegistry()

	power := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keylight_power_on",
			Help: "Whether the light is on (1) or off (0).",
		},
		[]string{"address"})
	brightness := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keylight_brightness_percent",
			Help: "Current brightness in percent.",
		},
		[]string{"address"},
	)
	temperature := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keylight_temperature_kelvin",
			Help: "Current colour temperature in Kelvin.",
		},
		[]string{"address"},
	)
	reg.MustRegister(power)
	reg.MustRegister(brightness)
	reg.MustRegister(temperature)

	a := addr.String()
	on := 0.0
	if s.On {
		on = 1
	}
	power.WithLabelValues(a).Set(on)
	brightness.WithLabelValues(a).Set(float64(s.Brightness))
	temperature.WithLabelValues(a).Set(float64(s.Temperature))

	return writeRegistry(w, reg)
}

func writeAccessoryMetrics(w io.Writer, addr netip.Addr, acc lights.Accessory) error {
	reg := prometheus.NewRegistry()

	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keylight_accessory_info",
			Help: "Accessory metadata reported by the light.",
		},
		[]string{"address", "name", "product", "firmware"},
	)
	reg.MustRegister(info)
	info.WithLabelValues(addr.String(), acc.DisplayName, acc.ProductName, acc.FirmwareVersion).Set(1)

	return writeRegistry(w, reg)
}

func writeRegistry(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
