package intent

import "fmt"

func Usage(program string) string {
	return fmt.Sprintf(`Usage: %[1]s [--config FILE] [-v] <command> [flags]

Commands:
  on           Turn the light on with the given brightness and temperature
                 -b, --brightness N    brightness in percent (default %[2]d)
                 -t, --temperature N   temperature in Kelvin (default %[3]d)
  off          Turn the light off
  brightness   Change brightness by DELTA percent (-100 to 100)
                 %[1]s brightness -20
  temperature  Set the temperature in Kelvin
                 %[1]s temperature 4500
  status       Print power, brightness and temperature
                 -o, --output FORMAT   text, json, yaml or prometheus
  info         Print product name, display name and firmware
                 -o, --output FORMAT   text, json, yaml or prometheus
  discover     List lights announced over mDNS
                 --timeout DURATION    default %[4]s
                 -o, --output FORMAT   text, json or yaml

Every command except discover accepts:
  -i, --ip-address ADDR   IPv4 address of the light (default from config, else %[5]s)
`, program, DefaultBrightness, DefaultTemperature, DefaultDiscoverTimeout, DefaultAddress)
}
