package lights

import (
	"context"
	"net/http"
	"net/netip"

	"github.com/mdlayher/keylight"
	"go.uber.org/zap"
)

// ElgatoController drives one light through its HTTP API.
type ElgatoController struct {
	addr   string
	client *keylight.Client
	log    *zap.SugaredLogger
}

func NewElgatoController(addr netip.Addr, port uint16, httpClient *http.Client, log *zap.SugaredLogger) (*ElgatoController, error) {
	return newElgatoController("http://"+netip.AddrPortFrom(addr, port).String(), httpClient, log)
}

func newElgatoController(baseURL string, httpClient *http.Client, log *zap.SugaredLogger) (*ElgatoController, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	client, err := keylight.NewClient(baseURL, httpClient)
	if err != nil {
		return nil, &DeviceError{Op: "connect", Addr: baseURL, Err: err}
	}
	log.Debugf("client created for %s", baseURL)
	return &ElgatoController{
		addr:   baseURL,
		client: client,
		log:    log,
	}, nil
}

func (c *ElgatoController) Addr() string {
	return c.addr
}

func (c *ElgatoController) State(ctx context.Context) (DeviceState, error) {
	l, err := c.firstLight(ctx, "fetch state")
	if err != nil {
		return DeviceState{}, err
	}
	state := DeviceState{
		On:          l.On,
		Brightness:  uint8(clampInt(l.Brightness, 0, MaxBrightness)),
		Temperature: uint32(max(l.Temperature, 0)),
	}
	c.log.Debugf("state of %s: %s", c.addr, state)
	return state, nil
}

func (c *ElgatoController) SetPower(ctx context.Context, on bool) error {
	return c.update(ctx, "set power", func(l *keylight.Light) {
		l.On = on
	})
}

func (c *ElgatoController) SetBrightness(ctx context.Context, brightness uint8) error {
	// The API rejects brightness below 3, so 0..2 map to the dimmest setting.
	b := clampInt(int(brightness), MinBrightness, MaxBrightness)
	if b != int(brightness) {
		c.log.Debugf("brightness %d clamped to %d", brightness, b)
	}
	return c.update(ctx, "set brightness", func(l *keylight.Light) {
		l.Brightness = b
	})
}

func (c *ElgatoController) SetTemperature(ctx context.Context, kelvin uint32) error {
	k := clampInt(int(min(kelvin, MaxKelvin)), MinKelvin, MaxKelvin)
	if k != int(kelvin) {
		c.log.Debugf("temperature %dK clamped to %dK", kelvin, k)
	}
	return c.update(ctx, "set temperature", func(l *keylight.Light) {
		l.Temperature = k
	})
}

func (c *ElgatoController) Accessory(ctx context.Context) (Accessory, error) {
	d, err := c.client.AccessoryInfo(ctx)
	if err != nil {
		return Accessory{}, &DeviceError{Op: "accessory info", Addr: c.addr, Err: err}
	}
	return Accessory{
		DisplayName:     d.DisplayName,
		ProductName:     d.ProductName,
		FirmwareVersion: d.FirmwareVersion,
	}, nil
}

// update writes back the full light list with the first light modified.
// The API has no partial update, so every setter is a read then a write.
func (c *ElgatoController) update(ctx context.Context, op string, fn func(l *keylight.Light)) error {
	ll, err := c.lights(ctx, op)
	if err != nil {
		return err
	}

	fn(ll[0])
	for _, l := range ll {
		normalize(l)
	}

	if err := c.client.SetLights(ctx, ll); err != nil {
		c.log.Debugf("SetLights failed for %s: %v", c.addr, err)
		return &DeviceError{Op: op, Addr: c.addr, Err: err}
	}
	c.log.Debugf("%s applied for %s: on=%v brightness=%d temp=%d", op, c.addr, ll[0].On, ll[0].Brightness, ll[0].Temperature)
	return nil
}

func (c *ElgatoController) firstLight(ctx context.Context, op string) (*keylight.Light, error) {
	ll, err := c.lights(ctx, op)
	if err != nil {
		return nil, err
	}
	return ll[0], nil
}

func (c *ElgatoController) lights(ctx context.Context, op string) ([]*keylight.Light, error) {
	ll, err := c.client.Lights(ctx)
	if err != nil {
		c.log.Debugf("Lights() failed for %s: %v", c.addr, err)
		return nil, &DeviceError{Op: op, Addr: c.addr, Err: err}
	}
	if len(ll) == 0 {
		return nil, &DeviceError{Op: op, Addr: c.addr, Err: ErrNoLights}
	}
	return ll, nil
}

// normalize keeps a light record inside the range the library accepts on
// write; values read back from the device can round just outside it.
func normalize(l *keylight.Light) {
	l.Brightness = clampInt(l.Brightness, MinBrightness, MaxBrightness)
	l.Temperature = clampInt(l.Temperature, MinKelvin, MaxKelvin)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
