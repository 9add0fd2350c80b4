package control

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"keylightctl/internal/intent"
	"keylightctl/internal/lights"
)

type MockLight struct {
	mock.Mock
}

func (m *MockLight) State(ctx context.Context) (lights.DeviceState, error) {
	args := m.Called()
	return args.Get(0).(lights.DeviceState), args.Error(1)
}

func (m *MockLight) SetPower(ctx context.Context, on bool) error {
	return m.Called(on).Error(0)
}

func (m *MockLight) SetBrightness(ctx context.Context, brightness uint8) error {
	return m.Called(brightness).Error(0)
}

func (m *MockLight) SetTemperature(ctx context.Context, kelvin uint32) error {
	return m.Called(kelvin).Error(0)
}

// methods returns the facade calls in the order they were made.
func (m *MockLight) methods() []string {
	var names []string
	for _, c := range m.Calls {
		names = append(names, c.Method)
	}
	return names
}

var target = intent.Target{Address: netip.MustParseAddr("192.168.0.16")}

func TestExecute_On(t *testing.T) {
	m := new(MockLight)
	m.On("SetPower", true).Return(nil).Once()
	m.On("SetBrightness", uint8(40)).Return(nil).Once()
	m.On("SetTemperature", uint32(4200)).Return(nil).Once()

	state, err := New(m).Execute(context.Background(), intent.On{Target: target, Brightness: 40, Temperature: 4200})

	require.NoError(t, err)
	assert.Nil(t, state)
	assert.Equal(t, []string{"SetPower", "SetBrightness", "SetTemperature"}, m.methods())
	m.AssertNotCalled(t, "State")
	m.AssertExpectations(t)
}

func TestExecute_Off(t *testing.T) {
	m := new(MockLight)
	m.On("SetPower", false).Return(nil).Once()

	_, err := New(m).Execute(context.Background(), intent.Off{Target: target})

	require.NoError(t, err)
	assert.Equal(t, []string{"SetPower"}, m.methods())
	m.AssertExpectations(t)
}

func TestExecute_AdjustBrightnessSaturates(t *testing.T) {
	m := new(MockLight)
	m.On("State").Return(lights.DeviceState{On: true, Brightness: 90, Temperature: 4000}, nil).Once()
	m.On("SetBrightness", uint8(100)).Return(nil).Once()

	_, err := New(m).Execute(context.Background(), intent.AdjustBrightness{Target: target, Delta: 50})

	require.NoError(t, err)
	assert.Equal(t, []string{"State", "SetBrightness"}, m.methods())
	m.AssertNotCalled(t, "SetPower", mock.Anything)
	m.AssertExpectations(t)
}

func TestExecute_AdjustBrightnessPowersOnFirst(t *testing.T) {
	m := new(MockLight)
	m.On("State").Return(lights.DeviceState{On: false, Brightness: 20, Temperature: 3000}, nil).Once()
	m.On("SetPower", true).Return(nil).Once()
	m.On("SetBrightness", uint8(0)).Return(nil).Once()

	_, err := New(m).Execute(context.Background(), intent.AdjustBrightness{Target: target, Delta: -30})

	require.NoError(t, err)
	assert.Equal(t, []string{"State", "SetPower", "SetBrightness"}, m.methods())
	m.AssertExpectations(t)
}

func TestExecute_SetTemperaturePowersOnFirst(t *testing.T) {
	m := new(MockLight)
	m.On("State").Return(lights.DeviceState{On: false, Brightness: 20, Temperature: 3000}, nil).Once()
	m.On("SetPower", true).Return(nil).Once()
	m.On("SetTemperature", uint32(5000)).Return(nil).Once()

	_, err := New(m).Execute(context.Background(), intent.SetTemperature{Target: target, Temperature: 5000})

	require.NoError(t, err)
	assert.Equal(t, []string{"State", "SetPower", "SetTemperature"}, m.methods())
	m.AssertExpectations(t)
}

func TestExecute_SetTemperatureAlreadyOn(t *testing.T) {
	m := new(MockLight)
	m.On("State").Return(lights.DeviceState{On: true, Brightness: 20, Temperature: 3000}, nil).Once()
	m.On("SetTemperature", uint32(6500)).Return(nil).Once()

	_, err := New(m).Execute(context.Background(), intent.SetTemperature{Target: target, Temperature: 6500})

	require.NoError(t, err)
	assert.Equal(t, []string{"State", "SetTemperature"}, m.methods())
	m.AssertNotCalled(t, "SetPower", mock.Anything)
}

func TestExecute_Status(t *testing.T) {
	want := lights.DeviceState{On: true, Brightness: 33, Temperature: 2900}
	m := new(MockLight)
	m.On("State").Return(want, nil).Once()

	state, err := New(m).Execute(context.Background(), intent.Status{Target: target, Format: intent.FormatText})

	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, want, *state)
	assert.Equal(t, []string{"State"}, m.methods())
}

func TestExecute_AbortsAfterFailedStep(t *testing.T) {
	deviceErr := &lights.DeviceError{Op: "set brightness", Addr: "http://192.168.0.16:9123", Err: errors.New("connection reset")}
	m := new(MockLight)
	m.On("SetPower", true).Return(nil).Once()
	m.On("SetBrightness", uint8(10)).Return(deviceErr).Once()

	_, err := New(m).Execute(context.Background(), intent.On{Target: target, Brightness: 10, Temperature: 3000})

	require.Error(t, err)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepSetBrightness, stepErr.Step)
	assert.Equal(t, []Step{StepSetPower}, stepErr.Applied)
	assert.True(t, stepErr.Partial())
	assert.ErrorIs(t, err, deviceErr)
	assert.Contains(t, err.Error(), "already applied: set_power")
	m.AssertNotCalled(t, "SetTemperature", mock.Anything)
}

func TestExecute_FailedReadWritesNothing(t *testing.T) {
	readErr := errors.New("timeout")
	m := new(MockLight)
	m.On("State").Return(lights.DeviceState{}, readErr).Once()

	_, err := New(m).Execute(context.Background(), intent.AdjustBrightness{Target: target, Delta: 10})

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepFetchState, stepErr.Step)
	assert.False(t, stepErr.Partial())
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, []string{"State"}, m.methods())
}

func TestExecute_FailedPowerOnSkipsAdjustment(t *testing.T) {
	m := new(MockLight)
	m.On("State").Return(lights.DeviceState{On: false, Brightness: 50}, nil).Once()
	m.On("SetPower", true).Return(errors.New("refused")).Once()

	_, err := New(m).Execute(context.Background(), intent.AdjustBrightness{Target: target, Delta: 10})

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepSetPower, stepErr.Step)
	m.AssertNotCalled(t, "SetBrightness", mock.Anything)
}

func TestExecute_Unsupported(t *testing.T) {
	m := new(MockLight)

	_, err := New(m).Execute(context.Background(), intent.Info{Target: target})

	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Empty(t, m.Calls)
}

func TestClamp(t *testing.T) {
	for c := 0; c <= 100; c++ {
		for d := -100; d <= 100; d++ {
			got := int(Clamp(uint8(c), int8(d)))
			sum := c + d
			switch {
			case sum < 0:
				assert.Equal(t, 0, got)
			case sum > 100:
				assert.Equal(t, 100, got)
			default:
				assert.Equal(t, sum, got)
			}
		}
	}
}
