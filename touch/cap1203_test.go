package touch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/captouch/bitfield"
)

type registerWrite struct {
	register byte
	value    byte
}

// fakeBus emulates the CAP1203 register file behind the wire protocol the
// driver speaks: a 1-byte write sets the register pointer, a 2-byte write
// stores a register, a read returns the register behind the pointer.
type fakeBus struct {
	t         *testing.T
	registers map[byte]byte
	pointer   byte
	writes    []registerWrite
	reads     int
}

func newFakeBus(t *testing.T) *fakeBus {
	return &fakeBus{t: t, registers: map[byte]byte{}}
}

func (b *fakeBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	assert.Equal(b.t, byte(DefaultAddress), address)
	switch len(buffer) {
	case 1:
		b.pointer = buffer[0]
	case 2:
		b.registers[buffer[0]] = buffer[1]
		b.writes = append(b.writes, registerWrite{register: buffer[0], value: buffer[1]})
	default:
		b.t.Errorf("unexpected write length %d", len(buffer))
	}
	return nil
}

func (b *fakeBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	assert.Equal(b.t, byte(DefaultAddress), address)
	b.reads++
	buffer[0] = b.registers[b.pointer]
	return nil
}

func (b *fakeBus) Release(ctx context.Context) error { return nil }

// lastWrite returns the most recent register write, failing the test when
// none happened.
func (b *fakeBus) lastWrite() registerWrite {
	require.NotEmpty(b.t, b.writes)
	return b.writes[len(b.writes)-1]
}

// connected builds a driver over the fake bus, skipping over the bring-up
// writes so individual tests start from a clean write log.
func connected(t *testing.T, bus *fakeBus) *CAP1203 {
	sensor, err := Connect(context.Background(), bus)
	require.NoError(t, err)
	bus.writes = nil
	bus.reads = 0
	return sensor
}

// downBus fails every transaction, as an absent device would.
type downBus struct {
	reads  int
	writes int
}

func (b *downBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.reads++
	return errors.New("remote i/o error")
}

func (b *downBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.writes++
	return errors.New("remote i/o error")
}

func (b *downBus) Release(ctx context.Context) error { return nil }

func TestConnect_BringUp(t *testing.T) {
	bus := newFakeBus(t)
	bus.registers[regSensitivityControl] = 0x2F // power-on default
	bus.registers[regMainControl] = 0x01        // pending interrupt latch

	sensor, err := Connect(context.Background(), bus)
	require.NoError(t, err)
	require.NotNil(t, sensor)

	// interrupts enabled on all three pads
	assert.Equal(t, byte(0b111), bus.registers[regInterruptEnable])
	// sensitivity field set to x2, surrounding bits preserved
	assert.Equal(t, byte(0x06), bitfield.Get(bus.registers[regSensitivityControl], 4, 3))
	assert.Equal(t, byte(0x6F), bus.registers[regSensitivityControl])
	// pending latch cleared
	assert.Equal(t, byte(0x00), bus.registers[regMainControl]&0x01)
}

func TestConnect_InvalidAddress(t *testing.T) {
	bus := newFakeBus(t)
	_, err := Connect(context.Background(), bus, WithAddress(0x29))
	assert.ErrorIs(t, err, ErrInvalidAddress)
	// rejected before any bus transaction
	assert.Zero(t, bus.reads)
	assert.Empty(t, bus.writes)
}

func TestConnect_NilBus(t *testing.T) {
	_, err := Connect(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidBus)
}

func TestConnect_ProbeExhausted(t *testing.T) {
	bus := &downBus{}
	_, err := Connect(context.Background(), bus)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, connectAttempts, bus.reads)
	assert.Zero(t, bus.writes)
}

func TestGetTouched_ClearsLatchOnTouch(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)

	bus.registers[regSensorInputStatus] = 0b010
	bus.registers[regMainControl] = 0x01

	pads, err := sensor.GetTouched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PadMiddle, pads)
	assert.Equal(t, registerWrite{register: regMainControl, value: 0x00}, bus.lastWrite())

	// no touch, no latch write
	bus.registers[regSensorInputStatus] = 0b000
	bus.writes = nil
	pads, err = sensor.GetTouched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Pad(0), pads)
	assert.Empty(t, bus.writes)
}

func TestCheckTouched_NeverClearsLatch(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)

	bus.registers[regSensorInputStatus] = 0b111
	bus.registers[regMainControl] = 0x01

	pads, err := sensor.CheckTouched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AllPads, pads)
	assert.Empty(t, bus.writes)
	assert.Equal(t, byte(0x01), bus.registers[regMainControl])
}

func TestIsPadTouched(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	bus.registers[regSensorInputStatus] = 0b101
	bus.registers[regMainControl] = 0x01

	left, err := sensor.IsLeftTouched(ctx)
	require.NoError(t, err)
	assert.True(t, left)
	assert.Equal(t, byte(0x00), bus.registers[regMainControl]&0x01)

	bus.registers[regMainControl] = 0x01
	right, err := sensor.IsRightTouched(ctx)
	require.NoError(t, err)
	assert.True(t, right)
	assert.Equal(t, byte(0x00), bus.registers[regMainControl]&0x01)

	bus.registers[regMainControl] = 0x01
	bus.writes = nil
	middle, err := sensor.IsMiddleTouched(ctx)
	require.NoError(t, err)
	assert.False(t, middle)
	// negative result leaves the latch alone
	assert.Empty(t, bus.writes)
	assert.Equal(t, byte(0x01), bus.registers[regMainControl])
}

func TestIsTouched(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	bus.registers[regGeneralStatus] = 0x01
	bus.registers[regMainControl] = 0x01
	touched, err := sensor.IsTouched(ctx)
	require.NoError(t, err)
	assert.True(t, touched)
	assert.Equal(t, byte(0x00), bus.registers[regMainControl]&0x01)

	bus.registers[regGeneralStatus] = 0x00
	bus.writes = nil
	touched, err = sensor.IsTouched(ctx)
	require.NoError(t, err)
	assert.False(t, touched)
	assert.Empty(t, bus.writes)
}

func TestClearInterrupt_Idempotent(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	bus.registers[regMainControl] = 0b00110001
	require.NoError(t, sensor.ClearInterrupt(ctx))
	after := bus.registers[regMainControl]
	assert.Equal(t, byte(0b00110000), after)

	require.NoError(t, sensor.ClearInterrupt(ctx))
	assert.Equal(t, after, bus.registers[regMainControl])
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name     string
		general  byte
		baseOut  byte
		calib    byte
		expected Pad
	}{
		{name: "healthy", general: 0x00, expected: 0},
		{name: "base count out of limit", general: 1 << 6, baseOut: 0b011, expected: PadLeft | PadMiddle},
		{name: "calibration failed", general: 1 << 5, calib: 0b100, expected: PadRight},
		{name: "both faults", general: 1<<6 | 1<<5, baseOut: 0b001, calib: 0b100, expected: PadLeft | PadRight},
		{name: "flag set but no pad reported", general: 1 << 6, baseOut: 0, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := newFakeBus(t)
			sensor := connected(t, bus)
			bus.registers[regGeneralStatus] = test.general
			bus.registers[regBaseCountOut] = test.baseOut
			bus.registers[regCalibrationActivate] = test.calib

			pads, err := sensor.CheckStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, test.expected, pads)
			// informational only, nothing written
			assert.Empty(t, bus.writes)
		})
	}
}

func TestReset(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)

	require.NoError(t, sensor.Reset(context.Background()))
	// blind command write, no read-modify-write
	assert.Zero(t, bus.reads)
	assert.Equal(t, []registerWrite{{register: regCalibrationActivate, value: 0x07}}, bus.writes)
}

func TestSensitivity(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	bus.registers[regSensitivityControl] = 0x0F
	require.NoError(t, sensor.SetSensitivity(ctx, Sensitivity8x))
	// field replaced, base shift bits preserved
	assert.Equal(t, byte(0x4F), bus.registers[regSensitivityControl])

	got, err := sensor.GetSensitivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, Sensitivity8x, got)
}

func TestInterruptEnable_ReplacesField(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	require.NoError(t, sensor.SetInterruptEnablePads(ctx, PadLeft|PadRight))
	got, err := sensor.GetInterruptEnable(ctx)
	require.NoError(t, err)
	assert.Equal(t, PadLeft|PadRight, got)

	// a second call replaces, it does not merge
	require.NoError(t, sensor.SetInterruptEnablePads(ctx, PadMiddle))
	got, err = sensor.GetInterruptEnable(ctx)
	require.NoError(t, err)
	assert.Equal(t, PadMiddle, got)

	require.NoError(t, sensor.SetInterruptEnableAll(ctx, false))
	got, err = sensor.GetInterruptEnable(ctx)
	require.NoError(t, err)
	assert.Equal(t, Pad(0), got)
}

func TestPowerButton(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	require.NoError(t, sensor.SetPowerButtonPad(ctx, PadMiddle))
	pad, err := sensor.GetPowerButtonPad(ctx)
	require.NoError(t, err)
	assert.Equal(t, PadMiddle, pad)

	require.NoError(t, sensor.SetPowerButtonTime(ctx, PowerTime1120ms))
	dur, err := sensor.GetPowerButtonTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, PowerTime1120ms, dur)

	require.NoError(t, sensor.SetPowerButtonEnabled(ctx, true))
	enabled, err := sensor.GetPowerButtonEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	// enable bit and time field live in the same register
	assert.Equal(t, byte(0b110), bus.registers[regPowerButtonConfig])

	require.NoError(t, sensor.SetPowerButtonEnabled(ctx, false))
	assert.Equal(t, byte(0b010), bus.registers[regPowerButtonConfig])
}

func TestIsPowerButtonTouched(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	bus.registers[regGeneralStatus] = 1 << 4
	bus.registers[regMainControl] = 0x01
	touched, err := sensor.IsPowerButtonTouched(ctx)
	require.NoError(t, err)
	assert.True(t, touched)
	assert.Equal(t, byte(0x00), bus.registers[regMainControl]&0x01)

	bus.registers[regGeneralStatus] = 0x00
	bus.writes = nil
	touched, err = sensor.IsPowerButtonTouched(ctx)
	require.NoError(t, err)
	assert.False(t, touched)
	assert.Empty(t, bus.writes)
}

func TestSwipes_Unimplemented(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	assert.False(t, sensor.IsLeftSwipe(ctx))
	assert.False(t, sensor.IsRightSwipe(ctx))
	assert.Zero(t, bus.reads)
	assert.Empty(t, bus.writes)
}

func TestThresholds(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	require.NoError(t, sensor.SetThreshold(ctx, PadLeft|PadRight, 0x40))
	assert.Equal(t, byte(0x40), bus.registers[regSensorInput1Thresh])
	assert.Equal(t, byte(0x00), bus.registers[regSensorInput2Thresh])
	assert.Equal(t, byte(0x40), bus.registers[regSensorInput3Thresh])

	got, err := sensor.Threshold(ctx, PadRight)
	require.NoError(t, err)
	assert.Equal(t, byte(0x40), got)

	_, err = sensor.Threshold(ctx, PadLeft|PadRight)
	assert.Error(t, err)
}

func TestDeltaCounts(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)

	bus.registers[regSensorInput1Delta] = 0x10
	bus.registers[regSensorInput2Delta] = 0xFF // -1 two's complement
	bus.registers[regSensorInput3Delta] = 0x80 // -128

	delta, err := sensor.DeltaCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DeltaCount{Left: 16, Middle: -1, Right: -128}, delta)
}

func TestIdentify(t *testing.T) {
	bus := newFakeBus(t)
	sensor := connected(t, bus)
	ctx := context.Background()

	bus.registers[regProductID] = ProductID
	bus.registers[regManufacturerID] = ManufacturerID
	bus.registers[regRevision] = 0x10

	id, err := sensor.Identify(ctx)
	require.NoError(t, err)
	assert.Equal(t, Identity{Product: 0x6D, Manufacturer: 0x5D, Revision: 0x10}, id)

	bus.registers[regProductID] = 0x00
	_, err = sensor.Identify(ctx)
	assert.Error(t, err)
}

func TestPadString(t *testing.T) {
	tests := []struct {
		pads     Pad
		expected string
	}{
		{0, "none"},
		{PadLeft, "left"},
		{PadMiddle, "middle"},
		{PadLeft | PadRight, "left|right"},
		{AllPads, "left|middle|right"},
	}
	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			assert.Equal(t, test.expected, test.pads.String())
		})
	}
}

// MockI2CBus is a testify mock of captouch.I2CBus for error-path tests.
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestErrorPropagation(t *testing.T) {
	addr := byte(DefaultAddress)
	tests := []struct {
		name          string
		setupMock     func(*MockI2CBus)
		call          func(*CAP1203, context.Context) error
		expectedError string
	}{
		{
			name: "register pointer write fails",
			setupMock: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, addr, []byte{regSensorInputStatus}).
					Return(errors.New("i2c write failed")).Once()
			},
			call: func(s *CAP1203, ctx context.Context) error {
				_, err := s.CheckTouched(ctx)
				return err
			},
			expectedError: "cap1203: could not set register pointer 0x3: i2c write failed",
		},
		{
			name: "register read fails",
			setupMock: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, addr, []byte{regSensorInputStatus}).
					Return(nil).Once()
				bus.On("ReadFromAddr", mock.Anything, addr, mock.Anything).
					Return(nil, errors.New("i2c read failed")).Once()
			},
			call: func(s *CAP1203, ctx context.Context) error {
				_, err := s.CheckTouched(ctx)
				return err
			},
			expectedError: "cap1203: could not read register 0x3: i2c read failed",
		},
		{
			name: "write back fails mid read-modify-write",
			setupMock: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, addr, []byte{regSensitivityControl}).
					Return(nil).Once()
				bus.On("ReadFromAddr", mock.Anything, addr, mock.Anything).
					Return([]byte{0x2F}, nil).Once()
				bus.On("WriteToAddr", mock.Anything, addr, []byte{regSensitivityControl, 0x6F}).
					Return(errors.New("i2c write failed")).Once()
			},
			call: func(s *CAP1203, ctx context.Context) error {
				return s.SetSensitivity(ctx, Sensitivity2x)
			},
			expectedError: "cap1203: could not write register 0x1f: i2c write failed",
		},
		{
			name: "reset write fails",
			setupMock: func(bus *MockI2CBus) {
				bus.On("WriteToAddr", mock.Anything, addr, []byte{regCalibrationActivate, byte(0x07)}).
					Return(errors.New("i2c write failed")).Once()
			},
			call: func(s *CAP1203, ctx context.Context) error {
				return s.Reset(ctx)
			},
			expectedError: "cap1203: could not write register 0x26: i2c write failed",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := new(MockI2CBus)
			test.setupMock(bus)
			// bypass Connect: error-path tests exercise one operation each
			sensor := &CAP1203{transport: bus, address: DefaultAddress, buf: make([]byte, 1)}

			err := test.call(sensor, context.Background())
			assert.Error(t, err)
			assert.Contains(t, err.Error(), test.expectedError)
			bus.AssertExpectations(t)
		})
	}
}
