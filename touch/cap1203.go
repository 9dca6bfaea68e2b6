package touch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/captouch"
	"github.com/mklimuk/captouch/bitfield"
)

// DefaultAddress is the only 7-bit bus address the CAP1203 responds to.
const DefaultAddress = 0x28

// connectAttempts bounds the presence probe during Connect. Transport errors
// between attempts are swallowed; only full exhaustion surfaces.
const connectAttempts = 5

var ErrInvalidAddress = fmt.Errorf("invalid device address")
var ErrInvalidBus = fmt.Errorf("invalid bus, transport is required")
var ErrNotConnected = fmt.Errorf("device did not respond to presence probe")

// CAP1203 drives the Microchip CAP1203 3-channel capacitive touch sensor.
// Typical usage:
//
//	s, err := touch.Connect(ctx, bus)
//	pads, err := s.GetTouched(ctx)
//
// The sensor keeps two loosely coupled flags: a sticky interrupt latch
// (MAIN_CONTROL bit 0, set on touch events) and live per-pad touch status.
// Queries that report a positive touch clear the latch as a side effect;
// Check* variants never do.
//
// The bus is treated as exclusively owned by one driver instance. A mutex
// keeps this instance's read-modify-write sequences from interleaving, but
// a second writer on the same bus can still race between the two
// transactions.
type CAP1203 struct {
	mx        sync.Mutex
	transport captouch.I2CBus
	address   byte
	buf       []byte
}

type Config struct {
	Address byte
}

type Option func(*Config)

// WithAddress overrides the probed bus address. The CAP1203 ships with a
// single valid address, so anything other than DefaultAddress fails Connect;
// the option exists for board revisions that remap the device.
func WithAddress(address byte) Option {
	return func(c *Config) {
		c.Address = address
	}
}

// Connect validates the transport and address, probes the device and brings
// it into a known state: sensitivity x2, interrupts enabled on all pads,
// interrupt latch cleared.
func Connect(ctx context.Context, bus captouch.I2CBus, opts ...Option) (*CAP1203, error) {
	config := Config{Address: DefaultAddress}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Address != DefaultAddress {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidAddress, config.Address)
	}
	if bus == nil {
		return nil, ErrInvalidBus
	}
	sensor := &CAP1203{
		transport: bus,
		address:   config.Address,
		buf:       make([]byte, 1),
	}
	if err := sensor.probe(ctx); err != nil {
		return nil, err
	}
	if err := sensor.SetSensitivity(ctx, Sensitivity2x); err != nil {
		return nil, fmt.Errorf("could not set initial sensitivity: %w", err)
	}
	if err := sensor.SetInterruptEnableAll(ctx, true); err != nil {
		return nil, fmt.Errorf("could not enable interrupts: %w", err)
	}
	if err := sensor.ClearInterrupt(ctx); err != nil {
		return nil, fmt.Errorf("could not clear pending interrupt: %w", err)
	}
	return sensor, nil
}

// probe checks the device answers on the bus with a lightweight 1-byte read
// (the read data is ignored). Bounded retry, no backoff.
func (s *CAP1203) probe(ctx context.Context) error {
	var err error
	for i := 0; i < connectAttempts; i++ {
		err = s.transport.ReadFromAddr(ctx, s.address, s.buf)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w (%d attempts): %v", ErrNotConnected, connectAttempts, err)
}

// CheckMainControl reads the raw MAIN_CONTROL register.
func (s *CAP1203) CheckMainControl(ctx context.Context) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.readRegister(ctx, regMainControl)
}

// CheckStatus checks the sensor for operational faults. A set BC_OUT bit
// means the base count drifted out of limit for some pad(s); a set
// ACAL_FAIL bit means analog calibration failed for some pad(s). Both are
// reported as warnings, never as errors, and the union of offending pads is
// returned. The interrupt latch is left alone.
func (s *CAP1203) CheckStatus(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	status, err := s.readRegister(ctx, regGeneralStatus)
	if err != nil {
		return 0, err
	}
	var faulty Pad
	if bitfield.GetFlag(status, statusBitBCOutOfLimit) {
		bits, err := s.readBits(ctx, regBaseCountOut, 0, 3)
		if err != nil {
			return faulty, err
		}
		if bits != 0 {
			slog.Warn("base count out of limit", "pads", Pad(bits).String())
			faulty |= Pad(bits)
		}
	}
	if bitfield.GetFlag(status, statusBitACalFail) {
		bits, err := s.readBits(ctx, regCalibrationActivate, 0, 3)
		if err != nil {
			return faulty, err
		}
		if bits != 0 {
			slog.Warn("calibration failed", "pads", Pad(bits).String())
			faulty |= Pad(bits)
		}
	}
	return faulty, nil
}

// Status is the full operational snapshot used by diagnostics.
type Status struct {
	Touched          bool   `yaml:"touched"`
	PowerButton      bool   `yaml:"power_button"`
	BaseCountFault   string `yaml:"base_count_fault"`
	CalibrationFault string `yaml:"calibration_fault"`
	NoiseFlags       string `yaml:"noise_flags"`
}

// Status reads GENERAL_STATUS plus the per-pad fault and noise registers.
// Purely informational; nothing is cleared.
func (s *CAP1203) Status(ctx context.Context) (Status, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	var status Status
	general, err := s.readRegister(ctx, regGeneralStatus)
	if err != nil {
		return status, err
	}
	status.Touched = bitfield.GetFlag(general, statusBitTouch)
	status.PowerButton = bitfield.GetFlag(general, statusBitPowerButton)
	bc, err := s.readBits(ctx, regBaseCountOut, 0, 3)
	if err != nil {
		return status, err
	}
	status.BaseCountFault = Pad(bc).String()
	calib, err := s.readBits(ctx, regCalibrationActivate, 0, 3)
	if err != nil {
		return status, err
	}
	status.CalibrationFault = Pad(calib).String()
	noise, err := s.readBits(ctx, regNoiseFlagStatus, 0, 3)
	if err != nil {
		return status, err
	}
	status.NoiseFlags = Pad(noise).String()
	return status, nil
}

// Reset triggers recalibration on all three pads. Fire and forget; the
// sensor clears the register itself once calibration completes.
func (s *CAP1203) Reset(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.writeRegister(ctx, regCalibrationActivate, calibrateAllPads)
}

func (s *CAP1203) SetSensitivity(ctx context.Context, sensitivity Sensitivity) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.writeBits(ctx, regSensitivityControl, byte(sensitivity), 4, 3)
}

func (s *CAP1203) GetSensitivity(ctx context.Context) (Sensitivity, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	bits, err := s.readBits(ctx, regSensitivityControl, 4, 3)
	return Sensitivity(bits), err
}

// SetInterruptEnablePads enables touch interrupts for exactly the given
// pads; the whole 3-bit field is replaced, not merged.
func (s *CAP1203) SetInterruptEnablePads(ctx context.Context, pads Pad) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.writeBits(ctx, regInterruptEnable, byte(pads), 0, 3)
}

// SetInterruptEnableAll enables or disables interrupts on all three pads.
func (s *CAP1203) SetInterruptEnableAll(ctx context.Context, enable bool) error {
	if enable {
		return s.SetInterruptEnablePads(ctx, AllPads)
	}
	return s.SetInterruptEnablePads(ctx, 0)
}

func (s *CAP1203) GetInterruptEnable(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	bits, err := s.readBits(ctx, regInterruptEnable, 0, 3)
	return Pad(bits), err
}

// ClearInterrupt clears the sticky interrupt latch (MAIN_CONTROL bit 0).
func (s *CAP1203) ClearInterrupt(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.clearInterrupt(ctx)
}

// CheckTouched reads the live per-pad touch status without clearing the
// interrupt latch.
func (s *CAP1203) CheckTouched(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.checkTouched(ctx)
}

// GetTouched reads the live per-pad touch status and, if any pad is
// touched, clears the interrupt latch. This side effect is the protocol
// contract for all positive-touch queries.
func (s *CAP1203) GetTouched(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	pads, err := s.checkTouched(ctx)
	if err != nil {
		return pads, err
	}
	if pads != 0 {
		if err := s.clearInterrupt(ctx); err != nil {
			return pads, err
		}
	}
	return pads, nil
}

// IsTouched reports the aggregate touch flag from GENERAL_STATUS, clearing
// the interrupt latch when it is set.
func (s *CAP1203) IsTouched(ctx context.Context) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	status, err := s.readRegister(ctx, regGeneralStatus)
	if err != nil {
		return false, err
	}
	if !bitfield.GetFlag(status, statusBitTouch) {
		return false, nil
	}
	if err := s.clearInterrupt(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// IsPadTouched reports whether the given single pad is currently touched,
// clearing the interrupt latch on a positive result.
func (s *CAP1203) IsPadTouched(ctx context.Context, pad Pad) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	pads, err := s.checkTouched(ctx)
	if err != nil {
		return false, err
	}
	if !pads.Has(pad) {
		return false, nil
	}
	if err := s.clearInterrupt(ctx); err != nil {
		return true, err
	}
	return true, nil
}

func (s *CAP1203) IsLeftTouched(ctx context.Context) (bool, error) {
	return s.IsPadTouched(ctx, PadLeft)
}

func (s *CAP1203) IsMiddleTouched(ctx context.Context) (bool, error) {
	return s.IsPadTouched(ctx, PadMiddle)
}

func (s *CAP1203) IsRightTouched(ctx context.Context) (bool, error) {
	return s.IsPadTouched(ctx, PadRight)
}

// IsLeftSwipe is not implemented; it warns and reports no swipe rather than
// silently claiming support.
func (s *CAP1203) IsLeftSwipe(ctx context.Context) bool {
	slog.Warn("left swipe detection is not implemented")
	return false
}

// IsRightSwipe is not implemented; it warns and reports no swipe rather
// than silently claiming support.
func (s *CAP1203) IsRightSwipe(ctx context.Context) bool {
	slog.Warn("right swipe detection is not implemented")
	return false
}

// SetPowerButtonPad selects the pad(s) the power button function watches.
func (s *CAP1203) SetPowerButtonPad(ctx context.Context, pads Pad) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.writeBits(ctx, regPowerButton, byte(pads), 0, 3)
}

func (s *CAP1203) GetPowerButtonPad(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	bits, err := s.readBits(ctx, regPowerButton, 0, 3)
	return Pad(bits), err
}

// SetPowerButtonTime sets the hold duration after which a touch on the
// power button pad(s) is reported.
func (s *CAP1203) SetPowerButtonTime(ctx context.Context, time PowerTime) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.writeBits(ctx, regPowerButtonConfig, byte(time), 0, 2)
}

func (s *CAP1203) GetPowerButtonTime(ctx context.Context) (PowerTime, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	bits, err := s.readBits(ctx, regPowerButtonConfig, 0, 2)
	return PowerTime(bits), err
}

func (s *CAP1203) SetPowerButtonEnabled(ctx context.Context, enabled bool) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	current, err := s.readRegister(ctx, regPowerButtonConfig)
	if err != nil {
		return err
	}
	return s.writeRegister(ctx, regPowerButtonConfig, bitfield.SetFlag(current, enabled, 2))
}

func (s *CAP1203) GetPowerButtonEnabled(ctx context.Context) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	current, err := s.readRegister(ctx, regPowerButtonConfig)
	if err != nil {
		return false, err
	}
	return bitfield.GetFlag(current, 2), nil
}

// IsPowerButtonTouched reports the PWR flag from GENERAL_STATUS, clearing
// the interrupt latch when it is set (same contract as IsTouched).
func (s *CAP1203) IsPowerButtonTouched(ctx context.Context) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	status, err := s.readRegister(ctx, regGeneralStatus)
	if err != nil {
		return false, err
	}
	if !bitfield.GetFlag(status, statusBitPowerButton) {
		return false, nil
	}
	if err := s.clearInterrupt(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// SetThreshold sets the touch detection threshold (7-bit count) for every
// pad in the given set.
func (s *CAP1203) SetThreshold(ctx context.Context, pads Pad, threshold byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	for pad, reg := range padThresholdRegisters() {
		if !pads.Has(pad) {
			continue
		}
		if err := s.writeBits(ctx, reg, threshold, 0, 7); err != nil {
			return err
		}
	}
	return nil
}

// Threshold reads the touch detection threshold of a single pad.
func (s *CAP1203) Threshold(ctx context.Context, pad Pad) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	reg, ok := padThresholdRegisters()[pad]
	if !ok {
		return 0, fmt.Errorf("threshold is per-pad, got set %s", pad)
	}
	return s.readBits(ctx, reg, 0, 7)
}

func padThresholdRegisters() map[Pad]byte {
	return map[Pad]byte{
		PadLeft:   regSensorInput1Thresh,
		PadMiddle: regSensorInput2Thresh,
		PadRight:  regSensorInput3Thresh,
	}
}

// DeltaCount holds the signed delta counts of the three pads, the
// difference between the instantaneous and base capacitance counts.
type DeltaCount struct {
	Left   int8 `yaml:"left"`
	Middle int8 `yaml:"middle"`
	Right  int8 `yaml:"right"`
}

// DeltaCounts reads the per-pad delta count registers (two's complement).
func (s *CAP1203) DeltaCounts(ctx context.Context) (DeltaCount, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	var delta DeltaCount
	left, err := s.readRegister(ctx, regSensorInput1Delta)
	if err != nil {
		return delta, err
	}
	middle, err := s.readRegister(ctx, regSensorInput2Delta)
	if err != nil {
		return delta, err
	}
	right, err := s.readRegister(ctx, regSensorInput3Delta)
	if err != nil {
		return delta, err
	}
	delta.Left = int8(left)
	delta.Middle = int8(middle)
	delta.Right = int8(right)
	return delta, nil
}

// Identity holds the fixed device identification registers.
type Identity struct {
	Product      byte `yaml:"product_id"`
	Manufacturer byte `yaml:"manufacturer_id"`
	Revision     byte `yaml:"revision"`
}

// ReadIdentity reads the product, manufacturer and revision registers.
func (s *CAP1203) ReadIdentity(ctx context.Context) (Identity, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	var id Identity
	var err error
	if id.Product, err = s.readRegister(ctx, regProductID); err != nil {
		return id, err
	}
	if id.Manufacturer, err = s.readRegister(ctx, regManufacturerID); err != nil {
		return id, err
	}
	if id.Revision, err = s.readRegister(ctx, regRevision); err != nil {
		return id, err
	}
	return id, nil
}

// Identify reads the identity registers and verifies the product id.
func (s *CAP1203) Identify(ctx context.Context) (Identity, error) {
	id, err := s.ReadIdentity(ctx)
	if err != nil {
		return id, err
	}
	if id.Product != ProductID {
		return id, fmt.Errorf("unexpected product id: %#x (want %#x)", id.Product, ProductID)
	}
	return id, nil
}

func (s *CAP1203) checkTouched(ctx context.Context) (Pad, error) {
	bits, err := s.readBits(ctx, regSensorInputStatus, 0, 3)
	return Pad(bits), err
}

func (s *CAP1203) clearInterrupt(ctx context.Context) error {
	current, err := s.readRegister(ctx, regMainControl)
	if err != nil {
		return err
	}
	return s.writeRegister(ctx, regMainControl, bitfield.SetFlag(current, false, mainControlBitInt))
}

func (s *CAP1203) readBits(ctx context.Context, register byte, offset, width int) (byte, error) {
	current, err := s.readRegister(ctx, register)
	if err != nil {
		return 0, err
	}
	return bitfield.Get(current, offset, width), nil
}

// writeBits is the read-modify-write primitive behind every setter: read
// the current byte, replace the field, write the full byte back. Registers
// are never written blind except Reset and the latch clear.
func (s *CAP1203) writeBits(ctx context.Context, register, value byte, offset, width int) error {
	current, err := s.readRegister(ctx, register)
	if err != nil {
		return err
	}
	return s.writeRegister(ctx, register, bitfield.Set(current, value, offset, width))
}

func (s *CAP1203) readRegister(ctx context.Context, register byte) (byte, error) {
	err := s.transport.WriteToAddr(ctx, s.address, []byte{register})
	if err != nil {
		return 0, fmt.Errorf("cap1203: could not set register pointer %#x: %w", register, err)
	}
	err = s.transport.ReadFromAddr(ctx, s.address, s.buf)
	if err != nil {
		return 0, fmt.Errorf("cap1203: could not read register %#x: %w", register, err)
	}
	return s.buf[0], nil
}

func (s *CAP1203) writeRegister(ctx context.Context, register, value byte) error {
	err := s.transport.WriteToAddr(ctx, s.address, []byte{register, value})
	if err != nil {
		return fmt.Errorf("cap1203: could not write register %#x: %w", register, err)
	}
	return nil
}
