package touch

// CAP1203 register map. Addresses are fixed byte offsets from the datasheet;
// every exposed operation maps to exactly one of them.
const (
	regMainControl           byte = 0x00
	regGeneralStatus         byte = 0x02
	regSensorInputStatus     byte = 0x03
	regNoiseFlagStatus       byte = 0x0A
	regSensorInput1Delta     byte = 0x10
	regSensorInput2Delta     byte = 0x11
	regSensorInput3Delta     byte = 0x12
	regSensitivityControl    byte = 0x1F
	regConfig                byte = 0x20
	regSensorInputEnable     byte = 0x21
	regSensorInputConfig     byte = 0x22
	regSensorInputConfig2    byte = 0x23
	regAveragingSampleConfig byte = 0x24
	regCalibrationActivate   byte = 0x26
	regInterruptEnable       byte = 0x27
	regRepeatRateEnable      byte = 0x28
	regMultipleTouchConfig   byte = 0x2A
	regMultipleTouchPatternC byte = 0x2B
	regMultipleTouchPattern  byte = 0x2D
	regBaseCountOut          byte = 0x2E
	regRecalibrationConfig   byte = 0x2F
	regSensorInput1Thresh    byte = 0x30
	regSensorInput2Thresh    byte = 0x31
	regSensorInput3Thresh    byte = 0x32
	regSensorInputNoiseThr   byte = 0x38
	regStandbyChannel        byte = 0x40
	regStandbyConfig         byte = 0x41
	regStandbySensitivity    byte = 0x42
	regStandbyThresh         byte = 0x43
	regConfig2               byte = 0x44
	regSensorInput1BaseCount byte = 0x50
	regSensorInput2BaseCount byte = 0x51
	regSensorInput3BaseCount byte = 0x52
	regPowerButton           byte = 0x60
	regPowerButtonConfig     byte = 0x61
	regSensorInput1Calib     byte = 0xB1
	regSensorInput2Calib     byte = 0xB2
	regSensorInput3Calib     byte = 0xB3
	regSensorInputCalibLSB1  byte = 0xB9
	regProductID             byte = 0xFD
	regManufacturerID        byte = 0xFE
	regRevision              byte = 0xFF
)

// Identity values reported by a genuine CAP1203.
const (
	ProductID      byte = 0x6D
	ManufacturerID byte = 0x5D
)

// Bit positions within GENERAL_STATUS (0x02).
const (
	statusBitTouch        = 0 // TOUCH: at least one sensor input above threshold
	statusBitPowerButton  = 4 // PWR: power button held for the configured time
	statusBitACalFail     = 5 // ACAL_FAIL: analog calibration failed
	statusBitBCOutOfLimit = 6 // BC_OUT: base count out of limit
)

// Interrupt latch is bit 0 of MAIN_CONTROL.
const mainControlBitInt = 0

// calibrateAllPads triggers recalibration on all three inputs when written
// to CALIBRATION_ACTIVATE (0x26).
const calibrateAllPads byte = 0x07

// Pad is a set of capacitive sensor inputs, one bit per pad. Sets combine
// with | and intersect with &; the zero value is the empty set.
type Pad byte

const (
	PadLeft   Pad = 0x01
	PadMiddle Pad = 0x02
	PadRight  Pad = 0x04

	AllPads = PadLeft | PadMiddle | PadRight
)

// Has reports whether every pad in p is part of the set.
func (p Pad) Has(pad Pad) bool {
	return p&pad == pad && pad != 0
}

func (p Pad) String() string {
	if p == 0 {
		return "none"
	}
	var s string
	if p.Has(PadLeft) {
		s += "left|"
	}
	if p.Has(PadMiddle) {
		s += "middle|"
	}
	if p.Has(PadRight) {
		s += "right|"
	}
	return s[:len(s)-1]
}

// Sensitivity is the touch detection gain multiplier, stored as a 3-bit
// field at offset 4 of SENSITIVITY_CONTROL (0x1F). Higher multipliers
// detect lighter touches.
type Sensitivity byte

const (
	Sensitivity128x Sensitivity = 0x00
	Sensitivity64x  Sensitivity = 0x01
	Sensitivity32x  Sensitivity = 0x02
	Sensitivity16x  Sensitivity = 0x03
	Sensitivity8x   Sensitivity = 0x04
	Sensitivity4x   Sensitivity = 0x05
	Sensitivity2x   Sensitivity = 0x06
	Sensitivity1x   Sensitivity = 0x07
)

func (s Sensitivity) String() string {
	switch s {
	case Sensitivity128x:
		return "x128"
	case Sensitivity64x:
		return "x64"
	case Sensitivity32x:
		return "x32"
	case Sensitivity16x:
		return "x16"
	case Sensitivity8x:
		return "x8"
	case Sensitivity4x:
		return "x4"
	case Sensitivity2x:
		return "x2"
	case Sensitivity1x:
		return "x1"
	}
	return "unknown"
}

// PowerTime is the hold duration after which a touch on the power button
// pad(s) is reported, stored as a 2-bit field at offset 0 of
// POWER_BUTTON_CONFIG (0x61).
type PowerTime byte

const (
	PowerTime280ms  PowerTime = 0x00
	PowerTime560ms  PowerTime = 0x01
	PowerTime1120ms PowerTime = 0x02
	PowerTime2240ms PowerTime = 0x03
)

func (t PowerTime) String() string {
	switch t {
	case PowerTime280ms:
		return "280ms"
	case PowerTime560ms:
		return "560ms"
	case PowerTime1120ms:
		return "1.12s"
	case PowerTime2240ms:
		return "2.24s"
	}
	return "unknown"
}
