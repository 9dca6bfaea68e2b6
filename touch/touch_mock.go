package touch

import (
	"context"
)

// TouchBehaviorFunc defines the function signature for touch behavior.
// It returns the set of currently touched pads or an error.
type TouchBehaviorFunc func(ctx context.Context) (Pad, error)

// MockTouchSensor is a mock implementation of a touch sensor that uses a
// behavior function to produce results without requiring hardware. This can
// be used to mock the CAP1203 in application code.
type MockTouchSensor struct {
	behavior TouchBehaviorFunc
}

// NewMockTouchSensor creates a new mock touch sensor with the given
// behavior function. The behavior is called by every query.
//
// Example usage:
//
//	sensor := NewMockTouchSensor(func(ctx context.Context) (Pad, error) { return PadMiddle, nil })
func NewMockTouchSensor(behavior TouchBehaviorFunc) *MockTouchSensor {
	return &MockTouchSensor{behavior: behavior}
}

// GetTouched returns the touched pad set by calling the behavior function.
func (m *MockTouchSensor) GetTouched(ctx context.Context) (Pad, error) {
	return m.behavior(ctx)
}

// CheckTouched returns the touched pad set by calling the behavior function.
func (m *MockTouchSensor) CheckTouched(ctx context.Context) (Pad, error) {
	return m.behavior(ctx)
}

// IsTouched reports whether the behavior function returns a non-empty set.
func (m *MockTouchSensor) IsTouched(ctx context.Context) (bool, error) {
	pads, err := m.behavior(ctx)
	if err != nil {
		return false, err
	}
	return pads != 0, nil
}

// IsPadTouched reports whether the given pad is in the behavior result.
func (m *MockTouchSensor) IsPadTouched(ctx context.Context, pad Pad) (bool, error) {
	pads, err := m.behavior(ctx)
	if err != nil {
		return false, err
	}
	return pads.Has(pad), nil
}
