package captouch

import (
	"context"
	"fmt"
)

// ErrBusBusy is returned by transports whose I2C engine can report an
// in-progress transfer (e.g. the MCP2221 bridge). Callers may release the
// bus and retry.
var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the transport capability the touch driver consumes. Register
// access is always expressed through it; the driver never talks to the wire
// directly, which keeps it testable against a mock bus.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
