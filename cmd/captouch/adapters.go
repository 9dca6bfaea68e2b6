package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/captouch"
	"github.com/mklimuk/captouch/adapter"
	"github.com/mklimuk/captouch/cmd/captouch/console"
	"github.com/mklimuk/captouch/i2c"
	"github.com/mklimuk/captouch/touch"
)

// adapterFlags are shared by every command that talks to the sensor.
func adapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: mcp2221, generic or nanopi",
			Value:   "mcp2221",
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Usage:   "i2c device for the generic adapter",
			Value:   "/dev/i2c-1",
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "i2c bus number for the nanopi adapter",
			Value: 0,
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}
}

func openBus(c *cli.Context) (captouch.I2CBus, error) {
	switch c.String("adapter") {
	case "mcp2221":
		a := adapter.NewMCP2221()
		if err := a.Init(); err != nil {
			return nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return a, nil
	case "generic":
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return bus, nil
	case "nanopi":
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return adapter.NewGobotBus(npi, c.Int("bus")), nil
	}
	return nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
}

// connectSensor opens the selected bus and brings the sensor up.
func connectSensor(c *cli.Context) (*touch.CAP1203, context.Context, error) {
	ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
	bus, err := openBus(c)
	if err != nil {
		return nil, ctx, err
	}
	sensor, err := touch.Connect(ctx, bus)
	if err != nil {
		return nil, ctx, fmt.Errorf("could not connect to CAP1203: %w", err)
	}
	return sensor, ctx, nil
}
