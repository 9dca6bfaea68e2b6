package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/captouch/cmd/captouch/console"
	"github.com/mklimuk/captouch/touch"
)

var powerTimes = map[string]touch.PowerTime{
	"280ms":  touch.PowerTime280ms,
	"560ms":  touch.PowerTime560ms,
	"1120ms": touch.PowerTime1120ms,
	"2240ms": touch.PowerTime2240ms,
}

var powerCmd = cli.Command{
	Name:  "power",
	Usage: "power button configuration",
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Flags: adapterFlags(),
			Action: func(c *cli.Context) error {
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				pad, err := sensor.GetPowerButtonPad(ctx)
				if err != nil {
					return console.Exit(1, "error reading power button pad: %s", console.Red(err))
				}
				hold, err := sensor.GetPowerButtonTime(ctx)
				if err != nil {
					return console.Exit(1, "error reading power button hold time: %s", console.Red(err))
				}
				enabled, err := sensor.GetPowerButtonEnabled(ctx)
				if err != nil {
					return console.Exit(1, "error reading power button state: %s", console.Red(err))
				}
				console.PInfof(console.PictoPower, "pad: %s, hold: %s, enabled: %s",
					console.White(pad), console.White(hold), console.White(enabled))
				return nil
			},
		},
		{
			Name:      "pad",
			ArgsUsage: "<left|middle|right>",
			Flags:     adapterFlags(),
			Action: func(c *cli.Context) error {
				pad, err := parsePads(c.Args().First())
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				if err := sensor.SetPowerButtonPad(ctx, pad); err != nil {
					return console.Exit(1, "error setting power button pad: %s", console.Red(err))
				}
				console.PInfof(console.PictoPower, "power button pad set to %s", console.White(pad))
				return nil
			},
		},
		{
			Name:      "time",
			ArgsUsage: "<280ms|560ms|1120ms|2240ms>",
			Flags:     adapterFlags(),
			Action: func(c *cli.Context) error {
				hold, ok := powerTimes[c.Args().First()]
				if !ok {
					return console.Exit(1, "unknown hold time %q", c.Args().First())
				}
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				if err := sensor.SetPowerButtonTime(ctx, hold); err != nil {
					return console.Exit(1, "error setting power button hold time: %s", console.Red(err))
				}
				console.PInfof(console.PictoPower, "power button hold time set to %s", console.White(hold))
				return nil
			},
		},
		{
			Name:      "enable",
			ArgsUsage: "<on|off>",
			Flags:     adapterFlags(),
			Action: func(c *cli.Context) error {
				var enable bool
				switch c.Args().First() {
				case "on":
					enable = true
				case "off":
				default:
					return console.Exit(1, "expected on or off, got %q", c.Args().First())
				}
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				if err := sensor.SetPowerButtonEnabled(ctx, enable); err != nil {
					return console.Exit(1, "error setting power button state: %s", console.Red(err))
				}
				console.PInfof(console.PictoPower, "power button enabled: %s", console.White(enable))
				return nil
			},
		},
		{
			Name:  "touched",
			Flags: adapterFlags(),
			Action: func(c *cli.Context) error {
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				touched, err := sensor.IsPowerButtonTouched(ctx)
				if err != nil {
					return console.Exit(1, "error reading power button: %s", console.Red(err))
				}
				console.PInfof(console.PictoPower, "power button touched: %s", console.White(touched))
				return nil
			},
		},
	},
}
