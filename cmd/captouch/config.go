package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/captouch/cmd/captouch/console"
	"github.com/mklimuk/captouch/touch"
)

var sensitivityLevels = map[string]touch.Sensitivity{
	"x128": touch.Sensitivity128x,
	"x64":  touch.Sensitivity64x,
	"x32":  touch.Sensitivity32x,
	"x16":  touch.Sensitivity16x,
	"x8":   touch.Sensitivity8x,
	"x4":   touch.Sensitivity4x,
	"x2":   touch.Sensitivity2x,
	"x1":   touch.Sensitivity1x,
}

var sensitivityCmd = cli.Command{
	Name:    "sensitivity",
	Aliases: []string{"sens"},
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Flags: adapterFlags(),
			Action: func(c *cli.Context) error {
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				level, err := sensor.GetSensitivity(ctx)
				if err != nil {
					return console.Exit(1, "error reading sensitivity: %s", console.Red(err))
				}
				console.Infof("sensitivity: %s", console.White(level))
				return nil
			},
		},
		{
			Name:      "set",
			ArgsUsage: "<x128|x64|x32|x16|x8|x4|x2|x1>",
			Flags:     adapterFlags(),
			Action: func(c *cli.Context) error {
				level, ok := sensitivityLevels[c.Args().First()]
				if !ok {
					return console.Exit(1, "unknown sensitivity %q", c.Args().First())
				}
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				if err := sensor.SetSensitivity(ctx, level); err != nil {
					return console.Exit(1, "error setting sensitivity: %s", console.Red(err))
				}
				console.Infof("sensitivity set to %s", console.White(level))
				return nil
			},
		},
	},
}

// parsePads turns a comma separated pad list (left,middle,right or all)
// into a pad set.
func parsePads(arg string) (touch.Pad, error) {
	if arg == "all" {
		return touch.AllPads, nil
	}
	var pads touch.Pad
	for _, name := range strings.Split(arg, ",") {
		switch strings.TrimSpace(name) {
		case "left":
			pads |= touch.PadLeft
		case "middle":
			pads |= touch.PadMiddle
		case "right":
			pads |= touch.PadRight
		case "none", "":
		default:
			return 0, fmt.Errorf("unknown pad %q", name)
		}
	}
	return pads, nil
}

var interruptCmd = cli.Command{
	Name:    "interrupt",
	Aliases: []string{"int"},
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Flags: adapterFlags(),
			Action: func(c *cli.Context) error {
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				pads, err := sensor.GetInterruptEnable(ctx)
				if err != nil {
					return console.Exit(1, "error reading interrupt settings: %s", console.Red(err))
				}
				console.Infof("interrupts enabled for: %s", console.White(pads))
				return nil
			},
		},
		{
			Name:      "set",
			ArgsUsage: "<pads: left,middle,right|all|none>",
			Flags:     adapterFlags(),
			Action: func(c *cli.Context) error {
				pads, err := parsePads(c.Args().First())
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				if err := sensor.SetInterruptEnablePads(ctx, pads); err != nil {
					return console.Exit(1, "error setting interrupts: %s", console.Red(err))
				}
				console.Infof("interrupts enabled for: %s", console.White(pads))
				return nil
			},
		},
		{
			Name:  "clear",
			Flags: adapterFlags(),
			Action: func(c *cli.Context) error {
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				if err := sensor.ClearInterrupt(ctx); err != nil {
					return console.Exit(1, "error clearing interrupt: %s", console.Red(err))
				}
				console.Info("interrupt latch cleared")
				return nil
			},
		},
	},
}

var thresholdCmd = cli.Command{
	Name:    "threshold",
	Aliases: []string{"thr"},
	Subcommands: []*cli.Command{
		{
			Name:      "get",
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
				thr, err := sensor.Threshold(ctx, pad)
				if err != nil {
					return console.Exit(1, "error reading threshold: %s", console.Red(err))
				}
				console.Infof("%s threshold: %s", pad, console.White(thr))
				return nil
			},
		},
		{
			Name:      "set",
			ArgsUsage: "<pads> <threshold 0-127>",
			Flags:     adapterFlags(),
			Action: func(c *cli.Context) error {
				pads, err := parsePads(c.Args().First())
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				value, err := strconv.Atoi(c.Args().Get(1))
				if err != nil || value < 0 || value > 127 {
					return console.Exit(1, "invalid threshold %q", c.Args().Get(1))
				}
				sensor, ctx, err := connectSensor(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				if err := sensor.SetThreshold(ctx, pads, byte(value)); err != nil {
					return console.Exit(1, "error setting threshold: %s", console.Red(err))
				}
				console.Infof("threshold for %s set to %s", pads, console.White(value))
				return nil
			},
		},
	},
}
