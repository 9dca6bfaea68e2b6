package main

import (
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/captouch/cmd/captouch/console"
)

var touchCmd = cli.Command{
	Name: "touch",
	Subcommands: []*cli.Command{
		&touchReadCmd,
		&touchWatchCmd,
		&touchDeltaCmd,
	},
}

var touchReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read touched pads once and clear the interrupt latch",
	Flags:   adapterFlags(),
	Action: func(c *cli.Context) error {
		sensor, ctx, err := connectSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		pads, err := sensor.GetTouched(ctx)
		if err != nil {
			return console.Exit(1, "error reading touch status: %s", console.Red(err))
		}
		console.PInfof(console.PictoTouch, "touched: %s", console.White(pads))
		return nil
	},
}

var touchWatchCmd = cli.Command{
	Name:  "watch",
	Usage: "poll the sensor and report touches until interrupted",
	Flags: append(adapterFlags(),
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Value:   100 * time.Millisecond,
		},
	),
	Action: func(c *cli.Context) error {
		sensor, ctx, err := connectSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.Infof("watching pads every %s, ctrl-c to stop", c.Duration("interval"))
		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		for {
			select {
			case <-c.Context.Done():
				return nil
			case <-ticker.C:
			}
			pads, err := sensor.GetTouched(ctx)
			if err != nil {
				console.Errorf("read error: %s", console.Red(err))
				continue
			}
			if pads != 0 {
				console.PInfof(console.PictoTouch, "%s", console.White(pads))
			}
		}
	},
}

var touchDeltaCmd = cli.Command{
	Name:  "delta",
	Usage: "dump per-pad delta counts",
	Flags: adapterFlags(),
	Action: func(c *cli.Context) error {
		sensor, ctx, err := connectSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		delta, err := sensor.DeltaCounts(ctx)
		if err != nil {
			return console.Exit(1, "error reading delta counts: %s", console.Red(err))
		}
		out, err := yaml.Marshal(delta)
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		console.Printf("%s", out)
		return nil
	},
}
