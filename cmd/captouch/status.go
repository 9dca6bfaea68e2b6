package main

import (
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/captouch/cmd/captouch/console"
)

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "dump sensor status",
	Flags: adapterFlags(),
	Action: func(c *cli.Context) error {
		sensor, ctx, err := connectSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		status, err := sensor.Status(ctx)
		if err != nil {
			return console.Exit(1, "error reading sensor status: %s", console.Red(err))
		}
		out, err := yaml.Marshal(status)
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		console.Printf("%s", out)
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "recalibrate all pads",
	Flags: append(adapterFlags(),
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	),
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			response, err := console.YesOrNo("recalibrate all pads? keep hands off the sensor")
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			if response != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		sensor, ctx, err := connectSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if err := sensor.Reset(ctx); err != nil {
			return console.Exit(1, "error resetting sensor: %s", console.Red(err))
		}
		console.PInfof(console.PictoFinish, "recalibration triggered")
		return nil
	},
}
