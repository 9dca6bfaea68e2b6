package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/captouch/cmd/captouch/console"
)

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "read chip identification registers",
	Flags: adapterFlags(),
	Action: func(c *cli.Context) error {
		sensor, ctx, err := connectSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		id, err := sensor.Identify(ctx)
		if err != nil {
			return console.Exit(1, "chip identification failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoPin, "product: %#x, manufacturer: %#x, revision: %#x",
			id.Product, id.Manufacturer, id.Revision)
		return nil
	},
}
