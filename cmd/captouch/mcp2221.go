package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/captouch/adapter"
	"github.com/mklimuk/captouch/cmd/captouch/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 USB-to-I2C bridge maintenance",
	Subcommands: []*cli.Command{
		{
			Name:  "status",
			Usage: "dump the I2C engine status",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
			},
			Action: func(c *cli.Context) error {
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				status, err := adapter.NewMCP2221().Status(ctx)
				if err != nil {
					return console.Exit(1, "error reading adapter status: %s", console.Red(err))
				}
				out, err := yaml.Marshal(status)
				if err != nil {
					return console.Exit(1, "encoding error: %s", console.Red(err))
				}
				console.Printf("%s", out)
				return nil
			},
		},
		{
			Name:  "release",
			Usage: "cancel any in-flight transfer and free the bus",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
			},
			Action: func(c *cli.Context) error {
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				status, err := adapter.NewMCP2221().ReleaseBus(ctx)
				if err != nil {
					return console.Exit(1, "error releasing the bus: %s", console.Red(err))
				}
				out, err := yaml.Marshal(status)
				if err != nil {
					return console.Exit(1, "encoding error: %s", console.Red(err))
				}
				console.Printf("%s", out)
				return nil
			},
		},
	},
}
