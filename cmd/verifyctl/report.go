package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var reportCommand = &cli.Command{
	Name:      "report",
	Usage:     "Download the verification report workbook of a shop",
	ArgsUsage: "<shop-id>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, defaults to shop-<id>-verification.xlsx"},
	},
	Action: func(c *cli.Context) error {
		id, err := idArg(c, 0, "shop-id")
		if err != nil {
			return err
		}
		out := c.String("out")
		if out == "" {
			out = fmt.Sprintf("shop-%d-verification.xlsx", id)
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := newClient(c).DownloadReport(c.Context, id, f); err != nil {
			_ = f.Close()
			_ = os.Remove(out)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "report written to %s\n", out)
		return nil
	},
}
