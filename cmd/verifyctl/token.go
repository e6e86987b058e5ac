package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	httpadapter "github.com/kirillkom/shop-verification/internal/adapters/http"
	"github.com/kirillkom/shop-verification/internal/config"
)

func tokenCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint an API token signed with AUTH_JWT_SECRET",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Required: true},
			&cli.StringFlag{Name: "role", Value: httpadapter.RoleReviewer, Usage: "admin, reviewer or viewer"},
			&cli.DurationFlag{Name: "ttl", Value: cfg.AuthTokenTTL},
			&cli.StringFlag{Name: "secret", EnvVars: []string{"AUTH_JWT_SECRET"}, Value: cfg.AuthJWTSecret},
		},
		Action: func(c *cli.Context) error {
			switch role := c.String("role"); role {
			case httpadapter.RoleAdmin, httpadapter.RoleReviewer, httpadapter.RoleViewer:
			default:
				return cli.Exit(fmt.Sprintf("unknown role %q", role), 2)
			}
			token, err := httpadapter.SignToken(c.String("secret"), c.String("subject"), c.String("role"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
