package main

import (
	"github.com/urfave/cli/v2"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

var catalogCommand = &cli.Command{
	Name:      "catalog",
	Usage:     "Show the documents a business category must submit",
	ArgsUsage: "<category>",
	Action: func(c *cli.Context) error {
		category, err := domain.ParseBusinessCategory(c.Args().First())
		if err != nil {
			return err
		}
		docs, err := newClient(c).RequiredDocuments(c.Context, category)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, docs)
	},
}

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "Show shop counts per approval status",
	Action: func(c *cli.Context) error {
		stats, err := newClient(c).Stats(c.Context)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, stats)
	},
}

var shopsCommand = &cli.Command{
	Name:  "shops",
	Usage: "Register and review shops",
	Subcommands: []*cli.Command{
		{
			Name:  "register",
			Usage: "Register a new shop",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "owner-name"},
				&cli.StringFlag{Name: "owner-email", Required: true},
				&cli.StringFlag{Name: "owner-phone"},
				&cli.StringFlag{Name: "category", Required: true},
			},
			Action: func(c *cli.Context) error {
				shop, err := newClient(c).RegisterShop(c.Context, domain.ShopRegistration{
					Name:       c.String("name"),
					OwnerName:  c.String("owner-name"),
					OwnerEmail: c.String("owner-email"),
					OwnerPhone: c.String("owner-phone"),
					Category:   c.String("category"),
				})
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, shop)
			},
		},
		{
			Name:      "get",
			Usage:     "Show a shop with its status history",
			ArgsUsage: "<shop-id>",
			Action: func(c *cli.Context) error {
				id, err := idArg(c, 0, "shop-id")
				if err != nil {
					return err
				}
				shop, err := newClient(c).GetShop(c.Context, id)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, shop)
			},
		},
		{
			Name:  "list",
			Usage: "List shops, newest first",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "status"},
				&cli.StringFlag{Name: "category"},
				&cli.IntFlag{Name: "limit", Value: 20},
				&cli.IntFlag{Name: "offset"},
			},
			Action: func(c *cli.Context) error {
				filter := domain.ShopFilter{Limit: c.Int("limit"), Offset: c.Int("offset")}
				if raw := c.String("status"); raw != "" {
					status, err := domain.ParseShopStatus(raw)
					if err != nil {
						return err
					}
					filter.Status = status
				}
				if raw := c.String("category"); raw != "" {
					category, err := domain.ParseBusinessCategory(raw)
					if err != nil {
						return err
					}
					filter.Category = category
				}
				shops, err := newClient(c).ListShops(c.Context, filter)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, shops)
			},
		},
		{
			Name:      "progress",
			Usage:     "Show verification progress of a shop",
			ArgsUsage: "<shop-id>",
			Action: func(c *cli.Context) error {
				id, err := idArg(c, 0, "shop-id")
				if err != nil {
					return err
				}
				progress, err := newClient(c).Progress(c.Context, id)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, progress)
			},
		},
		{
			Name:      "status",
			Usage:     "Move a shop to any status",
			ArgsUsage: "<shop-id> <status>",
			Flags:     []cli.Flag{&cli.StringFlag{Name: "notes"}},
			Action: func(c *cli.Context) error {
				status, err := domain.ParseShopStatus(c.Args().Get(1))
				if err != nil {
					return err
				}
				return transitionShop(c, status, c.String("notes"))
			},
		},
		shopTransitionCommand("approve", "Approve a pending or suspended shop", domain.ShopApproved, "notes"),
		shopTransitionCommand("reject", "Reject a pending shop", domain.ShopRejected, "reason"),
		shopTransitionCommand("suspend", "Suspend an approved shop", domain.ShopSuspended, "reason"),
		shopTransitionCommand("reinstate", "Return a suspended shop to review", domain.ShopPending, "notes"),
	},
}

func shopTransitionCommand(name, usage string, to domain.ShopStatus, noteFlag string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<shop-id>",
		Flags:     []cli.Flag{&cli.StringFlag{Name: noteFlag}},
		Action: func(c *cli.Context) error {
			return transitionShop(c, to, c.String(noteFlag))
		},
	}
}

func transitionShop(c *cli.Context, to domain.ShopStatus, notes string) error {
	id, err := idArg(c, 0, "shop-id")
	if err != nil {
		return err
	}
	shop, err := newClient(c).SetShopStatus(c.Context, id, to, notes)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, shop)
}
