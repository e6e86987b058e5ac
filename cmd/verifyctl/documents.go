package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/kirillkom/shop-verification/internal/core/domain"
	"github.com/kirillkom/shop-verification/internal/core/ports"
	"github.com/kirillkom/shop-verification/internal/core/usecase"
)

var docsCommand = &cli.Command{
	Name:  "docs",
	Usage: "Upload and review shop documents",
	Subcommands: []*cli.Command{
		{
			Name:      "list",
			Usage:     "List every document record of a shop",
			ArgsUsage: "<shop-id>",
			Action: func(c *cli.Context) error {
				id, err := idArg(c, 0, "shop-id")
				if err != nil {
					return err
				}
				docs, err := newClient(c).ListDocuments(c.Context, id)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, docs)
			},
		},
		{
			Name:      "upload",
			Usage:     "Upload a document file",
			ArgsUsage: "<shop-id> <file>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Usage: "Document type, e.g. PAN_CARD", Required: true},
				&cli.StringFlag{Name: "name", Usage: "Display name, defaults to the type label"},
				&cli.Int64Flag{Name: "max-bytes", Value: domain.MaxUploadBytes},
			},
			Action: uploadDocument,
		},
		reviewCommand("verify", "Mark a pending document verified", domain.VerificationVerified),
		reviewCommand("reject", "Reject a pending document", domain.VerificationRejected),
		{
			Name:      "delete",
			Usage:     "Delete a document and its file (the verified evidence of an approved shop is kept)",
			ArgsUsage: "<document-id>",
			Action: func(c *cli.Context) error {
				id, err := idArg(c, 0, "document-id")
				if err != nil {
					return err
				}
				if err := newClient(c).DeleteDocument(c.Context, id); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "document %d deleted\n", id)
				return nil
			},
		},
	},
}

func reviewCommand(name, usage string, status domain.VerificationStatus) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<document-id>",
		Flags:     []cli.Flag{&cli.StringFlag{Name: "notes"}},
		Action: func(c *cli.Context) error {
			id, err := idArg(c, 0, "document-id")
			if err != nil {
				return err
			}
			doc, err := newClient(c).SetVerification(c.Context, id, status, c.String("notes"))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, doc)
		},
	}
}

func uploadDocument(c *cli.Context) error {
	shopID, err := idArg(c, 0, "shop-id")
	if err != nil {
		return err
	}
	path := c.Args().Get(1)
	if path == "" {
		return cli.Exit("missing file argument", 2)
	}
	docType, err := domain.ParseDocumentType(c.String("type"))
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}

	session := usecase.StartUpload(c.Context, newClient(c), ports.UploadRequest{
		ShopID:       shopID,
		DocumentType: docType,
		DocumentName: c.String("name"),
		Filename:     filepath.Base(path),
		ContentType:  mime.TypeByExtension(filepath.Ext(path)),
		Size:         info.Size(),
		Body:         file,
	}, c.Int64("max-bytes"))

	for p := range session.Progress() {
		fmt.Fprintf(c.App.ErrWriter, "\r%-12s %3d%%", p.State, p.Percent())
	}
	fmt.Fprintln(c.App.ErrWriter)

	doc, err := session.Wait()
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, doc)
}
