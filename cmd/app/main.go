// Package main provides the entry point for the storage engine CLI.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Jisevind/relayum-storage/cmd/app/commands"
)

var version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "relayum-storage",
		Usage:   "Encrypted per-user object storage engine",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "keygen",
				Usage: "Generate a new metadata encryption key",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunKeygen(commands.DefaultIO())
				},
			},
			{
				Name:  "wrap-key",
				Usage: "Wrap a metadata encryption key with a KMS keeper",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kms-key-uri",
						Required: true,
						Usage:    "gocloud.dev keeper URI (e.g., base64key://..., awskms://...)",
					},
					&cli.StringFlag{
						Name:  "key",
						Usage: "base64 metadata key to wrap (omit to generate a new one)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunWrapKey(ctx, cmd.String("kms-key-uri"), cmd.String("key"), commands.DefaultIO())
				},
			},
			{
				Name:  "unwrap-key",
				Usage: "Unwrap a KMS-wrapped metadata encryption key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kms-key-uri",
						Required: true,
						Usage:    "gocloud.dev keeper URI used to wrap the key",
					},
					&cli.StringFlag{
						Name:     "ciphertext",
						Required: true,
						Usage:    "base64 wrapped key ciphertext",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunUnwrapKey(ctx, cmd.String("kms-key-uri"), cmd.String("ciphertext"), commands.DefaultIO())
				},
			},
			{
				Name:  "put",
				Usage: "Encrypt and store a file for a user",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner user id",
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Path of the file to store",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Original name to record (defaults to the file's base name)",
					},
					&cli.StringFlag{
						Name:  "mime",
						Usage: "Content type to record",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunPut(
						ctx,
						cmd.Int("owner"),
						cmd.String("file"),
						cmd.String("name"),
						cmd.String("mime"),
						commands.DefaultIO(),
					)
				},
			},
			{
				Name:  "cat",
				Usage: "Decrypt an object and stream it to stdout",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner user id",
					},
					&cli.StringFlag{
						Name:     "id",
						Required: true,
						Usage:    "Object file id",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCat(ctx, cmd.Int("owner"), cmd.String("id"), commands.DefaultIO())
				},
			},
			{
				Name:  "stat",
				Usage: "Show an object's decrypted metadata",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner user id",
					},
					&cli.StringFlag{
						Name:     "id",
						Required: true,
						Usage:    "Object file id",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunStat(ctx, cmd.Int("owner"), cmd.String("id"), commands.DefaultIO())
				},
			},
			{
				Name:  "delete",
				Usage: "Securely delete an object",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner user id",
					},
					&cli.StringFlag{
						Name:     "id",
						Required: true,
						Usage:    "Object file id",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunDelete(ctx, cmd.Int("owner"), cmd.String("id"), commands.DefaultIO())
				},
			},
			{
				Name:  "verify",
				Usage: "Run a read-only integrity sweep",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "owner",
						Aliases: []string{"o"},
						Usage:   "Owner user id (omit to sweep all namespaces)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerify(ctx, cmd.Int("owner"), commands.DefaultIO())
				},
			},
			{
				Name:  "stats",
				Usage: "Show a user's storage usage",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner user id",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunStats(ctx, cmd.Int("owner"), commands.DefaultIO())
				},
			},
			{
				Name:  "cleanup-temp",
				Usage: "Remove stale temp staging files",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-age-minutes",
						Usage: "Cutoff age in minutes (defaults to TEMP_MAX_AGE_MINUTES)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCleanupTemp(ctx, cmd.Int("max-age-minutes"), commands.DefaultIO())
				},
			},
			{
				Name:  "sweeper",
				Usage: "Run the background maintenance sweeper",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSweeper(ctx, version)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
