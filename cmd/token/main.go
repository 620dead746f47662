// Command token signs bearer tokens for local testing of the journal API.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/AnshRaj112/classroom-journal/internal/auth"
	"github.com/AnshRaj112/classroom-journal/internal/models"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "token",
		Usage: "sign a journal API bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "secret",
				EnvVars:  []string{"JWT_SECRET"},
				Usage:    "HS256 signing secret",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "id",
				Usage:    "user id carried by the token",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "role",
				Value: string(models.RoleTeacher),
				Usage: "teacher or student",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Value: 24 * time.Hour,
				Usage: "token lifetime",
			},
		},
		Action: func(ctx *cli.Context) error {
			identity, err := models.ParseIdentity(ctx.String("id"), ctx.String("role"))
			if err != nil {
				return errors.WithStack(err)
			}
			if ctx.Duration("ttl") <= 0 {
				return errors.New("ttl must be positive")
			}

			token, err := auth.IssueToken(ctx.String("secret"), identity, ctx.Duration("ttl"))
			if err != nil {
				return errors.Wrap(err, "could not sign token")
			}

			fmt.Fprintln(out, token)
			return nil
		},
	}
}
