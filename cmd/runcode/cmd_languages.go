package main

import (
	"context"
	"fmt"

	"codetrainer/pkg/utils/logger"

	"github.com/urfave/cli/v3"
)

var languagesHwd = &LanguagesRunner{}

type LanguagesRunner struct{}

func (r *LanguagesRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "languages",
		Usage: "List the configured languages",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "template",
				Usage: "Also print each starter template",
			},
		},
		Action: r.run,
	}
}

func (r *LanguagesRunner) run(ctx context.Context, cmd *cli.Command) error {
	svc, err := buildService(cmd.String("config"), cmd.String("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	for _, lang := range svc.Languages() {
		fmt.Printf("%-8s %s\n", lang.ID, lang.Name)
		if cmd.Bool("template") {
			fmt.Println(lang.Template)
		}
	}
	return nil
}
