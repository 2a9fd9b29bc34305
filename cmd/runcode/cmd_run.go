package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"codetrainer/internal/execute/model"
	"codetrainer/pkg/utils/logger"

	"github.com/urfave/cli/v3"
)

var runHwd = &RunRunner{}

type RunRunner struct{}

func (r *RunRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute FILE and print the JSON result",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "language",
				Aliases: []string{"l"},
				Value:   model.DefaultLanguage,
				Usage:   "Language id or alias",
			},
			&cli.StringFlag{
				Name:  "sample",
				Usage: "Sample case text with input/output sections",
			},
			&cli.StringFlag{
				Name:  "sample-file",
				Usage: "Read the sample case from a file",
			},
			&cli.StringFlag{
				Name:  "stdin",
				Usage: "Program input, used when no sample case is given",
			},
		},
		Action: r.run,
	}
}

func (r *RunRunner) run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("exactly one FILE argument is required")
	}
	source, err := os.ReadFile(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	sample, err := sampleCase(cmd)
	if err != nil {
		return err
	}

	svc, err := buildService(cmd.String("config"), cmd.String("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	code := string(source)
	res, err := svc.Execute(ctx, model.ExecutionRequest{
		Code:       &code,
		Language:   cmd.String("language"),
		SampleCase: sample,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// sampleCase picks the sample text from the flags. A bare --stdin becomes an
// input-only sample; sample inputs are single-line.
func sampleCase(cmd *cli.Command) (*string, error) {
	text := cmd.String("sample")
	if path := cmd.String("sample-file"); path != "" {
		if text != "" {
			return nil, errors.New("--sample and --sample-file are mutually exclusive")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sample file: %w", err)
		}
		text = string(data)
	}
	if text == "" {
		stdin := cmd.String("stdin")
		if stdin == "" {
			return nil, nil
		}
		if strings.ContainsAny(stdin, "\r\n") {
			return nil, errors.New("--stdin must be a single line")
		}
		text = "input: " + stdin
	} else if cmd.String("stdin") != "" {
		return nil, errors.New("--stdin cannot be combined with a sample case")
	}
	return &text, nil
}
