package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dukex/scenarios/pkg/cmd"
	"github.com/dukex/scenarios/pkg/log"
	"github.com/dukex/scenarios/pkg/services"
)

var ErrInvalidScenarios = errors.New("invalid scenarios found")

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the graph of every stored scenario",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "owner-id",
				Usage: "Only validate scenarios of this owner",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api").With("action", "validate")

			cfg := cmd.ConfigFromCommand(serviceName, command)
			cfg.WithoutVault = true

			rt, err := cmd.NewRuntime(ctx, logger, cfg)
			if err != nil {
				return err
			}

			defer func() {
				if err := rt.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close runtime", "error", err)
				}
			}()

			return validateScenarios(ctx, os.Stdout, rt.Scenarios, command.String("owner-id"))
		},
	}
}

func validateScenarios(ctx context.Context, out io.Writer, scenarios *services.Scenario, ownerID string) error {
	list, err := scenarios.List(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to fetch scenarios: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Scenario Validation Results:")
	_, _ = fmt.Fprintln(out, "============================")

	invalid := 0

	for _, scenario := range list {
		result, err := scenarios.ValidateScenario(ctx, scenario.ID)
		if err != nil {
			return fmt.Errorf("failed to validate scenario %s: %w", scenario.ID, err)
		}

		if result.Valid {
			_, _ = fmt.Fprintf(out, "  ✓ %s (%s)\n", scenario.Name, scenario.ID)

			continue
		}

		invalid++

		_, _ = fmt.Fprintf(out, "  ✗ %s (%s)\n", scenario.Name, scenario.ID)
		for _, problem := range result.Errors {
			_, _ = fmt.Fprintf(out, "      - %s\n", problem)
		}
	}

	_, _ = fmt.Fprintf(out, "\nTotal: %d valid, %d invalid\n", len(list)-invalid, invalid)

	if invalid > 0 {
		return fmt.Errorf("%w: %d", ErrInvalidScenarios, invalid)
	}

	return nil
}
