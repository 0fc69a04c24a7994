/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/serializer"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

func runCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run an invocation saved by the dry-run runner",
		Description: `Reads an invocation document ({name, options}) in YAML or JSON format,
checks it against the operation catalog and runs it.

# Examples

  toolbox --runner dry-run --output install.yaml ocm-addon install ...
  toolbox run --file install.yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "file",
				Aliases:   []string{"f"},
				Usage:     "Invocation document to run",
				Required:  true,
				TakesFile: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("file")
			rec, err := serializer.FromFile[toolbox.Record](path)
			if err != nil {
				return err
			}

			inv, err := toolbox.FromRecord(*rec)
			if err != nil {
				return fmt.Errorf("invalid invocation in %s: %w", path, err)
			}

			return runInvocation(ctx, cmd, newRunner, inv)
		},
	}
}
