/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/serializer"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the supported commands and the extra-vars they produce",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			w := serializer.NewWriter(format, cmd.Root().Writer)
			if out := cmd.String(flagOutput); out != "" && out != "-" {
				if w, err = serializer.NewFileWriter(format, out); err != nil {
					return err
				}
			}
			defer w.Close()

			return w.Serialize(ctx, toolbox.Operations())
		},
	}
}
