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

const defaultOCMURL = "https://api.openshift.com"

func ocmAddonCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:                  toolbox.GroupOCMAddon,
		EnableShellCompletion: true,
		Usage:                 "Install and remove OpenShift Cluster Manager addons",
		Commands: []*cli.Command{
			ocmAddonInstallCmd(newRunner),
			ocmAddonRemoveCmd(newRunner),
		},
	}
}

// ocmTargetFlags are the flags every addon command needs.
func ocmTargetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "cluster-id",
			Usage:    "Cluster ID from OCM's point of view",
			Sources:  cli.EnvVars("OCM_CLUSTER_ID"),
			Required: true,
		},
		&cli.StringFlag{
			Name:    "url",
			Usage:   "OCM API URL, used to determine the environment",
			Sources: cli.EnvVars("OCM_URL"),
			Value:   defaultOCMURL,
		},
		&cli.StringFlag{
			Name:     "addon-id",
			Usage:    "Addon to manage (e.g. managed-odh, gpu-operator-certified-addon)",
			Required: true,
		},
	}
}

func ocmAddonInstallCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Install an OCM addon",
		Description: `Installs an addon on an OCM managed cluster.

Addon parameters are passed to OCM unmodified. Give them with --param or
load them from a YAML or JSON list of {id, value} entries with --params-file.

# Examples

  toolbox ocm-addon install --cluster-id $CLUSTER --addon-id managed-odh \
    --param notification-email=me@example.com --wait-for-ready-state`,
		Flags: append(ocmTargetFlags(),
			&cli.StringFlag{
				Name:     "token",
				Usage:    "OCM API token",
				Sources:  cli.EnvVars("OCM_TOKEN"),
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "param",
				Usage: "Addon parameter (format: id=value, can be repeated)",
			},
			&cli.StringFlag{
				Name:      "params-file",
				Usage:     "YAML or JSON file with a list of {id, value} addon parameters",
				TakesFile: true,
			},
			&cli.BoolFlag{
				Name:  "wait-for-ready-state",
				Usage: "Wait until the addon reports the ready state (can time out)",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ocmURL := cmd.String("url")
			if err := validateOCMURL(ocmURL); err != nil {
				return err
			}

			params, err := addonParams(cmd)
			if err != nil {
				return err
			}

			inv := toolbox.OCMAddonInstall(
				cmd.String("token"),
				cmd.String("cluster-id"),
				ocmURL,
				cmd.String("addon-id"),
				toolbox.WithWaitForReadyState(cmd.Bool("wait-for-ready-state")),
				toolbox.WithAddonParams(params...),
			)
			return runInvocation(ctx, cmd, newRunner, inv)
		},
	}
}

// addonParams merges --params-file entries with --param flags, file first.
func addonParams(cmd *cli.Command) ([]toolbox.AddonParam, error) {
	var params []toolbox.AddonParam
	if path := cmd.String("params-file"); path != "" {
		fromFile, err := serializer.FromFile[[]toolbox.AddonParam](path)
		if err != nil {
			return nil, fmt.Errorf("invalid params-file: %w", err)
		}
		for _, p := range *fromFile {
			if p.ID == "" {
				return nil, fmt.Errorf("invalid params-file %s: every param needs an id", path)
			}
		}
		params = append(params, *fromFile...)
	}

	fromFlags, err := parseAddonParams(cmd.StringSlice("param"))
	if err != nil {
		return nil, err
	}
	return append(params, fromFlags...), nil
}

func ocmAddonRemoveCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Remove an OCM addon",
		Flags: append(ocmTargetFlags(),
			&cli.BoolFlag{
				Name:  "wait-until-removed",
				Usage: "Wait until the addon is removed from the cluster (can time out)",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ocmURL := cmd.String("url")
			if err := validateOCMURL(ocmURL); err != nil {
				return err
			}

			inv := toolbox.OCMAddonRemove(
				cmd.String("cluster-id"),
				ocmURL,
				cmd.String("addon-id"),
				toolbox.WithWaitUntilRemoved(cmd.Bool("wait-until-removed")),
			)
			return runInvocation(ctx, cmd, newRunner, inv)
		},
	}
}
