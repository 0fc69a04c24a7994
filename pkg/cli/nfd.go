/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

func nfdOperatorCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:                  toolbox.GroupNFDOperator,
		EnableShellCompletion: true,
		Usage:                 "Deploy and undeploy the Node Feature Discovery operator",
		Commands: []*cli.Command{
			nfdDeployFromCommitCmd(newRunner),
			nfdDeployFromOperatorHubCmd(newRunner),
			nfdUndeployFromOperatorHubCmd(newRunner),
		},
	}
}

func nfdDeployFromCommitCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:  "deploy-from-commit",
		Usage: "Deploy the NFD operator from a git commit",
		Description: `Builds the NFD operator from the given repository and ref and deploys it.

# Examples

  toolbox nfd-operator deploy-from-commit \
    --git-repo https://github.com/openshift/cluster-nfd-operator.git \
    --git-ref master`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "git-repo",
				Usage:    "Git repository to deploy from (e.g. https://github.com/openshift/cluster-nfd-operator.git)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "git-ref",
				Usage:    "Git ref to deploy from (e.g. master)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "image-tag",
				Usage: "Tag of the operator image built from the commit",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo := cmd.String("git-repo")
			if err := validateGitURL(repo); err != nil {
				return err
			}
			ref := cmd.String("git-ref")
			if strings.TrimSpace(ref) == "" {
				return fmt.Errorf("--git-ref must not be empty")
			}

			var opts []toolbox.CommitOption
			if cmd.IsSet("image-tag") {
				tag := cmd.String("image-tag")
				if err := validateImageTag(tag); err != nil {
					return err
				}
				opts = append(opts, toolbox.WithImageTag(tag))
			}

			return runInvocation(ctx, cmd, newRunner, toolbox.NFDDeployFromCommit(repo, ref, opts...))
		},
	}
}

func nfdDeployFromOperatorHubCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:  "deploy-from-operatorhub",
		Usage: "Deploy the NFD operator from OperatorHub",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "channel",
				Usage: "OperatorHub channel to deploy (e.g. 4.7; default: the package default channel)",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Catalog to install the operator from",
				Value: toolbox.DefaultCatalog,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var opts []toolbox.OperatorHubOption
			if cmd.IsSet("channel") {
				opts = append(opts, toolbox.WithChannel(cmd.String("channel")))
			}
			if cmd.IsSet("catalog") {
				opts = append(opts, toolbox.WithCatalog(cmd.String("catalog")))
			}

			return runInvocation(ctx, cmd, newRunner, toolbox.NFDDeployFromOperatorHub(opts...))
		},
	}
}

func nfdUndeployFromOperatorHubCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:  "undeploy-from-operatorhub",
		Usage: "Undeploy an NFD operator that was deployed from OperatorHub",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runInvocation(ctx, cmd, newRunner, toolbox.NFDUndeployFromOperatorHub())
		},
	}
}
