/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/logging"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/runner"
)

const (
	name           = "toolbox"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// runnerFactory creates the runner a command executes its invocation with.
type runnerFactory func(kind runner.Kind, cfg runner.Config) (runner.Runner, error)

// Execute runs the toolbox CLI and exits the process. A playbook that runs
// and fails makes the process exit with the playbook's exit status.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(runner.New).Run(ctx, os.Args)
	stop()
	if err == nil {
		return
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(exitErr.ExitCode())
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func newRootCmd(newRunner runnerFactory) *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Usage:                 "toolbox - GPU cluster operator and addon automation",
		Description: `Runs automation playbooks that deploy and manage the components of a GPU
cluster. Every command builds a named invocation (a playbook name plus its
extra-vars) and hands it to a runner:

  ansible  - run ansible-playbook locally (default)
  job      - run the playbook as a Kubernetes Job in the target cluster
  dry-run  - print the invocation without running anything

The process exits with the exit status of the playbook.`,
		Flags: globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			initLogger(cmd)
			return ctx, nil
		},
		// Exit codes are handled by Execute so commands stay testable.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			nfdOperatorCmd(newRunner),
			ocmAddonCmd(newRunner),
			runCmd(newRunner),
			listCmd(),
		},
	}
}

// initLogger configures slog after flags are parsed so --log-level takes
// effect before any command executes.
func initLogger(cmd *cli.Command) {
	level := cmd.String(flagLogLevel)
	if cmd.Bool(flagLogJSON) {
		logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	} else {
		logging.SetDefaultTextLoggerWithLevel(name, version, level)
	}
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
}
