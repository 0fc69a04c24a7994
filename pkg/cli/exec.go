/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/oci"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/runner"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

// runnerConfig builds the runner settings from the global flags.
func runnerConfig(cmd *cli.Command, kind runner.Kind) (runner.Config, error) {
	root := cmd.Root()
	cfg := runner.Config{
		Stdout:           root.Writer,
		Stderr:           root.ErrWriter,
		Timeout:          cmd.Duration(flagTimeout),
		Verbose:          cmd.Bool(flagVerbose),
		AnsibleBinary:    cmd.String(flagAnsibleBinary),
		PlaybookDir:      cmd.String(flagPlaybookDir),
		ArtifactDir:      cmd.String(flagArtifactDir),
		Kubeconfig:       cmd.String(flagKubeconfig),
		KubeContext:      cmd.String(flagKubeContext),
		Namespace:        cmd.String(flagNamespace),
		Image:            cmd.String(flagImage),
		ImagePullSecrets: cmd.StringSlice(flagPullSecret),
		Cleanup:          cmd.Bool(flagCleanup),
		Output:           cmd.String(flagOutput),
	}

	format, err := parseOutputFormat(cmd)
	if err != nil {
		return runner.Config{}, err
	}
	cfg.Format = format

	if kind != runner.KindJob {
		return cfg, nil
	}

	if err := validateImage(cfg.Image); err != nil {
		return runner.Config{}, err
	}
	if cfg.NodeSelector, err = parseNodeSelectors(cmd.StringSlice(flagNodeSelector)); err != nil {
		return runner.Config{}, fmt.Errorf("invalid node-selector: %w", err)
	}
	if cfg.Tolerations, err = parseTolerations(cmd.StringSlice(flagToleration)); err != nil {
		return runner.Config{}, fmt.Errorf("invalid toleration: %w", err)
	}
	return cfg, nil
}

// runInvocation executes inv with the runner selected by --runner. A failed
// playbook is returned as a cli.ExitCoder carrying its exit status.
func runInvocation(ctx context.Context, cmd *cli.Command, newRunner runnerFactory, inv toolbox.Invocation) error {
	kind, err := parseRunnerKind(cmd)
	if err != nil {
		return err
	}

	var pushRef *oci.Reference
	if target := cmd.String(flagPushArtifacts); target != "" {
		if kind == runner.KindDryRun {
			return fmt.Errorf("--%s cannot be used with the %s runner", flagPushArtifacts, runner.KindDryRun)
		}
		if pushRef, err = oci.ParseReference(target); err != nil {
			return err
		}
	}

	cfg, err := runnerConfig(cmd, kind)
	if err != nil {
		return err
	}

	r, err := newRunner(kind, cfg)
	if err != nil {
		return err
	}

	slog.Debug("running playbook", "name", inv.Name(), "runner", kind)

	if gateway := cmd.String(flagMetricsGateway); gateway != "" {
		defer pushMetrics(ctx, gateway)
	}

	res, err := r.Run(ctx, inv)
	if err != nil {
		return err
	}

	var pushErr error
	if pushRef != nil && res.ArtifactDir != "" {
		pushErr = pushArtifacts(ctx, cmd, pushRef, inv, res.ArtifactDir)
	}

	if !res.Success() {
		if pushErr != nil {
			slog.Error("failed to push artifacts", "error", pushErr)
		}
		slog.Error("playbook failed",
			"name", res.Name,
			"exitCode", res.ExitCode,
			"artifactDir", res.ArtifactDir,
			"runId", res.RunID,
			"duration", res.Duration)
		return cli.Exit("", res.ExitCode)
	}

	slog.Info("playbook succeeded",
		"name", res.Name,
		"artifactDir", res.ArtifactDir,
		"runId", res.RunID,
		"duration", res.Duration)
	return pushErr
}

// pushArtifacts pushes an artifact directory. Without a tag in the target,
// the directory name (e.g. 000__addon_install) is used.
func pushArtifacts(ctx context.Context, cmd *cli.Command, ref *oci.Reference, inv toolbox.Invocation, dir string) error {
	if ref.Tag == "" {
		ref = ref.WithTag(filepath.Base(dir))
	}

	res, err := oci.Push(ctx, oci.PushOptions{
		SourceDir:   dir,
		Registry:    ref.Registry,
		Repository:  ref.Repository,
		Tag:         ref.Tag,
		Playbook:    inv.Name(),
		PlainHTTP:   cmd.Bool(flagPlainHTTP),
		InsecureTLS: cmd.Bool(flagInsecureTLS),
	})
	if err != nil {
		return err
	}

	slog.Info("artifacts pushed", "reference", res.Reference, "digest", res.Digest)
	return nil
}

// pushMetrics is best effort: a failed push never changes the exit status.
func pushMetrics(ctx context.Context, gateway string) {
	grouping := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		grouping["instance"] = host
	}
	if err := runner.PushMetrics(context.WithoutCancel(ctx), gateway, grouping); err != nil {
		slog.Warn("failed to push run metrics", "error", err)
	}
}
