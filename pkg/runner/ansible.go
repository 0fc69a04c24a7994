// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/defaults"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/errors"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/serializer"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

const (
	// DefaultAnsibleBinary is looked up in PATH when no binary is configured.
	DefaultAnsibleBinary = "ansible-playbook"
	// DefaultPlaybookDir is where the toolbox image installs its playbooks.
	DefaultPlaybookDir = "playbooks"
	// DefaultArtifactDir is the artifact root when ARTIFACT_DIR is not set.
	DefaultArtifactDir = "/tmp/toolbox-artifacts"

	// extraLogsDir is the ARTIFACT_EXTRA_LOGS_DIR subdirectory playbooks write to.
	extraLogsDir = "logs"

	// playbookWaitDelay bounds waiting for output pipes after the process is killed.
	playbookWaitDelay = 5 * time.Second
)

// Ansible runs playbooks with a local ansible-playbook binary.
type Ansible struct {
	binary       string
	playbookDir  string
	artifactRoot string
	timeout      time.Duration
	verbose      bool
	stdout       io.Writer
	stderr       io.Writer
}

// NewAnsible creates an Ansible runner, filling unset fields with defaults.
func NewAnsible(cfg Config) *Ansible {
	a := &Ansible{
		binary:       cfg.AnsibleBinary,
		playbookDir:  cfg.PlaybookDir,
		artifactRoot: cfg.ArtifactDir,
		timeout:      cfg.Timeout,
		verbose:      cfg.Verbose,
		stdout:       cfg.stdout(),
		stderr:       cfg.stderr(),
	}
	if a.binary == "" {
		a.binary = DefaultAnsibleBinary
	}
	if a.playbookDir == "" {
		a.playbookDir = DefaultPlaybookDir
	}
	if a.artifactRoot == "" {
		a.artifactRoot = DefaultArtifactDir
	}
	if a.timeout <= 0 {
		a.timeout = defaults.PlaybookTimeout
	}
	return a
}

// PlaybookPath returns the playbook file an invocation maps to.
func (a *Ansible) PlaybookPath(inv toolbox.Invocation) string {
	return filepath.Join(a.playbookDir, inv.Name()+".yml")
}

// Run writes the artifact directory for inv and runs its playbook.
func (a *Ansible) Run(ctx context.Context, inv toolbox.Invocation) (*Result, error) {
	start := time.Now()

	playbook := a.PlaybookPath(inv)
	if _, err := os.Stat(playbook); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeNotFound, "playbook not found", err,
			map[string]any{"playbook": playbook})
	}

	binary, err := exec.LookPath(a.binary)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable,
			fmt.Sprintf("%s not found in PATH", a.binary), err)
	}

	dir, err := NextArtifactDir(a.artifactRoot, inv.Name())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create artifact directory", err)
	}

	extraVars, err := ExtraVars(inv)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to render extra-vars", err)
	}
	extraVarsPath := filepath.Join(dir, ExtraVarsFile)
	if err := serializer.WriteToFile(extraVarsPath, extraVars); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to write extra-vars", err)
	}

	logsDir := filepath.Join(dir, extraLogsDir)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create extra logs directory", err)
	}

	env := map[string]string{
		"ARTIFACT_DIR":            dir,
		"ARTIFACT_EXTRA_LOGS_DIR": logsDir,
		"ANSIBLE_LOG_PATH":        filepath.Join(dir, LogFile),
	}
	if err := writeEnvFile(filepath.Join(dir, EnvFile), env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to write env file", err)
	}

	args := []string{}
	if a.verbose {
		args = append(args, "-vv")
	}
	args = append(args, "--extra-vars", "@"+extraVarsPath)

	secretVars, err := SecretExtraVars(inv)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to render secret extra-vars", err)
	}
	if secretVars != nil {
		secretPath, err := writeSecretVars(secretVars)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to write secret extra-vars", err)
		}
		defer func() { _ = os.Remove(secretPath) }()
		args = append(args, "--extra-vars", "@"+secretPath)
	}
	args = append(args, playbook)

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout = a.stdout
	cmd.Stderr = a.stderr
	cmd.WaitDelay = playbookWaitDelay

	slog.Debug("running playbook",
		slog.String("playbook", playbook),
		slog.String("artifactDir", dir),
		slog.Any("args", args))

	runErr := cmd.Run()
	res := &Result{
		Name:        inv.Name(),
		ArtifactDir: dir,
		Duration:    time.Since(start),
	}

	if runErr == nil {
		return res, nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "playbook run canceled", ctx.Err())
		}
		return nil, errors.WrapWithContext(errors.ErrCodeTimeout,
			fmt.Sprintf("playbook %s did not finish within %v", inv.Name(), a.timeout), ctxErr,
			map[string]any{"artifactDir": dir})
	}

	var exitErr *exec.ExitError
	if stderrors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to execute ansible-playbook", runErr)
}
