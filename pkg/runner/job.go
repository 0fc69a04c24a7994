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
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/defaults"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/errors"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/k8s/agent"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/k8s/client"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/serializer"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

const (
	// DefaultNamespace hosts the playbook Jobs.
	DefaultNamespace = "toolbox"
	// DefaultImage ships ansible and the toolbox playbooks.
	DefaultImage = "ghcr.io/nvidia/toolbox:latest"
	// DefaultServiceAccountName is the identity of the playbook pods.
	DefaultServiceAccountName = "toolbox"
	// DefaultJobPlaybookDir is the playbook directory inside DefaultImage.
	DefaultJobPlaybookDir = "/opt/toolbox/playbooks"

	jobNamePrefix = "toolbox-"
	runIDLength   = 8
	maxNameLength = 63
)

// Job runs playbooks as Kubernetes Jobs.
type Job struct {
	clientset client.Interface
	cfg       Config
	newRunID  func() string
}

// NewJob creates a Job runner, filling unset fields with defaults.
func NewJob(clientset client.Interface, cfg Config) *Job {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.ServiceAccountName == "" {
		cfg.ServiceAccountName = DefaultServiceAccountName
	}
	if cfg.PlaybookDir == "" {
		cfg.PlaybookDir = DefaultJobPlaybookDir
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.PlaybookTimeout
	}
	return &Job{
		clientset: clientset,
		cfg:       cfg,
		newRunID:  uuid.NewString,
	}
}

// JobName derives a DNS-1123 Job name from the invocation name and run id.
func JobName(name, runID string) string {
	if len(runID) > runIDLength {
		runID = runID[:runIDLength]
	}
	base := jobNamePrefix + strings.ReplaceAll(strings.ToLower(name), "_", "-")
	if limit := maxNameLength - len(runID) - 1 - len("-extravars"); len(base) > limit {
		base = strings.TrimRight(base[:limit], "-")
	}
	return base + "-" + runID
}

// Run deploys the Job for inv, streams its logs and waits for it to finish.
func (j *Job) Run(ctx context.Context, inv toolbox.Invocation) (*Result, error) {
	start := time.Now()
	runID := j.newRunID()

	extraVars, err := ExtraVars(inv)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to render extra-vars", err)
	}
	secretVars, err := SecretExtraVars(inv)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to render secret extra-vars", err)
	}

	jobName := JobName(inv.Name(), runID)

	var artifactDir string
	if j.cfg.ArtifactDir != "" {
		artifactDir, err = j.prepareArtifacts(inv.Name(), jobName, runID, extraVars)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to prepare artifact directory", err)
		}
	}

	deployer := agent.NewDeployer(j.clientset, agent.Config{
		Namespace:          j.cfg.Namespace,
		ServiceAccountName: j.cfg.ServiceAccountName,
		JobName:            jobName,
		Image:              j.cfg.Image,
		ImagePullSecrets:   j.cfg.ImagePullSecrets,
		NodeSelector:       j.cfg.NodeSelector,
		Tolerations:        j.cfg.Tolerations,
		Playbook:           inv.Name(),
		PlaybookDir:        j.cfg.PlaybookDir,
		ExtraVars:          extraVars,
		SecretVars:         secretVars,
		RunID:              runID,
		Verbose:            j.cfg.Verbose,
	})

	slog.Info("deploying playbook job",
		slog.String("namespace", j.cfg.Namespace),
		slog.String("job", jobName),
		slog.String("runId", runID))

	if err := deployer.Deploy(ctx); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnavailable, "failed to deploy playbook job", err,
			map[string]any{"namespace": j.cfg.Namespace, "job": jobName})
	}

	defer j.cleanup(ctx, deployer)

	waitErr := j.wait(ctx, deployer, inv.Name())
	res := &Result{
		Name:        inv.Name(),
		RunID:       runID,
		ArtifactDir: artifactDir,
		Duration:    time.Since(start),
	}

	switch {
	case waitErr == nil, stderrors.Is(waitErr, agent.ErrJobFailed):
	case stderrors.Is(waitErr, agent.ErrJobTimeout):
		return nil, errors.WrapWithContext(errors.ErrCodeTimeout, "playbook job did not finish", waitErr,
			map[string]any{"job": jobName, "timeout": j.cfg.Timeout.String()})
	case ctx.Err() != nil:
		return nil, errors.Wrap(errors.ErrCodeInternal, "playbook run canceled", ctx.Err())
	default:
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to wait for playbook job", waitErr)
	}

	code, err := deployer.ExitCode(ctx)
	switch {
	case err == nil:
		res.ExitCode = code
	case waitErr != nil:
		// Failed Jobs without a terminated container hit the active deadline
		// or never scheduled.
		slog.Warn("playbook exit code unavailable", slog.String("job", jobName), slog.String("error", err.Error()))
		res.ExitCode = 1
	default:
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to read playbook exit code", err)
	}

	if waitErr != nil && res.ExitCode == 0 {
		res.ExitCode = 1
	}

	if artifactDir != "" {
		j.savePodLog(ctx, deployer, filepath.Join(artifactDir, LogFile))
	}

	return res, nil
}

// prepareArtifacts creates the run's artifact directory with the extra-vars
// and the Job coordinates, matching the ansible runner layout.
func (j *Job) prepareArtifacts(name, jobName, runID string, extraVars []byte) (string, error) {
	dir, err := NextArtifactDir(j.cfg.ArtifactDir, name)
	if err != nil {
		return "", err
	}
	if err := serializer.WriteToFile(filepath.Join(dir, ExtraVarsFile), extraVars); err != nil {
		return "", fmt.Errorf("failed to write extra-vars: %w", err)
	}
	env := map[string]string{
		"TOOLBOX_JOB":       jobName,
		"TOOLBOX_NAMESPACE": j.cfg.Namespace,
		"TOOLBOX_IMAGE":     j.cfg.Image,
		"TOOLBOX_RUN_ID":    runID,
	}
	if err := writeEnvFile(filepath.Join(dir, EnvFile), env); err != nil {
		return "", fmt.Errorf("failed to write env file: %w", err)
	}
	return dir, nil
}

// savePodLog copies the complete pod log into the artifact directory. Failures
// are logged only.
func (j *Job) savePodLog(ctx context.Context, deployer *agent.Deployer, path string) {
	logs, err := deployer.GetPodLogs(ctx)
	if err != nil {
		slog.Warn("failed to collect playbook pod log", slog.String("error", err.Error()))
		return
	}
	if err := serializer.WriteToFile(path, []byte(logs)); err != nil {
		slog.Warn("failed to save playbook pod log", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// wait streams pod logs while waiting for the Job to finish.
func (j *Job) wait(ctx context.Context, deployer *agent.Deployer, name string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		j.streamLogs(gctx, deployer, j.cfg.stdout(), fmt.Sprintf("[%s]", name))
		return nil
	})

	g.Go(func() error {
		return deployer.WaitForCompletion(gctx, j.cfg.Timeout)
	})

	return g.Wait()
}

// streamLogs is best effort: log errors never fail the run. A stream that
// drops while the pod is still running is reopened from the time it dropped.
func (j *Job) streamLogs(ctx context.Context, deployer *agent.Deployer, w io.Writer, prefix string) {
	if err := deployer.WaitForPodReady(ctx, defaults.K8sPodReadyTimeout); err != nil {
		if ctx.Err() == nil {
			slog.Warn("playbook pod not ready, logs unavailable", slog.String("error", err.Error()))
		}
		return
	}

	limiter := rate.NewLimiter(rate.Every(defaults.K8sLogReconnectInterval), 1)
	var since *metav1.Time
	for range defaults.K8sLogReconnectAttempts {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		err := deployer.StreamLogsSince(ctx, w, prefix, since)
		if ctx.Err() != nil {
			return
		}
		if finished, ferr := deployer.PodFinished(ctx); ferr == nil && finished {
			if err != nil {
				slog.Warn("failed to stream playbook logs", slog.String("error", err.Error()))
			}
			return
		}
		if err != nil {
			slog.Debug("playbook log stream dropped, reconnecting", slog.String("error", err.Error()))
		}

		now := metav1.Now()
		since = &now
	}

	slog.Warn("playbook log stream kept dropping, giving up",
		slog.Int("attempts", defaults.K8sLogReconnectAttempts))
}

func (j *Job) cleanup(ctx context.Context, deployer *agent.Deployer) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaults.K8sCleanupTimeout)
	defer cancel()

	if err := deployer.Cleanup(cleanupCtx, agent.CleanupOptions{Enabled: j.cfg.Cleanup}); err != nil {
		slog.Warn("failed to clean up playbook job", slog.String("error", err.Error()))
	}
}

// TolerateAll returns a toleration matching every taint, so playbook pods can
// land on dedicated GPU nodes.
func TolerateAll() []corev1.Toleration {
	return []corev1.Toleration{{Operator: corev1.TolerationOpExists}}
}
