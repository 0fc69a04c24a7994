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
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/errors"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/k8s/client"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/serializer"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

// Kind selects a runner implementation.
type Kind string

const (
	// KindAnsible runs the playbook with a local ansible-playbook binary.
	KindAnsible Kind = "ansible"
	// KindJob runs the playbook as a Kubernetes Job in the target cluster.
	KindJob Kind = "job"
	// KindDryRun prints the invocation without running anything.
	KindDryRun Kind = "dry-run"
)

// SupportedKinds returns the runner kinds accepted by New.
func SupportedKinds() []string {
	return []string{string(KindAnsible), string(KindJob), string(KindDryRun)}
}

// IsValid reports whether k is a supported runner kind.
func (k Kind) IsValid() bool {
	return slices.Contains(SupportedKinds(), string(k))
}

// Runner executes an invocation.
//
// A playbook that runs and fails is not an error: it is reported through
// Result.ExitCode. Errors mean the playbook could not be run at all.
type Runner interface {
	Run(ctx context.Context, inv toolbox.Invocation) (*Result, error)
}

// Result describes a finished run.
type Result struct {
	Name        string        `json:"name" yaml:"name"`
	ExitCode    int           `json:"exitCode" yaml:"exitCode"`
	ArtifactDir string        `json:"artifactDir,omitempty" yaml:"artifactDir,omitempty"`
	RunID       string        `json:"runId,omitempty" yaml:"runId,omitempty"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Success reports whether the playbook exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Err returns an EXECUTION_FAILED error for a failed run, nil otherwise.
func (r *Result) Err() error {
	if r.Success() {
		return nil
	}
	ctx := map[string]any{"exitCode": r.ExitCode}
	if r.ArtifactDir != "" {
		ctx["artifactDir"] = r.ArtifactDir
	}
	if r.RunID != "" {
		ctx["runId"] = r.RunID
	}
	return errors.NewWithContext(errors.ErrCodeExecutionFailed,
		fmt.Sprintf("playbook %s exited with status %d", r.Name, r.ExitCode), ctx)
}

// Config holds the settings of all runner kinds. Each runner reads the
// fields it needs.
type Config struct {
	// Stdout receives playbook output and dry-run documents. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives playbook error output. Defaults to os.Stderr.
	Stderr io.Writer
	// Timeout bounds a single run. Zero means defaults.PlaybookTimeout.
	Timeout time.Duration
	Verbose bool

	// ansible
	AnsibleBinary string
	PlaybookDir   string
	ArtifactDir   string

	// job
	Client             client.Interface
	Kubeconfig         string
	KubeContext        string
	Namespace          string
	Image              string
	ServiceAccountName string
	ImagePullSecrets   []string
	NodeSelector       map[string]string
	Tolerations        []corev1.Toleration
	Cleanup            bool

	// dry-run
	Format serializer.Format
	Output string
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c Config) stderr() io.Writer {
	if c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}

// New creates the runner of the given kind. Every runner it returns records
// run metrics.
func New(kind Kind, cfg Config) (Runner, error) {
	var r Runner
	switch kind {
	case KindAnsible:
		r = NewAnsible(cfg)
	case KindJob:
		clientset := cfg.Client
		if clientset == nil {
			cs, _, err := client.New(client.Options{Kubeconfig: cfg.Kubeconfig, Context: cfg.KubeContext})
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to create kubernetes client", err)
			}
			clientset = cs
		}
		r = NewJob(clientset, cfg)
	case KindDryRun:
		r = NewDryRun(cfg)
	default:
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown runner %q", kind),
			map[string]any{"supported": SupportedKinds()})
	}
	return &instrumented{kind: kind, next: r}, nil
}
