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


package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	corev1 "k8s.io/api/core/v1"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/runner"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

// recorder is a runner factory and runner that records what it was asked to run.
type recorder struct {
	kind  runner.Kind
	cfg   runner.Config
	calls []toolbox.Invocation
	res   *runner.Result
	err   error
}

func (r *recorder) factory(kind runner.Kind, cfg runner.Config) (runner.Runner, error) {
	r.kind = kind
	r.cfg = cfg
	return r, nil
}

func (r *recorder) Run(_ context.Context, inv toolbox.Invocation) (*runner.Result, error) {
	r.calls = append(r.calls, inv)
	if r.err != nil {
		return nil, r.err
	}
	if r.res != nil {
		return r.res, nil
	}
	return &runner.Result{Name: inv.Name()}, nil
}

// last returns the only invocation the recorder ran.
func (r *recorder) last(t *testing.T) toolbox.Invocation {
	t.Helper()
	require.Len(t, r.calls, 1)
	return r.calls[0]
}

func runCLI(t *testing.T, rec *recorder, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(rec.factory)
	var out bytes.Buffer
	cmd.Writer = &out
	cmd.ErrWriter = &bytes.Buffer{}
	err := cmd.Run(context.Background(), append([]string{name}, args...))
	return out.String(), err
}

func TestNFDOperator_DeployFromCommit(t *testing.T) {
	const repo = "https://github.com/openshift/cluster-nfd-operator.git"

	tests := []struct {
		name    string
		args    []string
		want    toolbox.Invocation
		wantErr bool
	}{
		{
			name: "without image tag",
			args: []string{"--git-repo", repo, "--git-ref", "master"},
			want: toolbox.NFDDeployFromCommit(repo, "master"),
		},
		{
			name: "with image tag",
			args: []string{"--git-repo", repo, "--git-ref", "master", "--image-tag", "ci-42"},
			want: toolbox.NFDDeployFromCommit(repo, "master", toolbox.WithImageTag("ci-42")),
		},
		{
			name:    "invalid repository",
			args:    []string{"--git-repo", "not a url", "--git-ref", "master"},
			wantErr: true,
		},
		{
			name:    "invalid image tag",
			args:    []string{"--git-repo", repo, "--git-ref", "master", "--image-tag", "-bad"},
			wantErr: true,
		},
		{
			name:    "missing ref",
			args:    []string{"--git-repo", repo},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			args := append([]string{"nfd-operator", "deploy-from-commit"}, tt.args...)
			_, err := runCLI(t, rec, args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, rec.calls, "nothing runs on invalid input")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(rec.last(t)), "got %+v", rec.last(t).Record())
			assert.Equal(t, runner.KindAnsible, rec.kind)
		})
	}
}

func TestNFDOperator_DeployFromCommit_NoImageTagKey(t *testing.T) {
	rec := &recorder{}
	_, err := runCLI(t, rec, "nfd-operator", "deploy-from-commit",
		"--git-repo", "https://example.org/nfd.git", "--git-ref", "main")
	require.NoError(t, err)
	assert.NotContains(t, rec.last(t).Options(), toolbox.KeyNFDImageTag)
}

func TestRootCmd_DefaultVerboseRunsCommand(t *testing.T) {
	cmd := newRootCmd(runner.New)
	var out bytes.Buffer
	cmd.Writer = &out
	cmd.ErrWriter = &bytes.Buffer{}

	err := cmd.Run(context.Background(), []string{name, "--runner", "dry-run",
		"nfd-operator", "deploy-from-commit", "--git-repo", "https://example.org/repo.git", "--git-ref", "main"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "name: operator_deploy_custom_commit")
	assert.NotContains(t, out.String(), name+" version")
}

func TestGlobalFlags_Verbose(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "default", want: true},
		{name: "long form", args: []string{"--verbose=false"}, want: false},
		{name: "short form", args: []string{"-V=false"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TOOLBOX_VERBOSE", "")
			require.NoError(t, os.Unsetenv("TOOLBOX_VERBOSE"))

			rec := &recorder{}
			args := append(tt.args, "nfd-operator", "undeploy-from-operatorhub")
			_, err := runCLI(t, rec, args...)
			require.NoError(t, err)
			require.Len(t, rec.calls, 1)
			assert.Equal(t, tt.want, rec.cfg.Verbose)
		})
	}
}

func TestRootCmd_Version(t *testing.T) {
	rec := &recorder{}
	out, err := runCLI(t, rec, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, name+" version "+version)
	assert.Empty(t, rec.calls)
}

func TestNFDOperator_DeployFromOperatorHub(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want toolbox.Invocation
	}{
		{name: "defaults", want: toolbox.NFDDeployFromOperatorHub()},
		{
			name: "channel",
			args: []string{"--channel", "4.7"},
			want: toolbox.NFDDeployFromOperatorHub(toolbox.WithChannel("4.7")),
		},
		{
			name: "catalog",
			args: []string{"--catalog", "community-operators"},
			want: toolbox.NFDDeployFromOperatorHub(toolbox.WithCatalog("community-operators")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			args := append([]string{"nfd-operator", "deploy-from-operatorhub"}, tt.args...)
			_, err := runCLI(t, rec, args...)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(rec.last(t)), "got %+v", rec.last(t).Record())
		})
	}
}

func TestNFDOperator_Undeploy(t *testing.T) {
	rec := &recorder{}
	_, err := runCLI(t, rec, "nfd-operator", "undeploy-from-operatorhub")
	require.NoError(t, err)
	inv := rec.last(t)
	assert.Equal(t, toolbox.NameNFDUndeploy, inv.Name())
	assert.Empty(t, inv.Options())
}

func TestOCMAddon_Install(t *testing.T) {
	paramsFile := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(paramsFile, []byte("- id: channel\n  value: stable\n"), 0o600))

	tests := []struct {
		name    string
		args    []string
		want    toolbox.Invocation
		wantErr bool
	}{
		{
			name: "minimal",
			args: []string{"--token", "tok", "--cluster-id", "c1", "--addon-id", "managed-odh"},
			want: toolbox.OCMAddonInstall("tok", "c1", defaultOCMURL, "managed-odh"),
		},
		{
			name: "params and wait",
			args: []string{
				"--token", "tok", "--cluster-id", "c1", "--addon-id", "managed-odh",
				"--url", "https://api.stage.openshift.com",
				"--param", "email=me@example.com", "--param", "size=2",
				"--wait-for-ready-state",
			},
			want: toolbox.OCMAddonInstall("tok", "c1", "https://api.stage.openshift.com", "managed-odh",
				toolbox.WithWaitForReadyState(true),
				toolbox.WithAddonParams(
					toolbox.AddonParam{ID: "email", Value: "me@example.com"},
					toolbox.AddonParam{ID: "size", Value: "2"},
				)),
		},
		{
			name: "params file before flags",
			args: []string{
				"--token", "tok", "--cluster-id", "c1", "--addon-id", "managed-odh",
				"--params-file", paramsFile, "--param", "email=me@example.com",
			},
			want: toolbox.OCMAddonInstall("tok", "c1", defaultOCMURL, "managed-odh",
				toolbox.WithAddonParams(
					toolbox.AddonParam{ID: "channel", Value: "stable"},
					toolbox.AddonParam{ID: "email", Value: "me@example.com"},
				)),
		},
		{
			name:    "malformed param",
			args:    []string{"--token", "tok", "--cluster-id", "c1", "--addon-id", "a", "--param", "email"},
			wantErr: true,
		},
		{
			name:    "invalid url",
			args:    []string{"--token", "tok", "--cluster-id", "c1", "--addon-id", "a", "--url", "api.openshift.com"},
			wantErr: true,
		},
		{
			name:    "missing params file",
			args:    []string{"--token", "tok", "--cluster-id", "c1", "--addon-id", "a", "--params-file", "/nonexistent.yaml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			args := append([]string{"ocm-addon", "install"}, tt.args...)
			_, err := runCLI(t, rec, args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, rec.calls)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(rec.last(t)), "got %+v", rec.last(t).Record())
		})
	}
}

func TestOCMAddon_Install_NoParamsKeyWithoutParams(t *testing.T) {
	rec := &recorder{}
	_, err := runCLI(t, rec, "ocm-addon", "install", "--token", "tok", "--cluster-id", "c1", "--addon-id", "a")
	require.NoError(t, err)
	opts := rec.last(t).Options()
	assert.NotContains(t, opts, toolbox.KeyOCMAddonParams)
	assert.Equal(t, false, opts[toolbox.KeyWaitForReadyState])
}

func TestOCMAddon_Remove(t *testing.T) {
	rec := &recorder{}
	_, err := runCLI(t, rec, "ocm-addon", "remove",
		"--cluster-id", "c1", "--addon-id", "managed-odh", "--wait-until-removed")
	require.NoError(t, err)

	inv := rec.last(t)
	want := toolbox.OCMAddonRemove("c1", defaultOCMURL, "managed-odh", toolbox.WithWaitUntilRemoved(true))
	assert.True(t, want.Equal(inv), "got %+v", inv.Record())
	assert.NotContains(t, inv.Options(), toolbox.KeyOCMToken)
}

func TestRunInvocation_ExitCode(t *testing.T) {
	rec := &recorder{res: &runner.Result{Name: toolbox.NameNFDUndeploy, ExitCode: 3}}
	_, err := runCLI(t, rec, "nfd-operator", "undeploy-from-operatorhub")
	require.Error(t, err)

	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr), "got %T", err)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestRunInvocation_RunnerError(t *testing.T) {
	boom := errors.New("ansible-playbook not found")
	rec := &recorder{err: boom}
	_, err := runCLI(t, rec, "nfd-operator", "undeploy-from-operatorhub")
	require.ErrorIs(t, err, boom)

	var exitErr cli.ExitCoder
	assert.False(t, errors.As(err, &exitErr), "runner errors are not playbook exit codes")
}

func TestGlobalFlags_RunnerConfig(t *testing.T) {
	rec := &recorder{}
	_, err := runCLI(t, rec,
		"--runner", "job",
		"--namespace", "gpu-ci",
		"--image", "quay.io/example/toolbox:v1",
		"--image-pull-secret", "pull",
		"--node-selector", "nodeGroup=gpu",
		"--toleration", "nvidia.com/gpu:NoSchedule",
		"--cleanup",
		"--timeout", "5m",
		"--kube-context", "ci",
		"nfd-operator", "undeploy-from-operatorhub")
	require.NoError(t, err)

	assert.Equal(t, runner.KindJob, rec.kind)
	assert.Equal(t, "gpu-ci", rec.cfg.Namespace)
	assert.Equal(t, "quay.io/example/toolbox:v1", rec.cfg.Image)
	assert.Equal(t, []string{"pull"}, rec.cfg.ImagePullSecrets)
	assert.Equal(t, map[string]string{"nodeGroup": "gpu"}, rec.cfg.NodeSelector)
	assert.Equal(t, []corev1.Toleration{{
		Key: "nvidia.com/gpu", Operator: corev1.TolerationOpExists, Effect: corev1.TaintEffectNoSchedule,
	}}, rec.cfg.Tolerations)
	assert.True(t, rec.cfg.Cleanup)
	assert.Equal(t, "ci", rec.cfg.KubeContext)
	assert.Equal(t, "5m0s", rec.cfg.Timeout.String())
}

func TestGlobalFlags_JobDefaultsTolerateAll(t *testing.T) {
	rec := &recorder{}
	_, err := runCLI(t, rec, "--runner", "job", "nfd-operator", "undeploy-from-operatorhub")
	require.NoError(t, err)
	assert.Equal(t, runner.TolerateAll(), rec.cfg.Tolerations)
	assert.Equal(t, runner.DefaultNamespace, rec.cfg.Namespace)
}

func TestGlobalFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown runner", args: []string{"--runner", "local"}},
		{name: "unknown format", args: []string{"--runner", "dry-run", "--format", "xml"}},
		{name: "invalid image", args: []string{"--runner", "job", "--image", "Not An Image"}},
		{name: "invalid toleration", args: []string{"--runner", "job", "--toleration", "bad"}},
		{name: "push with dry-run runner", args: []string{"--runner", "dry-run", "--push-artifacts", "oci://ghcr.io/nvidia/runs"}},
		{name: "push to bad reference", args: []string{"--push-artifacts", "ghcr.io/nvidia/runs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			args := append(tt.args, "nfd-operator", "undeploy-from-operatorhub")
			_, err := runCLI(t, rec, args...)
			require.Error(t, err)
			assert.Empty(t, rec.calls)
		})
	}
}

func TestGlobalFlags_ArtifactDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TOOLBOX_ARTIFACT_DIR", "")
	require.NoError(t, os.Unsetenv("TOOLBOX_ARTIFACT_DIR"))
	t.Setenv("ARTIFACT_DIR", dir)

	rec := &recorder{}
	_, err := runCLI(t, rec, "nfd-operator", "undeploy-from-operatorhub")
	require.NoError(t, err)
	assert.Equal(t, dir, rec.cfg.ArtifactDir)
}

func TestListCmd(t *testing.T) {
	out, err := runCLI(t, &recorder{}, "--format", "json", "list")
	require.NoError(t, err)
	for _, op := range toolbox.Operations() {
		assert.Contains(t, out, `"name": "`+op.Name+`"`)
	}
	assert.Contains(t, out, toolbox.KeyOCMToken)
}

func TestRunCmd(t *testing.T) {
	want := toolbox.OCMAddonInstall("tok", "c1", defaultOCMURL, "managed-odh",
		toolbox.WithAddonParams(toolbox.AddonParam{ID: "email", Value: "me@example.com"}))

	// Write the document with the real dry-run runner.
	path := filepath.Join(t.TempDir(), "install.yaml")
	dry, err := runner.New(runner.KindDryRun, runner.Config{Output: path})
	require.NoError(t, err)
	_, err = dry.Run(context.Background(), want)
	require.NoError(t, err)

	rec := &recorder{}
	_, err = runCLI(t, rec, "run", "--file", path)
	require.NoError(t, err)
	assert.True(t, want.Equal(rec.last(t)), "got %+v", rec.last(t).Record())
}

func TestRunCmd_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: cluster_destroy\noptions: {}\n"), 0o600))

	rec := &recorder{}
	_, err := runCLI(t, rec, "run", "--file", path)
	require.Error(t, err)
	assert.Empty(t, rec.calls)
}

func TestRunInvocation_PushesMetrics(t *testing.T) {
	var pushed atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/metrics/job/"+runner.MetricsJob) {
			pushed.Store(true)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rec := &recorder{res: &runner.Result{Name: toolbox.NameNFDUndeploy, ExitCode: 2}}
	_, err := runCLI(t, rec, "--metrics-pushgateway", server.URL, "nfd-operator", "undeploy-from-operatorhub")

	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.ExitCode())
	assert.True(t, pushed.Load(), "metrics are pushed for failed runs too")
}
