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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authv1 "k8s.io/api/authorization/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/errors"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/k8s/agent"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

const (
	testRunID = "0123456789abcdef"
	testToken = "s3cr3t-offline-token"
)

// jobOutcome is how the simulated cluster finishes a created Job.
type jobOutcome struct {
	condition batchv1.JobConditionType
	exitCode  *int32
}

// newFakeCluster returns a clientset that grants all permissions and, on Job
// creation, stores the Job with the outcome's condition together with its pod.
func newFakeCluster(t *testing.T, outcome jobOutcome) *fake.Clientset {
	t.Helper()
	clientset := fake.NewClientset()

	clientset.PrependReactor("create", "selfsubjectaccessreviews", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, &authv1.SelfSubjectAccessReview{
			Status: authv1.SubjectAccessReviewStatus{Allowed: true},
		}, nil
	})

	clientset.PrependReactor("create", "jobs", func(action k8stesting.Action) (bool, runtime.Object, error) {
		job := action.(k8stesting.CreateAction).GetObject().(*batchv1.Job).DeepCopy()
		if outcome.condition != "" {
			job.Status.Conditions = []batchv1.JobCondition{
				{Type: outcome.condition, Status: corev1.ConditionTrue, Message: "simulated"},
			}
		}

		pod := &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      job.Name + "-pod",
				Namespace: job.Namespace,
				Labels:    job.Spec.Template.Labels,
			},
			Status: corev1.PodStatus{Phase: corev1.PodSucceeded},
		}
		if outcome.exitCode != nil {
			pod.Status.ContainerStatuses = []corev1.ContainerStatus{{
				Name:  job.Spec.Template.Spec.Containers[0].Name,
				State: corev1.ContainerState{Terminated: &corev1.ContainerStateTerminated{ExitCode: *outcome.exitCode}},
			}}
		}

		if err := clientset.Tracker().Add(pod); err != nil {
			return true, nil, err
		}
		return true, job, clientset.Tracker().Add(job)
	})

	return clientset
}

func newTestJob(clientset *fake.Clientset, cfg Config) (*Job, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	cfg.Stdout = stdout
	j := NewJob(clientset, cfg)
	j.newRunID = func() string { return testRunID }
	return j, stdout
}

func code(c int32) *int32 { return &c }

func TestJob_Run_Success(t *testing.T) {
	clientset := newFakeCluster(t, jobOutcome{condition: batchv1.JobComplete, exitCode: code(0)})
	j, stdout := newTestJob(clientset, Config{Namespace: "toolbox-test", Timeout: 5 * time.Second})

	inv := toolbox.OCMAddonInstall(testToken, "c1", "https://api.openshift.com", "managed-odh")
	res, err := j.Run(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, testRunID, res.RunID)
	assert.Equal(t, inv.Name(), res.Name)
	assert.Contains(t, stdout.String(), "[addon_install] fake logs")

	ctx := context.Background()
	jobName := JobName(inv.Name(), testRunID)

	job, err := clientset.BatchV1().Jobs("toolbox-test").Get(ctx, jobName, metav1.GetOptions{})
	require.NoError(t, err, "cleanup is off by default")
	container := job.Spec.Template.Spec.Containers[0]
	assert.Equal(t, DefaultImage, container.Image)
	assert.Equal(t, DefaultJobPlaybookDir+"/addon_install.yml", container.Command[len(container.Command)-1])
	assert.Equal(t, testRunID, job.Labels[agent.LabelRunID])

	cm, err := clientset.CoreV1().ConfigMaps("toolbox-test").Get(ctx, jobName+"-extravars", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data[agent.ExtraVarsKey], "ocm_addon_id: managed-odh")
	assert.NotContains(t, cm.Data[agent.ExtraVarsKey], testToken)

	secret, err := clientset.CoreV1().Secrets("toolbox-test").Get(ctx, jobName+"-secrets", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ocm_token: "+testToken+"\n", string(secret.Data[agent.SecretVarsKey]))
}

func TestJob_Run_Artifacts(t *testing.T) {
	clientset := newFakeCluster(t, jobOutcome{condition: batchv1.JobComplete, exitCode: code(0)})
	root := t.TempDir()
	j, _ := newTestJob(clientset, Config{Namespace: "toolbox-test", ArtifactDir: root, Timeout: 5 * time.Second})

	inv := toolbox.OCMAddonInstall(testToken, "c1", "https://api.openshift.com", "managed-odh")
	res, err := j.Run(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "000__addon_install"), res.ArtifactDir)

	extraVars, err := os.ReadFile(filepath.Join(res.ArtifactDir, ExtraVarsFile))
	require.NoError(t, err)
	assert.Contains(t, string(extraVars), "ocm_cluster_id: c1")
	assert.NotContains(t, string(extraVars), testToken)

	env, err := os.ReadFile(filepath.Join(res.ArtifactDir, EnvFile))
	require.NoError(t, err)
	assert.Contains(t, string(env), "TOOLBOX_JOB="+JobName(inv.Name(), testRunID))
	assert.Contains(t, string(env), "TOOLBOX_NAMESPACE=toolbox-test")

	logs, err := os.ReadFile(filepath.Join(res.ArtifactDir, LogFile))
	require.NoError(t, err)
	assert.Equal(t, "fake logs", string(logs))
}

func TestJob_Run_PlaybookFailure(t *testing.T) {
	tests := []struct {
		name    string
		outcome jobOutcome
		want    int
	}{
		{name: "container exit code", outcome: jobOutcome{condition: batchv1.JobFailed, exitCode: code(2)}, want: 2},
		{name: "no terminated container", outcome: jobOutcome{condition: batchv1.JobFailed}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientset := newFakeCluster(t, tt.outcome)
			j, _ := newTestJob(clientset, Config{Timeout: 5 * time.Second})

			res, err := j.Run(context.Background(), toolbox.NFDUndeployFromOperatorHub())
			require.NoError(t, err, "a failed playbook is reported through the exit code")
			assert.Equal(t, tt.want, res.ExitCode)
			assert.True(t, errors.Is(res.Err(), errors.ErrCodeExecutionFailed))
		})
	}
}

func TestJob_Run_Timeout(t *testing.T) {
	clientset := newFakeCluster(t, jobOutcome{})
	j, _ := newTestJob(clientset, Config{Timeout: 100 * time.Millisecond})

	_, err := j.Run(context.Background(), toolbox.NFDUndeployFromOperatorHub())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTimeout), "got %v", err)
}

func TestJob_Run_Cleanup(t *testing.T) {
	clientset := newFakeCluster(t, jobOutcome{condition: batchv1.JobComplete, exitCode: code(0)})
	j, _ := newTestJob(clientset, Config{Cleanup: true, Timeout: 5 * time.Second})

	inv := toolbox.NFDUndeployFromOperatorHub()
	_, err := j.Run(context.Background(), inv)
	require.NoError(t, err)

	_, err = clientset.BatchV1().Jobs(DefaultNamespace).
		Get(context.Background(), JobName(inv.Name(), testRunID), metav1.GetOptions{})
	assert.Error(t, err, "Job should be removed when cleanup is enabled")
}

func TestJob_Run_PermissionDenied(t *testing.T) {
	clientset := fake.NewClientset()
	clientset.PrependReactor("create", "selfsubjectaccessreviews", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, &authv1.SelfSubjectAccessReview{}, nil
	})
	j, _ := newTestJob(clientset, Config{})

	_, err := j.Run(context.Background(), toolbox.NFDUndeployFromOperatorHub())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnavailable), "got %v", err)
}

func TestJobName(t *testing.T) {
	assert.Equal(t, "toolbox-addon-install-01234567", JobName("addon_install", testRunID))
	assert.Equal(t, "toolbox-operator-deploy-custom-commit-01234567",
		JobName(toolbox.NameNFDDeployCustomCommit, testRunID))

	long := JobName(strings.Repeat("very_long_name_", 10), testRunID)
	assert.LessOrEqual(t, len(long+"-extravars"), 63)
	assert.True(t, strings.HasSuffix(long, "-01234567"))
	assert.NotContains(t, long, "--")
}

func TestTolerateAll(t *testing.T) {
	tol := TolerateAll()
	require.Len(t, tol, 1)
	assert.Equal(t, corev1.TolerationOpExists, tol[0].Operator)
	assert.Empty(t, tol[0].Key)
}
