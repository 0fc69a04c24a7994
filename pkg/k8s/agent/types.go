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

package agent

import (
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// LabelName marks every resource the toolbox creates.
	LabelName = "app.kubernetes.io/name"
	// LabelValue is the value of LabelName.
	LabelValue = "toolbox"
	// LabelRunID identifies the resources of a single playbook run.
	LabelRunID = "toolbox.nvidia.com/run-id"
	// LabelPlaybook records the invocation name a Job runs.
	LabelPlaybook = "toolbox.nvidia.com/playbook"

	// ExtraVarsKey is the ConfigMap key holding the rendered extra-vars.
	ExtraVarsKey = "extravars.yaml"
	// SecretVarsKey is the Secret key holding the secret extra-vars.
	SecretVarsKey = "secretvars.yaml"
	// ExtraVarsMountPath is where the ConfigMap and Secret are mounted in the playbook pod.
	ExtraVarsMountPath = "/etc/toolbox"
	// ArtifactDir is the artifact directory inside the playbook pod.
	ArtifactDir = "/tmp/artifacts"

	// clusterAdminRole is bound to the playbook ServiceAccount: the playbooks
	// install operators and cluster-scoped custom resources.
	clusterAdminRole = "cluster-admin"
)

var (
	// ErrJobFailed is returned when the playbook Job reports the Failed condition.
	ErrJobFailed = errors.New("playbook job failed")
	// ErrJobTimeout is returned when the Job does not finish in time.
	ErrJobTimeout = errors.New("timeout waiting for playbook job")
)

// Config holds the configuration for running a playbook as a Job.
type Config struct {
	Namespace          string
	ServiceAccountName string
	JobName            string
	Image              string
	ImagePullSecrets   []string
	NodeSelector       map[string]string
	Tolerations        []corev1.Toleration

	// Playbook is the invocation name; the pod runs <PlaybookDir>/<Playbook>.yml.
	Playbook    string
	PlaybookDir string
	// ExtraVars is the rendered extra-vars document stored in the ConfigMap.
	ExtraVars []byte
	// SecretVars holds credentials. When set they are stored in a Secret and
	// passed as a second extra-vars file.
	SecretVars []byte
	// RunID labels all resources of this run.
	RunID   string
	Verbose bool
}

// ConfigMapName returns the name of the ConfigMap holding the extra-vars.
func (c Config) ConfigMapName() string {
	return c.JobName + "-extravars"
}

// SecretName returns the name of the Secret holding the secret extra-vars.
func (c Config) SecretName() string {
	return c.JobName + "-secrets"
}

func (c Config) hasSecretVars() bool {
	return len(c.SecretVars) > 0
}

// ClusterRoleBindingName returns the name of the binding that grants the
// ServiceAccount cluster-admin. It includes the namespace because the binding
// is cluster-scoped.
func (c Config) ClusterRoleBindingName() string {
	return fmt.Sprintf("%s-%s-%s", c.ServiceAccountName, c.Namespace, clusterAdminRole)
}

// Deployer manages the deployment and lifecycle of a playbook Job.
type Deployer struct {
	clientset kubernetes.Interface
	config    Config
}

// NewDeployer creates a new Deployer with the given configuration.
func NewDeployer(clientset kubernetes.Interface, config Config) *Deployer {
	return &Deployer{
		clientset: clientset,
		config:    config,
	}
}

// CleanupOptions controls what resources to remove during cleanup.
type CleanupOptions struct {
	Enabled bool // If true, removes the Job, ConfigMap and Secret of this run
}
