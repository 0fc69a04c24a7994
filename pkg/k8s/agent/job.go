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
	"context"
	"fmt"
	"path"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/defaults"
)

const (
	containerName   = "playbook"
	extraVarsVolume = "extravars"
	artifactsVolume = "artifacts"
	ansibleBinary   = "ansible-playbook"
	playbookFileExt = ".yml"
)

// ensureJob deletes any existing Job and creates a fresh one.
func (d *Deployer) ensureJob(ctx context.Context) error {
	propagationPolicy := metav1.DeletePropagationForeground
	err := d.clientset.BatchV1().Jobs(d.config.Namespace).Delete(
		ctx,
		d.config.JobName,
		metav1.DeleteOptions{
			PropagationPolicy: &propagationPolicy,
		},
	)
	if err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to delete existing Job: %w", err)
	}

	if err == nil {
		if waitErr := d.waitForJobDeletion(ctx); waitErr != nil {
			return fmt.Errorf("timeout waiting for Job deletion: %w", waitErr)
		}
	}

	_, err = d.clientset.BatchV1().Jobs(d.config.Namespace).
		Create(ctx, d.buildJob(), metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Job: %w", err)
	}

	return nil
}

// PlaybookArgs returns the ansible-playbook command line the pod runs.
func (d *Deployer) PlaybookArgs() []string {
	args := []string{ansibleBinary}
	if d.config.Verbose {
		args = append(args, "-vv")
	}
	args = append(args, "--extra-vars", "@"+path.Join(ExtraVarsMountPath, ExtraVarsKey))
	if d.config.hasSecretVars() {
		args = append(args, "--extra-vars", "@"+path.Join(ExtraVarsMountPath, SecretVarsKey))
	}
	return append(args, path.Join(d.config.PlaybookDir, d.config.Playbook+playbookFileExt))
}

// extraVarsVolumeSource projects the ConfigMap and, when present, the Secret
// into one directory.
func (d *Deployer) extraVarsVolumeSource() corev1.VolumeSource {
	sources := []corev1.VolumeProjection{{
		ConfigMap: &corev1.ConfigMapProjection{
			LocalObjectReference: corev1.LocalObjectReference{Name: d.config.ConfigMapName()},
		},
	}}
	if d.config.hasSecretVars() {
		sources = append(sources, corev1.VolumeProjection{
			Secret: &corev1.SecretProjection{
				LocalObjectReference: corev1.LocalObjectReference{Name: d.config.SecretName()},
			},
		})
	}
	return corev1.VolumeSource{
		Projected: &corev1.ProjectedVolumeSource{
			Sources:     sources,
			DefaultMode: ptr.To(int32(0o400)),
		},
	}
}

// buildJob constructs the Job specification.
func (d *Deployer) buildJob() *batchv1.Job {
	labels := d.labels()

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.JobName,
			Namespace: d.config.Namespace,
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			Completions:             ptr.To(int32(1)),
			Parallelism:             ptr.To(int32(1)),
			BackoffLimit:            ptr.To(int32(0)),
			TTLSecondsAfterFinished: ptr.To(int32(defaults.JobTTLAfterFinished.Seconds())),
			ActiveDeadlineSeconds:   ptr.To(int64(defaults.JobActiveDeadline.Seconds())),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: labels,
				},
				Spec: corev1.PodSpec{
					ServiceAccountName: d.config.ServiceAccountName,
					RestartPolicy:      corev1.RestartPolicyNever,
					NodeSelector:       d.config.NodeSelector,
					Tolerations:        d.config.Tolerations,
					ImagePullSecrets:   toLocalObjectReferences(d.config.ImagePullSecrets),
					Containers: []corev1.Container{
						{
							Name:    containerName,
							Image:   d.config.Image,
							Command: d.PlaybookArgs(),
							Env: []corev1.EnvVar{
								{Name: "ARTIFACT_DIR", Value: ArtifactDir},
								{Name: "ANSIBLE_LOG_PATH", Value: path.Join(ArtifactDir, "_ansible.log")},
								{Name: "TOOLBOX_RUN_ID", Value: d.config.RunID},
							},
							VolumeMounts: []corev1.VolumeMount{
								{
									Name:      extraVarsVolume,
									MountPath: ExtraVarsMountPath,
									ReadOnly:  true,
								},
								{
									Name:      artifactsVolume,
									MountPath: ArtifactDir,
								},
							},
							SecurityContext: &corev1.SecurityContext{
								AllowPrivilegeEscalation: ptr.To(false),
								RunAsNonRoot:             ptr.To(true),
								Capabilities: &corev1.Capabilities{
									Drop: []corev1.Capability{"ALL"},
								},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name:         extraVarsVolume,
							VolumeSource: d.extraVarsVolumeSource(),
						},
						{
							Name: artifactsVolume,
							VolumeSource: corev1.VolumeSource{
								EmptyDir: &corev1.EmptyDirVolumeSource{},
							},
						},
					},
				},
			},
		},
	}
}

// deleteJob deletes the Job and its pods.
func (d *Deployer) deleteJob(ctx context.Context) error {
	propagationPolicy := metav1.DeletePropagationForeground
	err := d.clientset.BatchV1().Jobs(d.config.Namespace).Delete(
		ctx,
		d.config.JobName,
		metav1.DeleteOptions{
			PropagationPolicy: &propagationPolicy,
		},
	)
	return ignoreNotFound(err)
}

// waitForJobDeletion waits for the Job to be fully deleted.
func (d *Deployer) waitForJobDeletion(ctx context.Context) error {
	return wait.PollUntilContextTimeout(ctx, defaults.K8sPollInterval, defaults.K8sJobDeletionTimeout, true,
		func(ctx context.Context) (bool, error) {
			_, err := d.clientset.BatchV1().Jobs(d.config.Namespace).
				Get(ctx, d.config.JobName, metav1.GetOptions{})
			if errors.IsNotFound(err) {
				return true, nil
			}
			if err != nil {
				return false, err
			}
			return false, nil
		},
	)
}

// toLocalObjectReferences converts a slice of secret names to LocalObjectReferences.
func toLocalObjectReferences(names []string) []corev1.LocalObjectReference {
	if len(names) == 0 {
		return nil
	}
	refs := make([]corev1.LocalObjectReference, len(names))
	for i, name := range names {
		refs[i] = corev1.LocalObjectReference{Name: name}
	}
	return refs
}
