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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/defaults"
)

// jobFinished reports whether the Job reached a terminal condition.
// A non-nil error means the Job failed.
func jobFinished(job *batchv1.Job) (bool, error) {
	for _, condition := range job.Status.Conditions {
		if condition.Status != corev1.ConditionTrue {
			continue
		}
		switch condition.Type {
		case batchv1.JobComplete:
			return true, nil
		case batchv1.JobFailed:
			return true, fmt.Errorf("%w: %s", ErrJobFailed, condition.Message)
		}
	}
	return false, nil
}

// waitForJobCompletion waits for the Job to complete successfully or fail.
func (d *Deployer) waitForJobCompletion(ctx context.Context, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Finished runs return without opening a watch.
	job, err := d.clientset.BatchV1().Jobs(d.config.Namespace).Get(timeoutCtx, d.config.JobName, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get Job: %w", err)
	}
	if done, err := jobFinished(job); done {
		return err
	}

	watcher, err := d.clientset.BatchV1().Jobs(d.config.Namespace).Watch(
		timeoutCtx,
		metav1.ListOptions{
			FieldSelector: fmt.Sprintf("metadata.name=%s", d.config.JobName),
			Watch:         true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to watch Job: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-timeoutCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w %q after %v", ErrJobTimeout, d.config.JobName, timeout)

		case event, ok := <-watcher.ResultChan():
			if !ok {
				return fmt.Errorf("watch channel closed unexpectedly")
			}

			if event.Type == watch.Error {
				return fmt.Errorf("watch error: %v", event.Object)
			}

			job, ok := event.Object.(*batchv1.Job)
			if !ok {
				continue
			}

			if done, err := jobFinished(job); done {
				return err
			}
		}
	}
}

// podSelector selects the pods of this run.
func (d *Deployer) podSelector() string {
	return labels.SelectorFromSet(d.labels()).String()
}

func (d *Deployer) findPod(ctx context.Context) (*corev1.Pod, error) {
	pods, err := d.clientset.CoreV1().Pods(d.config.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: d.podSelector(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list Pods: %w", err)
	}
	if len(pods.Items) == 0 {
		return nil, fmt.Errorf("no Pods found for Job %s", d.config.JobName)
	}
	return &pods.Items[0], nil
}

// StreamLogs follows the playbook pod logs and writes them line by line to w.
// Returns when the pod exits, the context is canceled or an error occurs.
func (d *Deployer) StreamLogs(ctx context.Context, w io.Writer, prefix string) error {
	return d.StreamLogsSince(ctx, w, prefix, nil)
}

// StreamLogsSince is StreamLogs starting at since. A nil since streams the
// whole log.
func (d *Deployer) StreamLogsSince(ctx context.Context, w io.Writer, prefix string, since *metav1.Time) error {
	pod, err := d.findPod(ctx)
	if err != nil {
		return err
	}

	req := d.clientset.CoreV1().Pods(d.config.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{
		Container: containerName,
		Follow:    true,
		SinceTime: since,
	})

	logs, err := req.Stream(ctx)
	if err != nil {
		return fmt.Errorf("failed to stream logs: %w", err)
	}
	defer logs.Close()

	scanner := bufio.NewScanner(logs)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if prefix != "" {
				fmt.Fprintf(w, "%s %s\n", prefix, scanner.Text())
			} else {
				fmt.Fprintln(w, scanner.Text())
			}
		}
	}

	return scanner.Err()
}

// GetPodLogs retrieves the complete logs of the playbook pod.
func (d *Deployer) GetPodLogs(ctx context.Context) (string, error) {
	pod, err := d.findPod(ctx)
	if err != nil {
		return "", err
	}

	req := d.clientset.CoreV1().Pods(d.config.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{
		Container: containerName,
	})

	logs, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to stream logs: %w", err)
	}
	defer logs.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, logs); err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}

	return buf.String(), nil
}

// WaitForPodReady waits for the playbook pod to start running, or to have
// already finished. Logs can be streamed once it returns.
func (d *Deployer) WaitForPodReady(ctx context.Context, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, defaults.K8sPollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			pods, err := d.clientset.CoreV1().Pods(d.config.Namespace).List(ctx, metav1.ListOptions{
				LabelSelector: d.podSelector(),
			})
			if err != nil {
				return false, err
			}

			if len(pods.Items) == 0 {
				return false, nil
			}

			switch pods.Items[0].Status.Phase {
			case corev1.PodRunning, corev1.PodSucceeded, corev1.PodFailed:
				return true, nil
			default:
				return false, nil
			}
		},
	)
}

// ExitCode returns the exit code of the playbook container.
// Fails if the container has not terminated.
func (d *Deployer) ExitCode(ctx context.Context) (int, error) {
	pod, err := d.findPod(ctx)
	if err != nil {
		return 0, err
	}

	for _, status := range pod.Status.ContainerStatuses {
		if status.Name != containerName {
			continue
		}
		if status.State.Terminated == nil {
			return 0, fmt.Errorf("container %s in pod %s has not terminated", containerName, pod.Name)
		}
		return int(status.State.Terminated.ExitCode), nil
	}

	return 0, fmt.Errorf("container %s not found in pod %s", containerName, pod.Name)
}

// PodFinished reports whether the playbook pod has exited, so a log stream
// that ended is complete.
func (d *Deployer) PodFinished(ctx context.Context) (bool, error) {
	pod, err := d.findPod(ctx)
	if err != nil {
		return false, err
	}

	switch pod.Status.Phase {
	case corev1.PodSucceeded, corev1.PodFailed:
		return true, nil
	}

	for _, status := range pod.Status.ContainerStatuses {
		if status.Name == containerName && status.State.Terminated != nil {
			return true, nil
		}
	}
	return false, nil
}
