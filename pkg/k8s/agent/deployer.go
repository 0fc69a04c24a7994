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
	"time"

	"k8s.io/apimachinery/pkg/api/errors"
)

// Deploy creates all resources needed to run the playbook (RBAC, ConfigMap, Job).
func (d *Deployer) Deploy(ctx context.Context) error {
	if _, err := d.CheckPermissions(ctx); err != nil {
		return fmt.Errorf("insufficient permissions to run playbook %q in namespace %q: %w",
			d.config.Playbook, d.config.Namespace, err)
	}

	if err := d.ensureServiceAccount(ctx); err != nil {
		return fmt.Errorf("failed to create ServiceAccount: %w", err)
	}

	if err := d.ensureClusterRoleBinding(ctx); err != nil {
		return fmt.Errorf("failed to create ClusterRoleBinding: %w", err)
	}

	if err := d.ensureConfigMap(ctx); err != nil {
		return fmt.Errorf("failed to create ConfigMap: %w", err)
	}

	if err := d.ensureSecret(ctx); err != nil {
		return fmt.Errorf("failed to create Secret: %w", err)
	}

	if err := d.ensureJob(ctx); err != nil {
		return fmt.Errorf("failed to create Job: %w", err)
	}

	return nil
}

// WaitForCompletion waits for the playbook Job to complete.
// Returns ErrJobFailed if the Job fails and ErrJobTimeout if it does not finish in time.
func (d *Deployer) WaitForCompletion(ctx context.Context, timeout time.Duration) error {
	return d.waitForJobCompletion(ctx, timeout)
}

// Cleanup removes the Job, the ConfigMap and the Secret of this run. The
// ServiceAccount and ClusterRoleBinding are shared by concurrent runs in the
// namespace and are kept.
// If opts.Enabled is false, nothing is removed so the run can be inspected.
func (d *Deployer) Cleanup(ctx context.Context, opts CleanupOptions) error {
	if !opts.Enabled {
		return nil
	}

	if err := d.deleteJob(ctx); err != nil {
		return fmt.Errorf("failed to delete Job: %w", err)
	}

	if err := d.deleteConfigMap(ctx); err != nil {
		return fmt.Errorf("failed to delete ConfigMap: %w", err)
	}

	if err := d.deleteSecret(ctx); err != nil {
		return fmt.Errorf("failed to delete Secret: %w", err)
	}

	return nil
}

// ignoreAlreadyExists returns nil if the error is "already exists", otherwise returns the error.
func ignoreAlreadyExists(err error) error {
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// ignoreNotFound returns nil if the error is "not found", otherwise returns the error.
func ignoreNotFound(err error) error {
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}
