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

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ensureSecret stores the secret extra-vars, replacing the content of an
// existing Secret. Nothing is created when the run has no secrets.
func (d *Deployer) ensureSecret(ctx context.Context) error {
	if !d.config.hasSecretVars() {
		return nil
	}

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.SecretName(),
			Namespace: d.config.Namespace,
			Labels:    d.labels(),
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			SecretVarsKey: d.config.SecretVars,
		},
	}

	client := d.clientset.CoreV1().Secrets(d.config.Namespace)

	_, err := client.Create(ctx, secret, metav1.CreateOptions{})
	if err == nil {
		return nil
	}
	if !errors.IsAlreadyExists(err) {
		return err
	}

	existing, err := client.Get(ctx, secret.Name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get existing Secret: %w", err)
	}
	existing.Labels = secret.Labels
	existing.Data = secret.Data

	_, err = client.Update(ctx, existing, metav1.UpdateOptions{})
	return err
}

func (d *Deployer) deleteSecret(ctx context.Context) error {
	err := d.clientset.CoreV1().Secrets(d.config.Namespace).
		Delete(ctx, d.config.SecretName(), metav1.DeleteOptions{})
	return ignoreNotFound(err)
}
