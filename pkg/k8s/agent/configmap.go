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

// ensureConfigMap stores the extra-vars, replacing the content of an existing ConfigMap.
func (d *Deployer) ensureConfigMap(ctx context.Context) error {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.ConfigMapName(),
			Namespace: d.config.Namespace,
			Labels:    d.labels(),
		},
		Data: map[string]string{
			ExtraVarsKey: string(d.config.ExtraVars),
		},
	}

	client := d.clientset.CoreV1().ConfigMaps(d.config.Namespace)

	_, err := client.Create(ctx, cm, metav1.CreateOptions{})
	if err == nil {
		return nil
	}
	if !errors.IsAlreadyExists(err) {
		return err
	}

	existing, err := client.Get(ctx, cm.Name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get existing ConfigMap: %w", err)
	}
	existing.Labels = cm.Labels
	existing.Data = cm.Data

	_, err = client.Update(ctx, existing, metav1.UpdateOptions{})
	return err
}

func (d *Deployer) deleteConfigMap(ctx context.Context) error {
	err := d.clientset.CoreV1().ConfigMaps(d.config.Namespace).
		Delete(ctx, d.config.ConfigMapName(), metav1.DeleteOptions{})
	return ignoreNotFound(err)
}
