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
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PermissionCheck represents a single permission check result.
type PermissionCheck struct {
	Resource  string
	Verb      string
	Namespace string
	Allowed   bool
	Reason    string
}

type requiredPermission struct {
	resource  string
	verb      string
	namespace string
}

func (d *Deployer) requiredPermissions() []requiredPermission {
	ns := d.config.Namespace
	perms := []requiredPermission{
		{"serviceaccounts", "create", ns},
		{"configmaps", "create", ns},
		{"configmaps", "update", ns},
		{"jobs", "create", ns},
		{"jobs", "delete", ns},
		{"jobs", "watch", ns},
		{"pods", "list", ns},
		{"pods/log", "get", ns},
		{"clusterrolebindings", "create", ""},
	}
	if d.config.hasSecretVars() {
		perms = append(perms,
			requiredPermission{"secrets", "create", ns},
			requiredPermission{"secrets", "update", ns},
		)
	}
	return perms
}

// CheckPermissions verifies that the current user can create the resources
// of a playbook run. Returns all check results and an error listing any
// missing permissions.
func (d *Deployer) CheckPermissions(ctx context.Context) ([]PermissionCheck, error) {
	checks := []PermissionCheck{}
	var missingPermissions []string

	for _, check := range d.requiredPermissions() {
		allowed, reason, err := d.checkPermission(ctx, check.resource, check.verb, check.namespace)
		if err != nil {
			return checks, fmt.Errorf("failed to check permission for %s %s: %w", check.verb, check.resource, err)
		}

		checks = append(checks, PermissionCheck{
			Resource:  check.resource,
			Verb:      check.verb,
			Namespace: check.namespace,
			Allowed:   allowed,
			Reason:    reason,
		})

		if !allowed {
			scope := "cluster-scoped"
			if check.namespace != "" {
				scope = fmt.Sprintf("namespace %q", check.namespace)
			}
			missingPermissions = append(missingPermissions,
				fmt.Sprintf("%s %s (%s)", check.verb, check.resource, scope))
		}
	}

	if len(missingPermissions) > 0 {
		return checks, fmt.Errorf("missing required permissions:\n  - %s",
			strings.Join(missingPermissions, "\n  - "))
	}

	return checks, nil
}

func (d *Deployer) checkPermission(ctx context.Context, resource, verb, namespace string) (bool, string, error) {
	attrs := &authv1.ResourceAttributes{
		Verb:      verb,
		Resource:  resource,
		Namespace: namespace,
	}
	if res, sub, ok := strings.Cut(resource, "/"); ok {
		attrs.Resource = res
		attrs.Subresource = sub
	}

	review := &authv1.SelfSubjectAccessReview{
		Spec: authv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: attrs,
		},
	}

	result, err := d.clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
	if err != nil {
		return false, "", err
	}

	return result.Status.Allowed, result.Status.Reason, nil
}
