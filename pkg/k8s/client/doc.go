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

// Package client builds Kubernetes clients for the Job runner.
//
// New resolves the kubeconfig in this order:
//   - the explicit Options.Kubeconfig path
//   - KUBECONFIG environment variable
//   - ~/.kube/config
//   - in-cluster service account
//
// Options.Context overrides the current-context, which is what the
// --kubeconfig and --kube-context CLI flags map to:
//
//	clientset, _, err := client.New(client.Options{
//	    Kubeconfig: "/path/to/kubeconfig",
//	    Context:    "ci-cluster",
//	})
//	if err != nil {
//	    return fmt.Errorf("failed to build kubernetes client: %w", err)
//	}
//
// Tests use k8s.io/client-go/kubernetes/fake, which satisfies Interface.
package client
