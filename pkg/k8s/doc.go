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

// Package k8s groups the Kubernetes integration of the toolbox.
//
// client: builds clientsets from kubeconfig or the in-cluster service account.
//
// agent: runs one playbook invocation as a Kubernetes Job. The rendered
// extra-vars are stored in a ConfigMap mounted into the pod, the pod runs
// ansible-playbook from the toolbox image, and the deployer reports the
// container exit code back to the caller.
//
//	deployer := agent.NewDeployer(clientset, agent.Config{
//	    Namespace: "toolbox",
//	    Image:     "ghcr.io/nvidia/toolbox:latest",
//	    Playbook:  "addon_install",
//	})
//	if err := deployer.Deploy(ctx); err != nil {
//	    return err
//	}
package k8s
