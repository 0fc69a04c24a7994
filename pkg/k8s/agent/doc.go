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

// Package agent runs toolbox playbooks inside the target cluster as a Kubernetes Job.
//
// # Overview
//
// A Deployer turns one playbook run into cluster resources:
//
//  1. ServiceAccount bound to cluster-admin (the playbooks install operators)
//  2. ConfigMap holding the rendered extra-vars
//  3. Job running ansible-playbook against the mounted extra-vars
//
// All resources carry the run id label so their pods and logs can be found.
//
// # Usage
//
//	d := agent.NewDeployer(clientset, agent.Config{
//	    Namespace:          "toolbox",
//	    ServiceAccountName: "toolbox",
//	    JobName:            "toolbox-addon-install",
//	    Image:              "quay.io/openshift-psap/ci-artifacts:latest",
//	    Playbook:           inv.Name(),
//	    PlaybookDir:        "/opt/ci-artifacts/playbooks",
//	    ExtraVars:          vars,
//	    RunID:              runID,
//	})
//	if err := d.Deploy(ctx); err != nil {
//	    return err
//	}
//	defer d.Cleanup(context.Background(), agent.CleanupOptions{Enabled: true})
//	err := d.WaitForCompletion(ctx, timeout)
//
// # Idempotency
//
// RBAC resources are reused when they exist. The ConfigMap is updated in place.
// An existing Job with the same name is deleted and recreated.
package agent
