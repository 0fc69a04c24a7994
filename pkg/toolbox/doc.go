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

// Package toolbox builds playbook invocations for operator and addon management tasks.
//
// # Overview
//
// Every toolbox command is a pure function from typed arguments to an Invocation:
// the name of the playbook to run and the extra variables to run it with. Nothing in
// this package talks to a cluster or starts a process; an Invocation is handed to a
// runner (see pkg/runner) which executes it and reports the outcome.
//
// # Commands
//
// NFD operator:
//
//	inv := toolbox.NFDDeployFromCommit(
//	    "https://github.com/openshift/cluster-nfd-operator.git", "master",
//	    toolbox.WithImageTag("ci-1234"),
//	)
//
//	inv := toolbox.NFDDeployFromOperatorHub(toolbox.WithChannel("4.12"))
//
//	inv := toolbox.NFDUndeployFromOperatorHub()
//
// OCM addons:
//
//	inv := toolbox.OCMAddonInstall(token, clusterID, "https://api.openshift.com", "managed-odh",
//	    toolbox.WithWaitForReadyState(true),
//	    toolbox.WithAddonParams(toolbox.AddonParam{ID: "notification-email", Value: "me@example.com"}),
//	)
//
//	inv := toolbox.OCMAddonRemove(clusterID, "https://api.openshift.com", "managed-odh")
//
// # Optional Arguments
//
// Optional arguments are functional options. An optional key is only present in the
// options mapping when the option was supplied. Boolean flags with a meaningful default
// (wait_for_ready_state, wait_until_removed) are always present.
//
// # Determinism
//
// Equal arguments always produce equal invocations. Options returns a copy, so callers
// can modify the mapping they get back without affecting the Invocation.
package toolbox
