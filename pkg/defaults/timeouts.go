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

package defaults

import "time"

// Runner timeouts.
const (
	// PlaybookTimeout bounds a whole playbook run. Addon installs that wait for
	// the ready state are the slowest playbooks.
	PlaybookTimeout = 60 * time.Minute
)

// Kubernetes timeouts for the Job runner.
const (
	// K8sPodReadyTimeout is the timeout for waiting for the playbook pod to run.
	K8sPodReadyTimeout = 2 * time.Minute

	// K8sJobDeletionTimeout bounds waiting for a previous Job to disappear.
	K8sJobDeletionTimeout = 30 * time.Second

	// K8sCleanupTimeout is the timeout for cleanup operations.
	K8sCleanupTimeout = 30 * time.Second

	// K8sPollInterval is the interval between status polls.
	K8sPollInterval = 500 * time.Millisecond

	// K8sLogReconnectInterval is the minimum interval between attempts to
	// reopen a dropped pod log stream.
	K8sLogReconnectInterval = 2 * time.Second

	// K8sLogReconnectAttempts bounds how often a dropped log stream is reopened.
	K8sLogReconnectAttempts = 5
)

// Job runner resource bounds.
const (
	// JobTTLAfterFinished keeps finished Jobs around for inspection.
	JobTTLAfterFinished = 1 * time.Hour

	// JobActiveDeadline is the hard limit enforced by Kubernetes on the Job.
	// It is longer than PlaybookTimeout so the client gives up first.
	JobActiveDeadline = 90 * time.Minute
)
