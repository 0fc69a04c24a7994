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

package toolbox

import "slices"

// Invocation identifiers for the OCM addon commands.
const (
	NameAddonInstall = "addon_install"
	NameAddonRemove  = "addon_remove"
)

// Extra-vars keys for the OCM addon commands.
const (
	KeyOCMToken          = "ocm_token"
	KeyOCMClusterID      = "ocm_cluster_id"
	KeyOCMURL            = "ocm_url"
	KeyOCMAddonID        = "ocm_addon_id"
	KeyOCMAddonParams    = "ocm_addon_params"
	KeyWaitForReadyState = "wait_for_ready_state"
	KeyWaitUntilRemoved  = "wait_until_removed"
)

type installConfig struct {
	params            []AddonParam
	waitForReadyState bool
}

// InstallOption configures OCMAddonInstall.
type InstallOption func(*installConfig)

// WithAddonParams sets the addon parameters. The slice is copied.
func WithAddonParams(params ...AddonParam) InstallOption {
	return func(c *installConfig) {
		c.params = slices.Clone(params)
	}
}

// WithWaitForReadyState makes the playbook wait until the addon reports ready (can time out).
func WithWaitForReadyState(wait bool) InstallOption {
	return func(c *installConfig) {
		c.waitForReadyState = wait
	}
}

// OCMAddonInstall installs an OCM addon.
//
//   - token: OCM offline token
//   - clusterID: cluster ID from OCM's point of view
//   - ocmURL: OCM API URL, used to determine the environment
//   - addonID: the addon to install, e.g. managed-odh or gpu-operator-certified-addon
//
// Addon parameters are only included when at least one is given.
func OCMAddonInstall(token, clusterID, ocmURL, addonID string, opts ...InstallOption) Invocation {
	cfg := &installConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	o := Options{
		KeyOCMAddonID:        addonID,
		KeyOCMClusterID:      clusterID,
		KeyOCMURL:            ocmURL,
		KeyOCMToken:          token,
		KeyWaitForReadyState: cfg.waitForReadyState,
	}
	if len(cfg.params) > 0 {
		o[KeyOCMAddonParams] = slices.Clone(cfg.params)
	}

	return newInvocation(NameAddonInstall, o)
}

type removeConfig struct {
	waitUntilRemoved bool
}

// RemoveOption configures OCMAddonRemove.
type RemoveOption func(*removeConfig)

// WithWaitUntilRemoved makes the playbook wait until the addon is gone from the cluster (can time out).
func WithWaitUntilRemoved(wait bool) RemoveOption {
	return func(c *removeConfig) {
		c.waitUntilRemoved = wait
	}
}

// OCMAddonRemove removes an OCM addon. No token is passed for removal.
func OCMAddonRemove(clusterID, ocmURL, addonID string, opts ...RemoveOption) Invocation {
	cfg := &removeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return newInvocation(NameAddonRemove, Options{
		KeyOCMAddonID:       addonID,
		KeyOCMClusterID:     clusterID,
		KeyOCMURL:           ocmURL,
		KeyWaitUntilRemoved: cfg.waitUntilRemoved,
	})
}
