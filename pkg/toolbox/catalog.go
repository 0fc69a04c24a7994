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

// Command groups.
const (
	GroupNFDOperator = "nfd-operator"
	GroupOCMAddon    = "ocm-addon"
)

// Operation describes one toolbox command and the extra-vars it produces.
type Operation struct {
	Group        string   `json:"group" yaml:"group"`
	Command      string   `json:"command" yaml:"command"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	RequiredKeys []string `json:"requiredKeys,omitempty" yaml:"requiredKeys,omitempty"`
	OptionalKeys []string `json:"optionalKeys,omitempty" yaml:"optionalKeys,omitempty"`
	// SecretKeys are credentials. Runners keep them out of ConfigMaps and artifacts.
	SecretKeys []string `json:"secretKeys,omitempty" yaml:"secretKeys,omitempty"`
}

// Operations returns the catalog of supported commands. A new slice is returned on every call.
func Operations() []Operation {
	return []Operation{
		{
			Group:        GroupNFDOperator,
			Command:      "deploy-from-commit",
			Name:         NameNFDDeployCustomCommit,
			Description:  "Deploys the NFD operator from the given git commit",
			RequiredKeys: []string{KeyNFDGitRepo, KeyNFDGitRef},
			OptionalKeys: []string{KeyNFDImageTag},
		},
		{
			Group:       GroupNFDOperator,
			Command:     "deploy-from-operatorhub",
			Name:        NameClusterDeployOperator,
			Description: "Deploys the NFD operator from OperatorHub",
			RequiredKeys: []string{
				KeyDeployOperatorCatalog,
				KeyDeployOperatorManifestName,
				KeyDeployOperatorNamespace,
				KeyDeployOperatorDeployCR,
			},
			OptionalKeys: []string{KeyDeployOperatorChannel},
		},
		{
			Group:       GroupNFDOperator,
			Command:     "undeploy-from-operatorhub",
			Name:        NameNFDUndeploy,
			Description: "Undeploys an NFD operator that was deployed from OperatorHub",
		},
		{
			Group:       GroupOCMAddon,
			Command:     "install",
			Name:        NameAddonInstall,
			Description: "Installs an OCM addon",
			RequiredKeys: []string{
				KeyOCMToken,
				KeyOCMClusterID,
				KeyOCMURL,
				KeyOCMAddonID,
				KeyWaitForReadyState,
			},
			OptionalKeys: []string{KeyOCMAddonParams},
			SecretKeys:   []string{KeyOCMToken},
		},
		{
			Group:        GroupOCMAddon,
			Command:      "remove",
			Name:         NameAddonRemove,
			Description:  "Removes an OCM addon",
			RequiredKeys: []string{KeyOCMClusterID, KeyOCMURL, KeyOCMAddonID, KeyWaitUntilRemoved},
		},
	}
}

// Lookup returns the operation with the given invocation name.
func Lookup(name string) (Operation, bool) {
	for _, op := range Operations() {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}
