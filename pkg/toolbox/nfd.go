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

// Invocation identifiers for the NFD operator commands.
const (
	NameNFDDeployCustomCommit = "operator_deploy_custom_commit"
	NameClusterDeployOperator = "cluster_deploy_operator"
	NameNFDUndeploy           = "operator_undeploy"
)

// Extra-vars keys for the NFD operator commands.
const (
	KeyNFDGitRepo  = "nfd_operator_git_repo"
	KeyNFDGitRef   = "nfd_operator_git_ref"
	KeyNFDImageTag = "nfd_operator_image_tag"

	KeyDeployOperatorCatalog      = "cluster_deploy_operator_catalog"
	KeyDeployOperatorManifestName = "cluster_deploy_operator_manifest_name"
	KeyDeployOperatorNamespace    = "cluster_deploy_operator_namespace"
	KeyDeployOperatorDeployCR     = "cluster_deploy_operator_deploy_cr"
	KeyDeployOperatorChannel      = "cluster_deploy_operator_channel"
)

const (
	// DefaultCatalog is the OperatorHub catalog used when none is given.
	DefaultCatalog = "redhat-operators"

	// NFDManifestName is the OperatorHub package manifest of the NFD operator.
	NFDManifestName = "nfd"

	// NFDNamespace is the namespace the NFD operator is deployed into.
	NFDNamespace = "openshift-nfd"
)

type commitConfig struct {
	imageTag *string
}

// CommitOption configures NFDDeployFromCommit.
type CommitOption func(*commitConfig)

// WithImageTag sets the tag the operator image is built and pushed with.
func WithImageTag(tag string) CommitOption {
	return func(c *commitConfig) {
		c.imageTag = &tag
	}
}

// NFDDeployFromCommit deploys the NFD operator from the given git commit.
//
//   - gitRepo: repository to deploy from, e.g. https://github.com/openshift/cluster-nfd-operator.git
//   - gitRef: ref to deploy from, e.g. master
func NFDDeployFromCommit(gitRepo, gitRef string, opts ...CommitOption) Invocation {
	cfg := &commitConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	o := Options{
		KeyNFDGitRepo: gitRepo,
		KeyNFDGitRef:  gitRef,
	}
	if cfg.imageTag != nil {
		o[KeyNFDImageTag] = *cfg.imageTag
	}

	return newInvocation(NameNFDDeployCustomCommit, o)
}

type operatorHubConfig struct {
	channel *string
	catalog string
}

// OperatorHubOption configures NFDDeployFromOperatorHub.
type OperatorHubOption func(*operatorHubConfig)

// WithChannel selects the OperatorHub channel to deploy, e.g. 4.12.
func WithChannel(channel string) OperatorHubOption {
	return func(c *operatorHubConfig) {
		c.channel = &channel
	}
}

// WithCatalog selects the catalog to install the operator from.
func WithCatalog(catalog string) OperatorHubOption {
	return func(c *operatorHubConfig) {
		c.catalog = catalog
	}
}

// NFDDeployFromOperatorHub deploys the NFD operator from OperatorHub.
// The operator custom resource is always created.
func NFDDeployFromOperatorHub(opts ...OperatorHubOption) Invocation {
	cfg := &operatorHubConfig{catalog: DefaultCatalog}
	for _, opt := range opts {
		opt(cfg)
	}

	o := Options{
		KeyDeployOperatorCatalog:      cfg.catalog,
		KeyDeployOperatorManifestName: NFDManifestName,
		KeyDeployOperatorNamespace:    NFDNamespace,
		KeyDeployOperatorDeployCR:     true,
	}
	if cfg.channel != nil {
		o[KeyDeployOperatorChannel] = *cfg.channel
	}

	return newInvocation(NameClusterDeployOperator, o)
}

// NFDUndeployFromOperatorHub undeploys an NFD operator that was deployed from OperatorHub.
func NFDUndeployFromOperatorHub() Invocation {
	return newInvocation(NameNFDUndeploy, nil)
}
