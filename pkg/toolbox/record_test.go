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

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/errors"
)

func allInvocations() []Invocation {
	return []Invocation{
		NFDDeployFromCommit("https://example.org/nfd.git", "main", WithImageTag("ci-1")),
		NFDDeployFromOperatorHub(WithChannel("stable")),
		NFDUndeployFromOperatorHub(),
		OCMAddonInstall("tok", "c1", "https://api.openshift.com", "managed-odh",
			WithWaitForReadyState(true),
			WithAddonParams(AddonParam{ID: "email", Value: "me@example.com"})),
		OCMAddonRemove("c1", "https://api.openshift.com", "managed-odh", WithWaitUntilRemoved(true)),
	}
}

func TestFromRecord_RoundTrip(t *testing.T) {
	for _, inv := range allInvocations() {
		t.Run(inv.Name(), func(t *testing.T) {
			got, err := FromRecord(inv.Record())
			require.NoError(t, err)
			assert.True(t, inv.Equal(got))

			data, err := yaml.Marshal(inv)
			require.NoError(t, err)
			var fromYAML Record
			require.NoError(t, yaml.Unmarshal(data, &fromYAML))
			got, err = FromRecord(fromYAML)
			require.NoError(t, err)
			assert.True(t, inv.Equal(got), "yaml: %s", data)

			data, err = json.Marshal(inv)
			require.NoError(t, err)
			var fromJSON Record
			require.NoError(t, json.Unmarshal(data, &fromJSON))
			got, err = FromRecord(fromJSON)
			require.NoError(t, err)
			assert.True(t, inv.Equal(got), "json: %s", data)
		})
	}
}

func TestFromRecord_YAMLAddonParams(t *testing.T) {
	doc := `name: addon_install
options:
  ocm_token: tok
  ocm_cluster_id: c1
  ocm_url: https://api.openshift.com
  ocm_addon_id: managed-odh
  wait_for_ready_state: false
  ocm_addon_params:
    - id: a
      value: "1"
    - id: b
      value: two
`
	var rec Record
	require.NoError(t, yaml.Unmarshal([]byte(doc), &rec))

	inv, err := FromRecord(rec)
	require.NoError(t, err)
	want := OCMAddonInstall("tok", "c1", "https://api.openshift.com", "managed-odh",
		WithAddonParams(AddonParam{ID: "a", Value: "1"}, AddonParam{ID: "b", Value: "two"}))
	assert.True(t, want.Equal(inv), "got %+v", inv.Record())
}

func TestFromRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{name: "unknown name", rec: Record{Name: "cluster_destroy"}},
		{name: "missing required", rec: Record{Name: NameAddonRemove, Options: Options{
			KeyOCMClusterID: "c1", KeyOCMURL: "u", KeyOCMAddonID: "a",
		}}},
		{name: "unknown key", rec: Record{Name: NameNFDUndeploy, Options: Options{"extra": "x"}}},
		{name: "token on remove", rec: Record{Name: NameAddonRemove, Options: Options{
			KeyOCMClusterID: "c1", KeyOCMURL: "u", KeyOCMAddonID: "a", KeyWaitUntilRemoved: false, KeyOCMToken: "t",
		}}},
		{name: "string for bool", rec: Record{Name: NameAddonRemove, Options: Options{
			KeyOCMClusterID: "c1", KeyOCMURL: "u", KeyOCMAddonID: "a", KeyWaitUntilRemoved: "yes",
		}}},
		{name: "bool for string", rec: Record{Name: NameNFDDeployCustomCommit, Options: Options{
			KeyNFDGitRepo: true, KeyNFDGitRef: "main",
		}}},
		{name: "malformed params", rec: Record{Name: NameAddonInstall, Options: Options{
			KeyOCMToken: "t", KeyOCMClusterID: "c1", KeyOCMURL: "u", KeyOCMAddonID: "a",
			KeyWaitForReadyState: false, KeyOCMAddonParams: []any{"email=me"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRecord(tt.rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest), "got %v", err)
		})
	}
}

func TestFromRecord_EmptyParamsDropped(t *testing.T) {
	inv, err := FromRecord(Record{Name: NameAddonInstall, Options: Options{
		KeyOCMToken: "t", KeyOCMClusterID: "c1", KeyOCMURL: "u", KeyOCMAddonID: "a",
		KeyWaitForReadyState: false, KeyOCMAddonParams: []any{},
	}})
	require.NoError(t, err)
	assert.NotContains(t, inv.Options(), KeyOCMAddonParams)
	assert.True(t, inv.Equal(OCMAddonInstall("t", "c1", "u", "a")))
}
