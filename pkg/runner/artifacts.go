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

package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/serializer"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

const (
	// ExtraVarsFile is the extra-vars document written to each artifact directory.
	ExtraVarsFile = "_ansible.extravars.yaml"
	// EnvFile records the environment the playbook was started with.
	EnvFile = "_ansible.env"
	// LogFile is the ansible log inside the artifact directory.
	LogFile = "_ansible.log"

	artifactSeparator = "__"
	maxArtifactTries  = 100
)

// ExtraVars renders the invocation options as an ansible extra-vars YAML
// document. Secret options are left out, see SecretExtraVars.
func ExtraVars(inv toolbox.Invocation) ([]byte, error) {
	plain, _ := inv.SplitSecrets()
	data, err := yaml.Marshal(map[string]any(plain))
	if err != nil {
		return nil, fmt.Errorf("failed to render extra-vars for %s: %w", inv.Name(), err)
	}
	return data, nil
}

// SecretExtraVars renders only the secret options. It returns nil when the
// invocation carries none.
func SecretExtraVars(inv toolbox.Invocation) ([]byte, error) {
	_, secrets := inv.SplitSecrets()
	if len(secrets) == 0 {
		return nil, nil
	}
	data, err := yaml.Marshal(map[string]any(secrets))
	if err != nil {
		return nil, fmt.Errorf("failed to render secret extra-vars for %s: %w", inv.Name(), err)
	}
	return data, nil
}

// writeSecretVars writes data to a private temporary file outside any
// artifact directory. The caller removes it.
func writeSecretVars(data []byte) (string, error) {
	f, err := os.CreateTemp("", "toolbox-secrets-*.yaml")
	if err != nil {
		return "", fmt.Errorf("failed to create secret extra-vars file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close secret extra-vars file: %w", err)
	}
	if err := serializer.WriteToFile(path, data); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// NextArtifactDir creates and returns <root>/<NNN>__<name>, where NNN is one
// more than the highest index already present under root.
func NextArtifactDir(root, name string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact root %s: %w", root, err)
	}

	for range maxArtifactTries {
		next, err := nextArtifactIndex(root)
		if err != nil {
			return "", err
		}

		dir := filepath.Join(root, fmt.Sprintf("%03d%s%s", next, artifactSeparator, name))
		err = os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		// Another run took the index, rescan.
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}

	return "", fmt.Errorf("failed to allocate an artifact directory under %s", root)
}

func nextArtifactIndex(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact root %s: %w", root, err)
	}

	highest := -1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), artifactSeparator)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(prefix); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// writeEnvFile writes env as sorted KEY=VALUE lines.
func writeEnvFile(path string, env map[string]string) error {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, env[k])
	}
	return serializer.WriteToFile(path, []byte(b.String()))
}
