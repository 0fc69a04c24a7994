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
	"fmt"
	"slices"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/errors"
)

// boolKeys are the option keys that carry a bool value. Every other key except
// KeyOCMAddonParams carries a string.
var boolKeys = []string{
	KeyDeployOperatorDeployCR,
	KeyWaitForReadyState,
	KeyWaitUntilRemoved,
}

// FromRecord turns a serialized Record back into an Invocation, checking it
// against the operation catalog. Unlike the builder functions it validates:
// the name must be known, every required key present, no unknown keys, and
// every value of the right type.
func FromRecord(rec Record) (Invocation, error) {
	op, ok := Lookup(rec.Name)
	if !ok {
		return Invocation{}, errors.New(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown invocation %q", rec.Name))
	}

	for _, k := range op.RequiredKeys {
		if _, ok := rec.Options[k]; !ok {
			return Invocation{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invocation %s is missing option %q", rec.Name, k),
				map[string]any{"required": op.RequiredKeys})
		}
	}

	opts := make(Options, len(rec.Options))
	for _, k := range rec.Options.Keys() {
		if !slices.Contains(op.RequiredKeys, k) && !slices.Contains(op.OptionalKeys, k) {
			return Invocation{}, errors.New(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invocation %s does not accept option %q", rec.Name, k))
		}
		v, err := normalizeOption(k, rec.Options[k])
		if err != nil {
			return Invocation{}, errors.Wrap(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid option %q", k), err)
		}
		if params, ok := v.([]AddonParam); ok && len(params) == 0 {
			continue
		}
		opts[k] = v
	}

	return newInvocation(rec.Name, opts), nil
}

func normalizeOption(key string, v any) (any, error) {
	switch {
	case key == KeyOCMAddonParams:
		return toAddonParams(v)
	case slices.Contains(boolKeys, key):
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	}
}

// toAddonParams accepts []AddonParam or the []any of maps produced by the
// JSON and YAML decoders.
func toAddonParams(v any) ([]AddonParam, error) {
	switch params := v.(type) {
	case []AddonParam:
		return slices.Clone(params), nil
	case []any:
		out := make([]AddonParam, 0, len(params))
		for i, item := range params {
			var m map[string]any
			switch item := item.(type) {
			case map[string]any:
				m = item
			case Options:
				// yaml.v3 decodes nested mappings as the enclosing map type.
				m = item
			default:
				return nil, fmt.Errorf("param %d: expected mapping, got %T", i, item)
			}
			id, idOK := m["id"].(string)
			value, valueOK := m["value"].(string)
			if !idOK || !valueOK || len(m) != 2 {
				return nil, fmt.Errorf("param %d: expected string keys id and value", i)
			}
			out = append(out, AddonParam{ID: id, Value: value})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of params, got %T", v)
	}
}
