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
	"maps"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// Options maps an extra-vars key to its value. Values are string, bool, int,
// or []AddonParam.
type Options map[string]any

// Keys returns the option keys in sorted order.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddonParam is a single addon parameter passed through to OCM unmodified.
type AddonParam struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

// Invocation pairs a playbook name with the options it runs with.
// It is immutable once constructed.
type Invocation struct {
	name    string
	options Options
}

func newInvocation(name string, opts Options) Invocation {
	if opts == nil {
		opts = Options{}
	}
	return Invocation{name: name, options: opts}
}

// Name returns the invocation identifier the runner uses to locate the playbook.
func (i Invocation) Name() string {
	return i.name
}

// Options returns a copy of the options mapping.
func (i Invocation) Options() Options {
	out := make(Options, len(i.options))
	for k, v := range i.options {
		if params, ok := v.([]AddonParam); ok {
			v = slices.Clone(params)
		}
		out[k] = v
	}
	return out
}

// SplitSecrets returns the options in two parts: the plain options and the
// credentials listed as SecretKeys in the catalog. Secrets is empty, not nil,
// when the operation has none.
func (i Invocation) SplitSecrets() (plain, secrets Options) {
	plain = i.Options()
	secrets = Options{}
	op, ok := Lookup(i.name)
	if !ok {
		return plain, secrets
	}
	for _, k := range op.SecretKeys {
		if v, found := plain[k]; found {
			secrets[k] = v
			delete(plain, k)
		}
	}
	return plain, secrets
}

// Equal reports whether both invocations have the same name and options.
func (i Invocation) Equal(other Invocation) bool {
	if i.name != other.name {
		return false
	}
	return maps.EqualFunc(i.options, other.options, func(a, b any) bool {
		pa, aok := a.([]AddonParam)
		pb, bok := b.([]AddonParam)
		if aok || bok {
			return aok && bok && slices.Equal(pa, pb)
		}
		return a == b
	})
}

// Record is the plain, serializable form of an Invocation.
type Record struct {
	Name    string  `json:"name" yaml:"name"`
	Options Options `json:"options" yaml:"options"`
}

// Record returns a detached copy of the invocation as a plain struct.
func (i Invocation) Record() Record {
	return Record{Name: i.name, Options: i.Options()}
}

// MarshalJSON implements json.Marshaler.
func (i Invocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Record())
}

// MarshalYAML implements yaml.Marshaler.
func (i Invocation) MarshalYAML() (any, error) {
	return i.Record(), nil
}

var _ yaml.Marshaler = Invocation{}
