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

// Package serializer writes and reads toolbox data in JSON, YAML or table form.
//
// The CLI uses it to print invocations (dry-run, list) and the runners use it to
// render playbook extra-vars files.
//
// Usage:
//
//	w, err := serializer.NewFileWriter(serializer.FormatYAML, path)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	if err := w.Serialize(ctx, inv); err != nil {
//		return err
//	}
//
// Reading addon parameters back from a file:
//
//	params, err := serializer.FromFile[[]toolbox.AddonParam]("params.yaml")
//
// Table output flattens nested values into dotted keys sorted alphabetically.
package serializer
