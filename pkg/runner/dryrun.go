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
	"context"
	"time"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/errors"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/serializer"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

// DryRun prints invocations instead of running them.
type DryRun struct {
	cfg Config
}

// NewDryRun creates a DryRun runner. Output goes to cfg.Output when set,
// otherwise to cfg.Stdout.
func NewDryRun(cfg Config) *DryRun {
	if cfg.Format == "" {
		cfg.Format = serializer.FormatYAML
	}
	return &DryRun{cfg: cfg}
}

func (d *DryRun) writer() (*serializer.Writer, error) {
	if d.cfg.Output != "" && d.cfg.Output != "-" {
		return serializer.NewFileWriter(d.cfg.Format, d.cfg.Output)
	}
	return serializer.NewWriter(d.cfg.Format, d.cfg.stdout()), nil
}

// Run serializes the invocation and reports success.
func (d *DryRun) Run(ctx context.Context, inv toolbox.Invocation) (*Result, error) {
	start := time.Now()

	w, err := d.writer()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to open dry-run output", err)
	}
	defer w.Close()

	if err := w.Serialize(ctx, inv.Record()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to write invocation", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to close dry-run output", err)
	}

	return &Result{
		Name:     inv.Name(),
		Duration: time.Since(start),
	}, nil
}
