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
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
	statusError   = "error"
)

var (
	playbookRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolbox_playbook_runs_total",
			Help: "Total number of playbook runs",
		},
		[]string{"runner", "playbook", "status"}, // success, failure or error
	)

	playbookRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolbox_playbook_run_duration_seconds",
			Help:    "Time taken by a playbook run",
			Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"runner", "playbook"},
	)
)

// instrumented records metrics and a log line for every run of next.
type instrumented struct {
	kind Kind
	next Runner
}

func (i *instrumented) Run(ctx context.Context, inv toolbox.Invocation) (*Result, error) {
	start := time.Now()
	res, err := i.next.Run(ctx, inv)

	status := statusSuccess
	switch {
	case err != nil:
		status = statusError
	case !res.Success():
		status = statusFailure
	}

	playbookRunsTotal.WithLabelValues(string(i.kind), inv.Name(), status).Inc()
	playbookRunDuration.WithLabelValues(string(i.kind), inv.Name()).Observe(time.Since(start).Seconds())

	attrs := []any{
		slog.String("runner", string(i.kind)),
		slog.String("playbook", inv.Name()),
		slog.String("status", status),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		slog.Error("playbook run failed", append(attrs, slog.String("error", err.Error()))...)
	} else {
		slog.Info("playbook run finished", append(attrs, slog.Int("exitCode", res.ExitCode))...)
	}

	return res, err
}

// MetricsJob is the Pushgateway job name of toolbox run metrics.
const MetricsJob = "toolbox"

// PushMetrics pushes the run metrics to a Prometheus Pushgateway. A toolbox
// process exits before any scraper could see them.
func PushMetrics(ctx context.Context, gatewayURL string, grouping map[string]string) error {
	pusher := push.New(gatewayURL, MetricsJob).
		Collector(playbookRunsTotal).
		Collector(playbookRunDuration)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
