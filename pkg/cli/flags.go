/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/distribution/reference"
	"github.com/urfave/cli/v3"
	corev1 "k8s.io/api/core/v1"

	"github.com/NVIDIA/cloud-native-toolbox/pkg/defaults"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/runner"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/serializer"
	"github.com/NVIDIA/cloud-native-toolbox/pkg/toolbox"
)

// Global flag names.
const (
	flagLogLevel       = "log-level"
	flagLogJSON        = "log-json"
	flagRunner         = "runner"
	flagArtifactDir    = "artifact-dir"
	flagPlaybookDir    = "playbook-dir"
	flagAnsibleBinary  = "ansible-binary"
	flagVerbose        = "verbose"
	flagTimeout        = "timeout"
	flagKubeconfig     = "kubeconfig"
	flagKubeContext    = "kube-context"
	flagNamespace      = "namespace"
	flagImage          = "image"
	flagPullSecret     = "image-pull-secret"
	flagNodeSelector   = "node-selector"
	flagToleration     = "toleration"
	flagCleanup        = "cleanup"
	flagFormat         = "format"
	flagOutput         = "output"
	flagPushArtifacts  = "push-artifacts"
	flagPlainHTTP      = "plain-http"
	flagInsecureTLS    = "insecure-tls"
	flagMetricsGateway = "metrics-pushgateway"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("TOOLBOX_LOG_LEVEL", "LOG_LEVEL"),
			Value:   "info",
		},
		&cli.BoolFlag{
			Name:    flagLogJSON,
			Usage:   "Emit JSON logs",
			Sources: cli.EnvVars("TOOLBOX_LOG_JSON"),
		},
		&cli.StringFlag{
			Name:    flagRunner,
			Aliases: []string{"r"},
			Usage:   fmt.Sprintf("Runner that executes the playbook (supported: %s)", strings.Join(runner.SupportedKinds(), ", ")),
			Sources: cli.EnvVars("TOOLBOX_RUNNER"),
			Value:   string(runner.KindAnsible),
		},
		&cli.DurationFlag{
			Name:    flagTimeout,
			Usage:   "Maximum duration of a playbook run",
			Sources: cli.EnvVars("TOOLBOX_TIMEOUT"),
			Value:   defaults.PlaybookTimeout,
		},
		&cli.StringFlag{
			Name:    flagMetricsGateway,
			Usage:   "Prometheus Pushgateway URL to push run metrics to",
			Sources: cli.EnvVars("TOOLBOX_METRICS_PUSHGATEWAY"),
		},
		&cli.BoolFlag{
			Name:    flagVerbose,
			Aliases: []string{"V"},
			Usage:   "Run ansible-playbook with -vv",
			Sources: cli.EnvVars("TOOLBOX_VERBOSE"),
			Value:   true,
		},

		// ansible runner
		&cli.StringFlag{
			Name:      flagArtifactDir,
			Usage:     "Root directory for per-run artifact directories",
			Sources:   cli.EnvVars("TOOLBOX_ARTIFACT_DIR", "ARTIFACT_DIR"),
			Value:     runner.DefaultArtifactDir,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      flagPlaybookDir,
			Usage:     "Directory holding <name>.yml playbooks (job runner: path inside the image)",
			Sources:   cli.EnvVars("TOOLBOX_PLAYBOOK_DIR"),
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:    flagAnsibleBinary,
			Usage:   "ansible-playbook executable",
			Sources: cli.EnvVars("TOOLBOX_ANSIBLE_BINARY"),
			Value:   runner.DefaultAnsibleBinary,
		},
		&cli.StringFlag{
			Name:    flagPushArtifacts,
			Usage:   "Push the run's artifact directory to an OCI registry (format: oci://registry/repository[:tag])",
			Sources: cli.EnvVars("TOOLBOX_PUSH_ARTIFACTS"),
		},
		&cli.BoolFlag{
			Name:  flagPlainHTTP,
			Usage: "Use HTTP instead of HTTPS for the artifact registry",
		},
		&cli.BoolFlag{
			Name:  flagInsecureTLS,
			Usage: "Skip TLS certificate verification for the artifact registry",
		},

		// job runner
		&cli.StringFlag{
			Name:      flagKubeconfig,
			Aliases:   []string{"k"},
			Usage:     "Path to kubeconfig file (default: KUBECONFIG, ~/.kube/config, in-cluster)",
			Sources:   cli.EnvVars("TOOLBOX_KUBECONFIG"),
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:    flagKubeContext,
			Usage:   "Kubeconfig context to use",
			Sources: cli.EnvVars("TOOLBOX_KUBE_CONTEXT"),
		},
		&cli.StringFlag{
			Name:    flagNamespace,
			Aliases: []string{"n"},
			Usage:   "Namespace the playbook Job runs in",
			Sources: cli.EnvVars("TOOLBOX_NAMESPACE"),
			Value:   runner.DefaultNamespace,
		},
		&cli.StringFlag{
			Name:    flagImage,
			Usage:   "Container image for the playbook Job",
			Sources: cli.EnvVars("TOOLBOX_IMAGE"),
			Value:   runner.DefaultImage,
		},
		&cli.StringSliceFlag{
			Name:  flagPullSecret,
			Usage: "Image pull secret for the playbook Job (can be repeated)",
		},
		&cli.StringSliceFlag{
			Name:  flagNodeSelector,
			Usage: "Node selector for Job scheduling (format: key=value, can be repeated)",
		},
		&cli.StringSliceFlag{
			Name:  flagToleration,
			Usage: "Toleration for Job scheduling (format: key=value:effect or key:effect, can be repeated; default: tolerate all taints)",
		},
		&cli.BoolFlag{
			Name:    flagCleanup,
			Usage:   "Delete the Job and its resources after the run",
			Sources: cli.EnvVars("TOOLBOX_CLEANUP"),
		},

		// dry-run runner
		&cli.StringFlag{
			Name:    flagFormat,
			Aliases: []string{"t"},
			Usage:   fmt.Sprintf("Dry-run and list output format (supported: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
			Sources: cli.EnvVars("TOOLBOX_FORMAT"),
			Value:   string(serializer.FormatYAML),
		},
		&cli.StringFlag{
			Name:      flagOutput,
			Aliases:   []string{"o"},
			Usage:     "Dry-run and list output file path (default: stdout)",
			TakesFile: true,
		},
	}
}

// parseOutputFormat returns the --format value, rejecting unknown formats.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String(flagFormat))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", f)
	}
	return f, nil
}

// parseRunnerKind returns the --runner value, rejecting unknown runners.
func parseRunnerKind(cmd *cli.Command) (runner.Kind, error) {
	k := runner.Kind(cmd.String(flagRunner))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown runner %q (supported: %s)", k, strings.Join(runner.SupportedKinds(), ", "))
	}
	return k, nil
}

// parseNodeSelectors parses selector strings in format "key=value".
func parseNodeSelectors(selectors []string) (map[string]string, error) {
	if len(selectors) == 0 {
		return nil, nil
	}
	result := make(map[string]string, len(selectors))
	for _, s := range selectors {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid format %q, expected key=value", s)
		}
		result[key] = value
	}
	return result, nil
}

var taintEffects = []corev1.TaintEffect{
	corev1.TaintEffectNoSchedule,
	corev1.TaintEffectPreferNoSchedule,
	corev1.TaintEffectNoExecute,
}

// parseTolerations parses toleration strings in format "key=value:effect" or
// "key:effect". No tolerations means tolerate every taint.
func parseTolerations(tolerations []string) ([]corev1.Toleration, error) {
	if len(tolerations) == 0 {
		return runner.TolerateAll(), nil
	}

	result := make([]corev1.Toleration, 0, len(tolerations))
	for _, t := range tolerations {
		kv, effect, ok := strings.Cut(t, ":")
		if !ok || strings.Contains(effect, ":") {
			return nil, fmt.Errorf("invalid format %q, expected key=value:effect or key:effect", t)
		}
		if !slices.Contains(taintEffects, corev1.TaintEffect(effect)) {
			return nil, fmt.Errorf("invalid effect %q in %q, expected one of %v", effect, t, taintEffects)
		}

		key, value, hasValue := strings.Cut(kv, "=")
		if key == "" {
			return nil, fmt.Errorf("invalid format %q, key is required", t)
		}

		toleration := corev1.Toleration{
			Key:    key,
			Effect: corev1.TaintEffect(effect),
		}
		if hasValue && value != "" {
			toleration.Operator = corev1.TolerationOpEqual
			toleration.Value = value
		} else {
			toleration.Operator = corev1.TolerationOpExists
		}
		result = append(result, toleration)
	}
	return result, nil
}

// parseAddonParams parses addon parameters in format "id=value". The value
// may contain "=".
func parseAddonParams(params []string) ([]toolbox.AddonParam, error) {
	result := make([]toolbox.AddonParam, 0, len(params))
	for _, p := range params {
		id, value, ok := strings.Cut(p, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid addon param %q, expected id=value", p)
		}
		result = append(result, toolbox.AddonParam{ID: id, Value: value})
	}
	return result, nil
}

var (
	anchoredTagRegexp = regexp.MustCompile(`^` + reference.TagRegexp.String() + `$`)
	scpLikeGitRegexp  = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:[^/].*$`)
	gitURLSchemes     = []string{"https", "http", "ssh", "git", "file"}
)

// validateGitURL accepts URLs git can clone from: scheme URLs and scp-like
// user@host:path addresses.
func validateGitURL(s string) error {
	if scpLikeGitRegexp.MatchString(s) {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid git repository URL %q: %w", s, err)
	}
	if !slices.Contains(gitURLSchemes, u.Scheme) {
		return fmt.Errorf("invalid git repository URL %q: scheme must be one of %v", s, gitURLSchemes)
	}
	if u.Scheme != "file" && u.Host == "" {
		return fmt.Errorf("invalid git repository URL %q: host is required", s)
	}
	if u.Path == "" || u.Path == "/" {
		return fmt.Errorf("invalid git repository URL %q: repository path is required", s)
	}
	return nil
}

// validateImageTag checks a container image tag.
func validateImageTag(tag string) error {
	if !anchoredTagRegexp.MatchString(tag) {
		return fmt.Errorf("invalid image tag %q", tag)
	}
	return nil
}

// validateImage checks a container image reference.
func validateImage(image string) error {
	if _, err := reference.ParseNormalizedNamed(image); err != nil {
		return fmt.Errorf("invalid image %q: %w", image, err)
	}
	return nil
}

// validateOCMURL checks the OCM API endpoint.
func validateOCMURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid OCM URL %q: %w", s, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("invalid OCM URL %q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid OCM URL %q: host is required", s)
	}
	return nil
}
