// Package cli implements the command-line interface of the toolbox tool.
//
// # Overview
//
// Every command turns its flags into a toolbox.Invocation (a playbook name
// plus the extra-vars it runs with) and executes it with the runner chosen
// by the global --runner flag. The process exits with the playbook's exit
// status, or 1 when the playbook could not be run at all.
//
// # Commands
//
// nfd-operator - Node Feature Discovery operator:
//
//	toolbox nfd-operator deploy-from-commit --git-repo URL --git-ref REF [--image-tag TAG]
//	toolbox nfd-operator deploy-from-operatorhub [--channel CHANNEL] [--catalog CATALOG]
//	toolbox nfd-operator undeploy-from-operatorhub
//
// ocm-addon - OpenShift Cluster Manager addons:
//
//	toolbox ocm-addon install --token TOKEN --cluster-id ID --addon-id ADDON \
//	    [--url URL] [--param id=value ...] [--params-file FILE] [--wait-for-ready-state]
//	toolbox ocm-addon remove --cluster-id ID --addon-id ADDON [--url URL] [--wait-until-removed]
//
// run - Replay an invocation document written by the dry-run runner:
//
//	toolbox run --file invocation.yaml
//
// list - Print the operation catalog:
//
//	toolbox list [--format yaml|json|table]
//
// # Runners
//
//	--runner ansible   run ansible-playbook locally; artifacts under --artifact-dir
//	--runner job       run the playbook as a Kubernetes Job (--kubeconfig, --namespace, --image)
//	--runner dry-run   print the invocation (--format, --output)
//
// With the ansible and job runners, --push-artifacts oci://registry/repo[:tag]
// pushes the run's artifact directory to an OCI registry after the run.
//
// # Environment Variables
//
// Global flags read TOOLBOX_* variables (TOOLBOX_RUNNER, TOOLBOX_NAMESPACE, ...).
// ARTIFACT_DIR sets the artifact root, LOG_LEVEL the log level, and
// OCM_TOKEN, OCM_URL and OCM_CLUSTER_ID the matching ocm-addon flags.
package cli
