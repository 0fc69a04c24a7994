/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package oci pushes toolbox run artifacts to OCI-compliant registries.
//
// After a playbook run, the artifact directory (extra-vars, environment,
// ansible log and whatever the playbook collected) can be published as a
// single OCI artifact using ORAS (OCI Registry As Storage). The directory is
// packed as one reproducible gzipped tar layer under an OCI 1.1 manifest.
//
// # Usage
//
//	ref, err := oci.ParseReference("oci://ghcr.io/nvidia/toolbox-runs:000__addon_install")
//	if err != nil {
//	    return err
//	}
//
//	res, err := oci.Push(ctx, oci.PushOptions{
//	    SourceDir:  "/tmp/toolbox-artifacts/000__addon_install",
//	    Registry:   ref.Registry,
//	    Repository: ref.Repository,
//	    Tag:        ref.Tag,
//	})
//
// # Authentication
//
// Credentials are read from the standard Docker configuration
// (~/.docker/config.json) through the ORAS credentials package.
//
// # Artifact Type
//
// Artifacts are pushed with the media type "application/vnd.nvidia.toolbox.artifacts".
// They are not runnable images.
package oci
