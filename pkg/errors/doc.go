// Package errors provides structured error types for the toolbox runners.
//
// Invocation building never fails; errors come from running an invocation
// (missing ansible binary, unreachable cluster, Job timeout). Each carries an
// ErrorCode so the CLI can tell "could not run" apart from "ran and failed".
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "playbook Job did not complete",
//	    ctx.Err(),
//	    map[string]any{
//	        "invocation": inv.Name(),
//	        "job":        jobName,
//	    },
//	)
package errors
