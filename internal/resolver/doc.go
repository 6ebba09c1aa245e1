// SPDX-License-Identifier: MPL-2.0

// Package resolver turns a scanned directive occurrence into a concrete,
// ready-to-launch invocation: a host shell command line, a containerized
// command, or a registered snippet-language execution with the snippet body
// materialized to a temporary source file. The runner never sees raw
// directive text, only resolved invocations.
package resolver
