// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container runtimes
// (Docker/Podman). Directives that declare an image are dispatched through an
// Engine; image lifecycle beyond invoking the runtime per call (pulling,
// caching) is left to the runtime itself.
package container
