// SPDX-License-Identifier: MPL-2.0

// Package book implements the document source/sink side of the preprocessor
// protocol: the host toolchain pipes a [context, book] JSON pair on stdin and
// expects the transformed book JSON on stdout. The engine itself never touches
// the filesystem for documents; it only sees chapter text plus the originating
// path, which this package derives working directories from.
package book
