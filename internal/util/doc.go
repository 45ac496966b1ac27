// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the quickask front-ends.
//
// String Utilities:
//   - TruncateWidth, StringWidth, PadRight: column-aware text fitting
//   - Preview: one-line, width-bounded rendering of a prompt
//
// File Operations:
//   - AtomicWriteFile: crash-safe file replacement with fsync
//
// # Usage
//
//	title := util.Preview(prompt, 40)
//	err := util.AtomicWriteFile(path, data, 0600, 0700)
package util
