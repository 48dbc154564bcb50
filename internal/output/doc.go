// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output sorts, transforms and emits listing rows as text tables,
// JSON, YAML or raw bytes.
package output
