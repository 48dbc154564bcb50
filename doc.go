// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// stashgo is the main package for the stash command line tool, a TTL-gated
// file cache. It wires the CLI, delegates to internal packages, and serves as
// the entry point.
package main
