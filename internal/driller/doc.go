// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package driller walks a dotted path with optional [n] indexes into a JSON
// document. Single element arrays are stepped through transparently, so a
// path does not need to know whether a value was wrapped in a list.
package driller
