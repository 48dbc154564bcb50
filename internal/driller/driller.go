// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var segmentRe = regexp.MustCompile(`^([^\[\]]*)((?:\[\d+\])*)$`)
var indexRe = regexp.MustCompile(`\[(\d+)\]`)

// Driller resolves path against doc. An empty path, or ".", returns the whole
// document. A missing key or an out of range index yields an empty Result.
func Driller(doc string, path string) gjson.Result {
	cur := gjson.Parse(doc)

	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return unwrap(cur)
	}

	for _, seg := range strings.Split(path, ".") {
		m := segmentRe.FindStringSubmatch(seg)
		if m == nil {
			return gjson.Result{}
		}

		if name := m[1]; name != "" {
			cur = unwrap(cur)
			if !cur.IsObject() {
				return gjson.Result{}
			}
			cur = cur.Get(gjson.Escape(name))
		}

		for _, im := range indexRe.FindAllStringSubmatch(m[2], -1) {
			i, _ := strconv.Atoi(im[1])
			if !cur.IsArray() {
				return gjson.Result{}
			}
			items := cur.Array()
			if i >= len(items) {
				return gjson.Result{}
			}
			cur = items[i]
		}

		if !cur.Exists() {
			return gjson.Result{}
		}
	}

	return unwrap(cur)
}

func unwrap(r gjson.Result) gjson.Result {
	if r.IsArray() {
		if items := r.Array(); len(items) == 1 {
			return items[0]
		}
	}
	return r
}
