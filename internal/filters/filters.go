// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/stashgo/internal/attrs"
)

// filterRegex splits an expression into key, operator and target. Operators
// are one of = ^ ~ < > @ or /, optionally negated with a leading !.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter is a single parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter spec. Malformed entries are logged and dropped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	delim := ","
	if d, ok := os.LookupEnv("STASH_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		operand, negate := strings.CutPrefix(parts[2], "!")
		filters = append(filters, Filter{
			Key:     strings.TrimSpace(parts[1]),
			Negate:  negate,
			Operand: operand,
			Target:  parts[3],
		})
	}

	return filters
}

// FilterDataset returns the rows of candidates, a JSON array, that pass every
// filter in spec. Each returned row holds one value per attr, keyed by the
// attr's OutputKey. Transforms are left to the output phase.
func FilterDataset(candidates gjson.Result, attrList attrs.AttrList, spec string) []map[string]interface{} {
	//nolint:prealloc
	var filtered []map[string]interface{}

	filters := resolve(BuildFilters(spec), attrList)

	for _, candidate := range candidates.Array() {
		if !matchAll(candidate, filters) {
			continue
		}

		row := make(map[string]interface{}, len(attrList))
		for _, attr := range attrList {
			row[attr.OutputKey] = candidate.Get(attr.Key).Value()
		}
		filtered = append(filtered, row)
	}

	return filtered
}

// resolve rewrites each filter key from an output key to the JSON path it
// stands for. A key that is not an output key is used as a path verbatim, so
// rows can be filtered on fields that are not displayed.
func resolve(filters []Filter, attrList attrs.AttrList) []Filter {
	resolved := make([]Filter, 0, len(filters))
	for _, f := range filters {
		for _, attr := range attrList {
			if attr.OutputKey == f.Key {
				f.Key = attr.Key
				break
			}
		}
		resolved = append(resolved, f)
	}
	return resolved
}

func matchAll(candidate gjson.Result, filters []Filter) bool {
	for _, f := range filters {
		if !f.Match(candidate.Get(f.Key)) {
			return false
		}
	}
	return true
}

// Match reports whether value satisfies the filter. A missing value never
// matches, negated or not.
func (f Filter) Match(value gjson.Result) bool {
	if !value.Exists() {
		return false
	}

	switch value.Type {
	case gjson.Number:
		return f.matchNumber(value.Float())
	case gjson.JSON:
		return f.matchContains(value)
	default:
		return f.matchString(value.String())
	}
}

// matchContains handles the @ operator against arrays (element equality) and
// objects (key presence).
func (f Filter) matchContains(value gjson.Result) bool {
	if f.Operand != "@" {
		log.Errorf("unsupported operand %s for %s", f.Operand, f.Key)
		return false
	}

	found := false
	if value.IsArray() {
		for _, item := range value.Array() {
			if item.String() == f.Target {
				found = true
				break
			}
		}
	} else {
		found = value.Get(gjson.Escape(f.Target)).Exists()
	}

	return found != f.Negate
}

func (f Filter) matchNumber(value float64) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(f.Target), 64)
	if err != nil {
		log.Error("invalid numeric target: " + f.Target)
		return false
	}

	var result bool
	switch f.Operand {
	case "=":
		result = value == tgt
	case ">":
		result = value > tgt
	case "<":
		result = value < tgt
	default:
		log.Error("unsupported numeric operand: " + f.Operand)
		return false
	}
	return result != f.Negate
}

func (f Filter) matchString(value string) bool {
	var result bool
	switch f.Operand {
	case "=":
		result = value == f.Target
	case "~":
		result = strings.EqualFold(value, f.Target)
	case "^":
		result = strings.HasPrefix(value, f.Target)
	case ">":
		result = value > f.Target
	case "<":
		result = value < f.Target
	case "@":
		result = strings.Contains(value, f.Target)
	case "/":
		matched, err := regexp.MatchString(f.Target, value)
		if err != nil {
			log.Error("invalid regex: " + f.Target)
			return false
		}
		result = matched
	default:
		log.Error("unsupported filtering operand: " + f.Operand)
		return false
	}
	return result != f.Negate
}
