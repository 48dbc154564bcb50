// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/staranto/stashgo/internal/attrs"
)

const rows = `[
  {"key":"paris","name":"weather_paris","size":120,"fresh":true,"tags":["eu","fr"],"meta":{"owner":"ops"}},
  {"key":"Oslo","name":"weather_Oslo","size":4096,"fresh":false,"tags":["eu"],"meta":{}},
  {"key":"coucou","name":"string_coucou","size":6,"fresh":true,"tags":[]}
]`

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		delimiter string
		want      []Filter
	}{
		{
			name: "empty spec",
			spec: "",
		},
		{
			name: "single exact match",
			spec: "key=paris",
			want: []Filter{{Key: "key", Operand: "=", Target: "paris"}},
		},
		{
			name: "negated prefix",
			spec: "name!^weather_",
			want: []Filter{{Key: "name", Operand: "^", Target: "weather_", Negate: true}},
		},
		{
			name: "multiple filters",
			spec: "size>100,fresh=true",
			want: []Filter{
				{Key: "size", Operand: ">", Target: "100"},
				{Key: "fresh", Operand: "=", Target: "true"},
			},
		},
		{
			name:      "custom delimiter",
			spec:      "key/^p.*s$|size<10",
			delimiter: "|",
			want: []Filter{
				{Key: "key", Operand: "/", Target: "^p.*s$"},
				{Key: "size", Operand: "<", Target: "10"},
			},
		},
		{
			name: "target keeps later operators",
			spec: "key=a=b",
			want: []Filter{{Key: "key", Operand: "=", Target: "a=b"}},
		},
		{
			name: "invalid entry dropped",
			spec: "nooperator,key=paris",
			want: []Filter{{Key: "key", Operand: "=", Target: "paris"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delimiter != "" {
				t.Setenv("STASH_FILTER_DELIM", tt.delimiter)
			}
			assert.Equal(t, tt.want, BuildFilters(tt.spec))
		})
	}
}

func TestFilterDataset(t *testing.T) {
	var attrList attrs.AttrList
	_ = attrList.Set("key,size:bytes,fresh,meta.owner")

	tests := []struct {
		name     string
		spec     string
		wantKeys []string
	}{
		{name: "no filter", spec: "", wantKeys: []string{"paris", "Oslo", "coucou"}},
		{name: "string equal", spec: "key=coucou", wantKeys: []string{"coucou"}},
		{name: "string not equal", spec: "key!=coucou", wantKeys: []string{"paris", "Oslo"}},
		{name: "case insensitive", spec: "key~oslo", wantKeys: []string{"Oslo"}},
		{name: "regex", spec: "key/^[a-z]+$", wantKeys: []string{"paris", "coucou"}},
		{name: "contains substring", spec: "key@ou", wantKeys: []string{"coucou"}},
		{name: "numeric by output key", spec: "bytes>100", wantKeys: []string{"paris", "Oslo"}},
		{name: "numeric less", spec: "bytes<100", wantKeys: []string{"coucou"}},
		{name: "numeric not equal", spec: "bytes!=6", wantKeys: []string{"paris", "Oslo"}},
		{name: "bool", spec: "fresh=false", wantKeys: []string{"Oslo"}},
		{name: "array contains", spec: "tags@fr", wantKeys: []string{"paris"}},
		{name: "array not contains", spec: "tags!@fr", wantKeys: []string{"Oslo", "coucou"}},
		{name: "object has key", spec: "meta@owner", wantKeys: []string{"paris"}},
		{name: "hidden path filter", spec: "name^string_", wantKeys: []string{"coucou"}},
		{name: "nested value", spec: "owner=ops", wantKeys: []string{"paris"}},
		{name: "missing never matches", spec: "owner!=ops", wantKeys: nil},
		{name: "all must match", spec: "fresh=true,bytes>100", wantKeys: []string{"paris"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDataset(gjson.Parse(rows), attrList, tt.spec)

			var keys []string
			for _, row := range got {
				keys = append(keys, row["key"].(string))
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestFilterDataset_RowShape(t *testing.T) {
	var attrList attrs.AttrList
	_ = attrList.Set("key,size:bytes,meta.owner")

	got := FilterDataset(gjson.Parse(rows), attrList, "key=paris")
	assert.Len(t, got, 1)
	assert.Equal(t, map[string]interface{}{
		"key":   "paris",
		"bytes": float64(120),
		"owner": "ops",
	}, got[0])

	got = FilterDataset(gjson.Parse(rows), attrList, "key=coucou")
	assert.Len(t, got, 1)
	assert.Nil(t, got[0]["owner"])
}

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		json   string
		want   bool
	}{
		{name: "bad numeric target", filter: Filter{Operand: ">", Target: "big"}, json: `5`, want: false},
		{name: "unsupported numeric operand", filter: Filter{Operand: "^", Target: "5"}, json: `5`, want: false},
		{name: "bad regex", filter: Filter{Operand: "/", Target: "("}, json: `"x"`, want: false},
		{name: "string greater", filter: Filter{Operand: ">", Target: "b"}, json: `"c"`, want: true},
		{name: "object needs contains", filter: Filter{Operand: "=", Target: "x"}, json: `{"x":1}`, want: false},
		{name: "negated missing", filter: Filter{Operand: "=", Target: "x", Negate: true}, json: ``, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(gjson.Parse(tt.json)))
		})
	}
}
