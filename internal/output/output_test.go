// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/staranto/stashgo/internal/attrs"
)

const listing = `{"entries":[
  {"key":"paris","size":2048,"fresh":true},
  {"key":"coucou","size":6,"fresh":true},
  {"key":"Oslo","size":512,"fresh":false}
]}`

// spit runs SliceDiceSpit inside a real command so flags are parsed the way
// they are in the binary.
func spit(t *testing.T, attrSpec string, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	cmd := &cli.Command{
		Name: "ls",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "text"},
			&cli.StringFlag{Name: "filter"},
			&cli.StringFlag{Name: "sort"},
			&cli.BoolFlag{Name: "titles"},
			&cli.BoolFlag{Name: "color"},
			&cli.BoolFlag{Name: "local"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var attrList attrs.AttrList
			require.NoError(t, attrList.Set(attrSpec))
			SliceDiceSpit(*bytes.NewBufferString(listing), attrList, cmd, "entries", &buf)
			return nil
		},
	}

	require.NoError(t, cmd.Run(context.Background(), append([]string{"ls"}, args...)))
	return buf.String()
}

func TestSliceDiceSpit_JSON(t *testing.T) {
	out := spit(t, "key,size", "--output", "json", "--sort", "key")

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "coucou", rows[0]["key"])
	assert.Equal(t, "Oslo", rows[1]["key"])
	assert.Equal(t, "paris", rows[2]["key"])
	assert.Equal(t, float64(6), rows[0]["size"])
}

func TestSliceDiceSpit_ExcludedAttrsFilterButDoNotPrint(t *testing.T) {
	out := spit(t, "key,!fresh", "--output", "json", "--filter", "fresh=false")

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []map[string]interface{}{{"key": "Oslo"}}, rows)
}

func TestSliceDiceSpit_YAML(t *testing.T) {
	out := spit(t, "key,size:bytes:h", "--output", "yaml", "--sort", "-bytes")

	var rows []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	// Sorted on the raw size, then humanized.
	assert.Equal(t, "paris", rows[0]["key"])
	assert.Equal(t, "2.0 kB", rows[0]["bytes"])
	assert.Equal(t, "512 B", rows[1]["bytes"])
	assert.Equal(t, "6 B", rows[2]["bytes"])
}

func TestSliceDiceSpit_Raw(t *testing.T) {
	out := spit(t, "key", "--output", "raw", "--filter", "key=paris")
	assert.Equal(t, listing, out)
}

func TestSliceDiceSpit_Text(t *testing.T) {
	out := spit(t, "key,size", "--titles", "--sort", "size")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "key")
	assert.Contains(t, lines[0], "size")
	assert.Contains(t, lines[1], "coucou")
	assert.Contains(t, lines[2], "Oslo")
	assert.Contains(t, lines[3], "paris")
}

func TestSliceDiceSpit_TextNoRows(t *testing.T) {
	out := spit(t, "key", "--filter", "key=nobody")
	assert.Empty(t, out)
}

func TestSortDataset(t *testing.T) {
	testData := []map[string]interface{}{
		{"name": "zebra", "count": 3.0, "kind": "Weather"},
		{"name": "alpha", "count": 1.0, "kind": "string"},
		{"name": "Beta", "count": 2.0, "kind": "weather"},
	}

	tests := []struct {
		name      string
		spec      string
		wantOrder []string
	}{
		{name: "ascending by name", spec: "name", wantOrder: []string{"alpha", "Beta", "zebra"}},
		{name: "descending by name", spec: "-name", wantOrder: []string{"zebra", "Beta", "alpha"}},
		{name: "ascending by count", spec: "count", wantOrder: []string{"alpha", "Beta", "zebra"}},
		{name: "descending by count", spec: "-count", wantOrder: []string{"zebra", "Beta", "alpha"}},
		{name: "case sensitive", spec: "!name", wantOrder: []string{"Beta", "alpha", "zebra"}},
		{name: "stable on ties", spec: "kind", wantOrder: []string{"alpha", "zebra", "Beta"}},
		{name: "multiple fields", spec: "kind,-count", wantOrder: []string{"alpha", "zebra", "Beta"}},
		{name: "missing key first", spec: "missing,name", wantOrder: []string{"alpha", "Beta", "zebra"}},
		{name: "empty spec", spec: "", wantOrder: []string{"zebra", "alpha", "Beta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]interface{}, len(testData))
			copy(data, testData)
			SortDataset(data, tt.spec)
			for i, expectedName := range tt.wantOrder {
				assert.Equal(t, expectedName, data[i]["name"], "at index %d", i)
			}
		})
	}
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		emptyVal string
		want     string
	}{
		{name: "string", value: "hello", want: "hello"},
		{name: "int", value: 42, want: "42"},
		{name: "int64", value: int64(1 << 40), want: "1099511627776"},
		{name: "float64", value: 42.5, want: "42"},
		{name: "float64 rounds", value: 42.7, want: "43"},
		{name: "bool true", value: true, want: "true"},
		{name: "bool false is zero value", value: false, want: ""},
		{name: "nil default", value: nil, want: ""},
		{name: "nil custom", value: nil, emptyVal: "-", want: "-"},
		{name: "slice", value: []string{"a", "b"}, want: `["a","b"]`},
		{name: "map", value: map[string]int{"x": 1}, want: `{"x":1}`},
		{name: "zero value with custom empty", value: 0, emptyVal: "N/A", want: "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.emptyVal != "" {
				got = InterfaceToString(tt.value, tt.emptyVal)
			} else {
				got = InterfaceToString(tt.value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTag(t *testing.T) {
	tests := []struct {
		name string
		h    string
		s    string
		want Tag
	}{
		{name: "simple", s: "size", want: Tag{Name: "size"}},
		{name: "omitempty", s: "size,omitempty", want: Tag{Name: "size"}},
		{name: "with holder", h: "meta", s: "owner", want: Tag{Name: "meta.owner"}},
		{name: "skipped field", s: "-", want: Tag{}},
		{name: "options only", s: ",omitempty", want: Tag{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTag(tt.h, tt.s))
		})
	}
}

func TestDumpSchema(t *testing.T) {
	type meta struct {
		Owner string `json:"owner"`
	}
	type row struct {
		Key      string    `json:"key"`
		Size     int64     `json:"size"`
		Fresh    bool      `json:"fresh"`
		Modified time.Time `json:"modified"`
		Meta     meta      `json:"meta"`
		Tags     []string  `json:"tags,omitempty"`
		Secret   string    `json:"-"`
		internal string
	}
	_ = row{}.internal

	tags := DumpSchemaWalker("", reflect.TypeOf(row{}), 0)
	got := map[string]string{}
	for _, tag := range tags {
		got[tag.Name] = tag.Encoding
	}
	assert.Equal(t, map[string]string{
		"key":        "string",
		"size":       "number",
		"fresh":      "bool",
		"modified":   "timestamp",
		"meta.owner": "string",
		"tags":       "list",
	}, got)

	var buf bytes.Buffer
	DumpSchema(&buf, "", reflect.TypeOf(row{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "fresh"))
	assert.True(t, strings.HasPrefix(lines[5], "tags"))
}

func TestDumpExamples(t *testing.T) {
	var buf bytes.Buffer
	DumpExamples(&buf, nil)
	assert.Empty(t, buf.String())

	DumpExamples(&buf, [][2]string{{"stash ls", "list entries"}})
	assert.Contains(t, buf.String(), "Command")
	assert.Contains(t, buf.String(), "stash ls")
}

func TestGetColors(t *testing.T) {
	header, even, odd := getColors("colors")
	assert.NotEmpty(t, header)
	assert.NotEmpty(t, even)
	assert.NotEmpty(t, odd)
}

func BenchmarkSortDataset(b *testing.B) {
	testData := []map[string]interface{}{
		{"name": "zebra", "count": 3.0},
		{"name": "alpha", "count": 1.0},
		{"name": "beta", "count": 2.0},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data := make([]map[string]interface{}, len(testData))
		copy(data, testData)
		SortDataset(data, "name")
	}
}
