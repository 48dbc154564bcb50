// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
)

// Tag is a discovered json struct tag, reported by --schema.
type Tag struct {
	Name     string
	Encoding string
}

// NewTag builds a Tag from a json struct tag value. Fields that are skipped
// by encoding/json yield the zero Tag. Nested names are prefixed by holder.
func NewTag(holder string, s string) Tag {
	name, _, _ := strings.Cut(s, ",")
	if name == "" || name == "-" {
		return Tag{}
	}

	if holder != "" {
		name = holder + "." + name
	}
	return Tag{Name: name}
}

// Print renders the tag into its display form.
func (t Tag) Print() string {
	if t.Encoding == "" {
		return t.Name
	}
	return fmt.Sprintf("%-16s %s", t.Name, t.Encoding)
}

// DumpExamples renders a table of example command usages.
func DumpExamples(w io.Writer, examples [][2]string) {
	if len(examples) == 0 {
		return
	}

	var rows [][]string
	for _, ex := range examples {
		rows = append(rows, []string{ex[0], ex[1]})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		Headers("Command", "Description").
		BorderHeader(false).
		Rows(rows...)

	_, _ = fmt.Fprintln(w, t)
}

// DumpSchema prints the attributes of typ that --attrs, --filter and --sort
// can address.
func DumpSchema(w io.Writer, prefix string, typ reflect.Type) {
	tags := DumpSchemaWalker(prefix, typ, 0)
	if len(tags) == 0 {
		log.Debugf("no tags found for type: %s", typ.Name())
		return
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	for _, tag := range tags {
		_, _ = fmt.Fprintln(w, tag.Print())
	}
}

const maxSchemaDepth = 1

// DumpSchemaWalker walks a struct type collecting json tags, descending into
// nested structs up to maxSchemaDepth.
func DumpSchemaWalker(holder string, typ reflect.Type, depth int) []Tag {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}

	tags := make([]Tag, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		tagValue, ok := field.Tag.Lookup("json")
		if !ok {
			continue
		}

		tag := NewTag(holder, tagValue)
		if tag.Name == "" {
			continue
		}

		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}

		// time.Time and friends are leaves even though they are structs.
		if ft.Kind() == reflect.Struct && depth < maxSchemaDepth && !isOpaque(ft) {
			tags = append(tags, DumpSchemaWalker(tag.Name, ft, depth+1)...)
			continue
		}

		tag.Encoding = encodingOf(ft)
		tags = append(tags, tag)
	}

	return tags
}

// isOpaque reports struct types that marshal as a single value.
func isOpaque(typ reflect.Type) bool {
	return typ.Implements(jsonMarshaler) || reflect.PointerTo(typ).Implements(jsonMarshaler)
}

var jsonMarshaler = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

func encodingOf(typ reflect.Type) string {
	switch typ.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "object"
	case reflect.Struct:
		if typ.PkgPath() == "time" && typ.Name() == "Time" {
			return "timestamp"
		}
		return "object"
	default:
		return typ.Kind().String()
	}
}
