package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Result is whatever JSON object the provider returned. No schema is enforced;
// accessors default missing or mistyped branches to empty values.
type Result map[string]any

// Node is one string-keyed branch of a Result.
type Node map[string]any

// sectionOrder is the order the prompt asks for; unknown sections sort after it.
var sectionOrder = []string{
	"meeting_summary",
	"performance",
	"video_plan",
	"image_prompts",
	"marketing",
	"policy",
	"ppt_outline",
	"stats_data",
	"kpi",
}

// Sections returns the top-level section names in display order.
func (r Result) Sections() []string {
	known := make(map[string]bool, len(sectionOrder))
	var out []string
	for _, name := range sectionOrder {
		known[name] = true
		if _, ok := r[name]; ok {
			out = append(out, name)
		}
	}
	var extra []string
	for name := range r {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func (r Result) Section(name string) Node {
	return asNode(r[name])
}

func (n Node) Map(key string) Node {
	return asNode(n[key])
}

func (n Node) String(key string) string {
	return scalarString(n[key])
}

// Strings 把列表中的每个元素转为字符串；非列表返回空切片。
func (n Node) Strings(key string) []string {
	list, _ := n[key].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, scalarString(v))
	}
	return out
}

// List returns the object elements of a list, skipping anything that is not an object.
func (n Node) List(key string) []Node {
	list, _ := n[key].([]any)
	out := make([]Node, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Node(m))
		}
	}
	return out
}

func asNode(v any) Node {
	switch m := v.(type) {
	case map[string]any:
		return Node(m)
	case Node:
		return m
	}
	return Node{}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}
