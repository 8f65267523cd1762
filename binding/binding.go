// Package binding fills ${path} placeholders in caption text from JSON data,
// so one preset can render a whole series of captions.
package binding

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	// a.b[0].c -> "a", "b", [0], "c"
	stepPattern = regexp.MustCompile(`\[(\d+)\]|([^.\[\]]+)`)
)

// Data is a decoded JSON document that placeholders resolve against.
type Data struct {
	root any
}

// ParseJSON decodes raw JSON. An empty string yields nil data, which leaves
// every placeholder untouched.
func ParseJSON(raw string) (*Data, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var root any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return &Data{root: root}, nil
}

// Lookup resolves a dotted path such as user.name or items[1].title.
func (d *Data) Lookup(path string) (string, bool) {
	if d == nil {
		return "", false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}
	cur := d.root
	for _, m := range stepPattern.FindAllStringSubmatch(path, -1) {
		var ok bool
		if m[1] != "" {
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				return "", false
			}
			cur, ok = index(cur, idx)
		} else {
			cur, ok = field(cur, strings.TrimSpace(m[2]))
		}
		if !ok {
			return "", false
		}
	}
	return format(cur), true
}

// Interpolate 替换 text 中的 ${path}。无法解析的占位符保持原样，并按出现顺序返回其路径。
func (d *Data) Interpolate(text string) (string, []string) {
	var missing []string
	out := exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if val, ok := d.Lookup(path); ok {
			return val
		}
		missing = append(missing, path)
		return match
	})
	return out, missing
}

func field(cur any, key string) (any, bool) {
	obj, ok := cur.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := obj[key]
	return val, ok
}

func index(cur any, idx int) (any, bool) {
	arr, ok := cur.([]any)
	if !ok || idx < 0 || idx >= len(arr) {
		return nil, false
	}
	return arr[idx], true
}

func format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
