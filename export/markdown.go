package export

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders the bundle as a readable document: one heading per section,
// nested objects as bullet trees.
func Markdown(b Bundle) string {
	var sb strings.Builder
	title := b.Title
	if title == "" {
		title = "Meeting result"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if b.Date != "" || b.Time != "" {
		fmt.Fprintf(&sb, "%s %s\n\n", b.Date, b.Time)
	}
	for _, section := range b.Result.Sections() {
		fmt.Fprintf(&sb, "## %s\n\n", SectionTitle(section))
		writeValue(&sb, b.Result[section], 0)
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeValue(sb *strings.Builder, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(t) {
			child := t[k]
			if isScalar(child) {
				fmt.Fprintf(sb, "%s- **%s**: %s\n", indent, k, scalarText(child))
				continue
			}
			fmt.Fprintf(sb, "%s- **%s**\n", indent, k)
			writeValue(sb, child, depth+1)
		}
	case []any:
		for i, item := range t {
			if isScalar(item) {
				fmt.Fprintf(sb, "%s- %s\n", indent, scalarText(item))
				continue
			}
			fmt.Fprintf(sb, "%s- item %d\n", indent, i+1)
			writeValue(sb, item, depth+1)
		}
	default:
		if depth == 0 {
			fmt.Fprintf(sb, "%s\n", scalarText(v))
		} else {
			fmt.Fprintf(sb, "%s- %s\n", indent, scalarText(v))
		}
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(t, "\n", " ")
	}
	b, err := indentJSON(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mdToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 2em auto; line-height: 1.6; }
h1 { font-size: 24px; } h2 { font-size: 20px; margin-top: 1.6em; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTML renders the Markdown document to a standalone HTML page. Raw HTML inside
// generated text is not passed through.
func HTML(b Bundle) (string, error) {
	body, err := mdToHTML(Markdown(b))
	if err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}
	title := b.Title
	if title == "" {
		title = "Meeting result"
	}
	return fmt.Sprintf(pageTemplate, html.EscapeString(title), body), nil
}
