// Package export renders a stored meeting record as Markdown, HTML, PDF or a ZIP bundle.
package export

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"policy_workbench/generator"
	"policy_workbench/store"
)

// Bundle is everything an exporter needs from one record.
type Bundle struct {
	RecordID   int64
	Title      string
	Date       string
	Time       string
	Payload    map[string]any
	Result     generator.Result
	ExportedAt time.Time
}

func FromRecord(rec *store.Record, now time.Time) Bundle {
	return Bundle{
		RecordID:   rec.ID,
		Title:      rec.Title,
		Date:       rec.Date,
		Time:       rec.Time,
		Payload:    rec.Payload,
		Result:     generator.Result(rec.Result),
		ExportedAt: now,
	}
}

var sectionTitles = map[string]string{
	"meeting_summary": "Meeting summary",
	"performance":     "Performance",
	"video_plan":      "Video plan",
	"image_prompts":   "Image prompts",
	"marketing":       "Marketing",
	"policy":          "Policy",
	"ppt_outline":     "PPT outline",
	"stats_data":      "Statistics",
	"kpi":             "KPI",
}

// SectionTitle 返回 section 的展示名，未知 section 原样返回。
func SectionTitle(name string) string {
	if t, ok := sectionTitles[name]; ok {
		return t
	}
	return name
}

// indentJSON writes v as two-space indented JSON without HTML escaping.
func indentJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// sectionText is a section body as text: strings verbatim, everything else as indented JSON.
func sectionText(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := indentJSON(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FileName returns the suggested download name, like meeting-12-2025-06-01.pdf.
func (b Bundle) FileName(ext string) string {
	name := "meeting"
	if b.RecordID > 0 {
		name += "-" + strconv.FormatInt(b.RecordID, 10)
	}
	if b.Date != "" {
		name += "-" + b.Date
	}
	return name + "." + ext
}
