package export

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"time"
)

// ZIP writes the bundle archive:
//
//	result_full.json        the whole result
//	<section>/<section>.json one file per top-level section
//	request.json            the request payload
//	result.md, result.html  the rendered document
//	meta.txt                export metadata
func ZIP(w io.Writer, b Bundle) error {
	zw := zip.NewWriter(w)

	full, err := indentJSON(b.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := writeEntry(zw, "result_full.json", full, b.ExportedAt); err != nil {
		return err
	}

	used := map[string]bool{}
	for _, section := range b.Result.Sections() {
		text, err := sectionText(b.Result[section])
		if err != nil {
			return fmt.Errorf("section %s: %w", section, err)
		}
		dir := entryName(section)
		for i := 2; used[dir]; i++ {
			dir = fmt.Sprintf("%s_%d", entryName(section), i)
		}
		used[dir] = true
		name := fmt.Sprintf("%s/%s.json", dir, dir)
		if err := writeEntry(zw, name, []byte(text), b.ExportedAt); err != nil {
			return err
		}
	}

	if b.Payload != nil {
		req, err := indentJSON(b.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		if err := writeEntry(zw, "request.json", req, b.ExportedAt); err != nil {
			return err
		}
	}

	doc := Markdown(b)
	if err := writeEntry(zw, "result.md", []byte(doc), b.ExportedAt); err != nil {
		return err
	}
	page, err := HTML(b)
	if err != nil {
		return err
	}
	if err := writeEntry(zw, "result.html", []byte(page), b.ExportedAt); err != nil {
		return err
	}

	meta := fmt.Sprintf("exported_at=%s\nrecord_id=%d\nmeeting_date=%s\nmeeting_time=%s\nmeeting_title=%s\n",
		b.ExportedAt.Format(time.RFC3339), b.RecordID, b.Date, b.Time, b.Title)
	if err := writeEntry(zw, "meta.txt", []byte(meta), b.ExportedAt); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish zip: %w", err)
	}
	return nil
}

var entryReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "_")

// entryName turns a section key into a single safe path element.
func entryName(section string) string {
	name := entryReplacer.Replace(section)
	name = strings.Trim(name, ". ")
	if name == "" {
		return "section"
	}
	return name
}

func writeEntry(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
