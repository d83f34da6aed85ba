package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PDFOptions 控制 PDF 字体。FontPath 指向 TTF 文件时使用 UTF-8 字体，
// 否则退回内置 Helvetica（仅支持 cp1252 字符）。
type PDFOptions struct {
	FontPath string
}

// ErrFontRequired means the text has characters the built-in font cannot draw
// and no FontPath was given.
var ErrFontRequired = errors.New("pdf export needs a UTF-8 font (export.font_path) for this text")

// cp1252 code points 0x80-0x9F that map to runes outside Latin-1.
var cp1252Extra = map[rune]bool{
	'€': true, '‚': true, 'ƒ': true, '„': true, '…': true, '†': true, '‡': true,
	'ˆ': true, '‰': true, 'Š': true, '‹': true, 'Œ': true, 'Ž': true,
	'\u2018': true, '\u2019': true, '\u201c': true, '\u201d': true, '•': true,
	'–': true, '—': true, '˜': true, '™': true, 'š': true, '›': true, 'œ': true,
	'ž': true, 'Ÿ': true,
}

func inCP1252(r rune) bool {
	switch {
	case r < 0x80:
		return true
	case r >= 0xA0 && r <= 0xFF:
		return true
	}
	return cp1252Extra[r]
}

// checkCP1252 reports the first rune of texts the built-in font would drop.
func checkCP1252(texts ...string) error {
	for _, s := range texts {
		for _, r := range s {
			if !inCP1252(r) {
				return fmt.Errorf("%w: found %q", ErrFontRequired, r)
			}
		}
	}
	return nil
}

const (
	pdfMargin    = 12.7
	pdfFontAlias = "body"
)

// PDF writes a cover page, then one page per section with the section body as
// indented JSON (strings verbatim).
func PDF(w io.Writer, b Bundle, opts PDFOptions) error {
	title := b.Title
	if title == "" {
		title = "Meeting result"
	}
	sections := b.Result.Sections()
	bodies := make([]string, len(sections))
	for i, section := range sections {
		text, err := sectionText(b.Result[section])
		if err != nil {
			return fmt.Errorf("section %s: %w", section, err)
		}
		bodies[i] = text
	}
	if opts.FontPath == "" {
		if err := checkCP1252(append([]string{title, b.Date, b.Time, strings.ToUpper(strings.Join(sections, " "))}, bodies...)...); err != nil {
			return err
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(b.Title, true)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		pdf.AddUTF8Font(pdfFontAlias, "", opts.FontPath)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("failed to load font %s: %w", opts.FontPath, err)
		}
		family = pdfFontAlias
		tr = func(s string) string { return s }
	}
	// the UTF-8 font is registered in one style only
	bold := "B"
	if family == pdfFontAlias {
		bold = ""
	}

	pdf.AddPage()
	pdf.SetFont(family, bold, 20)
	pdf.MultiCell(0, 10, tr(title), "", "L", false)
	pdf.Ln(4)
	pdf.SetFont(family, "", 11)
	if b.Date != "" {
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("Meeting: %s %s", b.Date, b.Time)), "", "L", false)
	}
	pdf.MultiCell(0, 6, tr("Generated at: "+b.ExportedAt.Format("2006-01-02 15:04:05")), "", "L", false)

	for i, section := range sections {
		text := bodies[i]
		pdf.AddPage()
		pdf.SetFont(family, bold, 16)
		pdf.MultiCell(0, 9, tr(strings.ToUpper(section)), "", "L", false)
		pdf.Ln(2)
		pdf.SetFont(family, "", 10)
		pdf.MultiCell(0, 5, tr(text), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
