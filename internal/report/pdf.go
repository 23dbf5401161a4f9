package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"symptom-triage/internal/consultation"
)

const (
	fontName   = "DejaVu"
	dateLayout = "02.01.2006 15:04"

	marginLeft   = 40.0
	marginTop    = 40.0
	contentWidth = 515.0
	pageBottom   = 800.0
	lineHeight   = 14.0
)

// Tried in order when no font path is configured.
var fallbackFonts = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// HistoryPDF renders records, newest first as stored, into an A4 document.
// gopdf neither shapes nor reorders right-to-left text, so Arabic lines are
// drawn as unjoined glyphs in logical order.
func (s *Service) HistoryPDF(userID string, records []consultation.Record) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.SetMargins(marginLeft, marginTop, marginLeft, marginTop)
	pdf.AddPage()

	if err := s.loadFont(pdf); err != nil {
		return nil, err
	}

	w := &pageWriter{pdf: pdf}
	w.line(18, "Symptom triage history")
	w.gap(10)
	w.line(11, fmt.Sprintf("User: %s", userID))
	w.line(11, fmt.Sprintf("Entries: %d", len(records)))
	w.gap(12)

	if len(records) == 0 {
		w.line(11, "- No interactions recorded.")
	}
	for _, rec := range records {
		w.line(12, fmt.Sprintf("#%d  %s  [%s]", rec.ID, rec.Timestamp.Format(dateLayout), rec.Language))
		w.wrapped(11, "Message: "+rec.UserInput)
		if len(rec.Symptoms) > 0 {
			w.wrapped(11, "Symptoms: "+strings.Join(rec.Symptoms, ", "))
		}
		if len(rec.Conditions) > 0 {
			w.wrapped(11, "Conditions: "+strings.Join(rec.Conditions, ", "))
		}
		for _, para := range PlainText(rec.BotResponse) {
			w.wrapped(10, para)
		}
		w.gap(10)
	}
	if w.err != nil {
		return nil, fmt.Errorf("render history pdf: %w", w.err)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	paths := fallbackFonts
	if s.fontPath != "" {
		paths = []string{s.fontPath}
	}
	var fontErr error
	for _, path := range paths {
		if fontErr = pdf.AddTTFFont(fontName, path); fontErr == nil {
			s.log.Debug("loaded pdf font", zap.String("path", path))
			return nil
		}
	}
	return fmt.Errorf("%w: failed to load font for PDF (tried %s): %v", consultation.ErrExportUnavailable, strings.Join(paths, ", "), fontErr)
}

// pageWriter keeps the first error and starts a new page when the cursor
// runs past the bottom margin.
type pageWriter struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *pageWriter) line(size float64, text string) {
	if w.err != nil {
		return
	}
	if w.err = w.pdf.SetFont(fontName, "", size); w.err != nil {
		return
	}
	w.cell(text, size)
}

func (w *pageWriter) wrapped(size float64, text string) {
	if w.err != nil {
		return
	}
	if w.err = w.pdf.SetFont(fontName, "", size); w.err != nil {
		return
	}
	lines, err := w.pdf.SplitText(text, contentWidth)
	if err != nil {
		// Text the font cannot measure still goes out on one line.
		lines = []string{text}
	}
	for _, l := range lines {
		w.cell(l, size)
	}
}

func (w *pageWriter) cell(text string, size float64) {
	if w.err != nil {
		return
	}
	if w.pdf.GetY()+lineHeight > pageBottom {
		w.pdf.AddPage()
	}
	if w.err = w.pdf.Cell(nil, text); w.err != nil {
		return
	}
	w.pdf.Br(max(lineHeight, size+4))
}

func (w *pageWriter) gap(h float64) {
	w.pdf.Br(h)
}

// PlainText flattens composed response markup into paragraphs.
func PlainText(markup string) []string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return []string{markup}
	}

	var paras []string
	var cur strings.Builder
	flush := func() {
		if t := strings.Join(strings.Fields(cur.String()), " "); t != "" {
			paras = append(paras, t)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "div", "p", "li", "br", "ul", "ol":
				flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (n.Data == "div" || n.Data == "p" || n.Data == "li") {
			flush()
		}
	}
	walk(doc)
	flush()
	return paras
}
