package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageSource is the slice of a parsed PDF the extractor needs.
type pageSource interface {
	NumPage() int
	// PageText returns the text of page n (1-based). An error means the page
	// has no extractable text.
	PageText(n int) (string, error)
}

// openPDF parses content into a pageSource. Swapped in tests.
var openPDF = func(content []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	return pdfPages{r: r}, nil
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageText(n int) (string, error) {
	page := p.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// extractPDF joins page texts in document order with a single space. A page
// without extractable text contributes "", and a document the parser rejects
// falls back to a lossy text decode.
func extractPDF(content []byte) (text string) {
	defer func() {
		// The parser panics on some malformed cross-reference tables.
		if r := recover(); r != nil {
			text = decodeText(content)
		}
	}()

	src, err := openPDF(content)
	if err != nil {
		return decodeText(content)
	}

	n := src.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, pageText(src, i))
	}
	return strings.Join(pages, " ")
}

func pageText(src pageSource, n int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	t, err := src.PageText(n)
	if err != nil {
		return ""
	}
	return t
}
