package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// fromPDF extracts per page so hit refs carry a "file|page" locator; the
// footnote merge depends on page distance.
func fromPDF(name string, data []byte, opt Options) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf %s: %w", name, err)
	}

	out := Result{Stats: Stats{}}
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// a torn page should not sink the rest of the document
			out.Stats["pdf_page_errors"]++
			continue
		}
		ref := fmt.Sprintf("%s|%d", name, pageNum)
		res := FromText(text, ref, opt)
		out.Hits = append(out.Hits, res.Hits...)
		out.Stats.Merge(res.Stats)
	}
	out.Hits = MergeFootnoteVariants(out.Hits, opt.FootnoteRadiusPages, out.Stats)
	out.Hits = dedupeHits(out.Hits)
	return out, nil
}
