// Package pdfid recognizes archive identifiers in paper PDFs.
package pdfid

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Identifiers are the archive ids recognized in a PDF.
type Identifiers struct {
	// ArxivID is a bare arXiv id, version suffix included when the
	// document carries one.
	ArxivID string
	// EprintID is a Cryptology ePrint year/number id.
	EprintID string
	// DOI is a document object identifier.
	DOI string
}

// Empty reports whether nothing was recognized.
func (ids Identifiers) Empty() bool {
	return ids == Identifiers{}
}

var (
	// arXiv stamps papers with "arXiv:2301.12345v2 [cs.DC]"; old-style
	// ids look like "arXiv:cond-mat/0207270v1".
	arxivRe = regexp.MustCompile(`(?i)arXiv:\s*(\d{4}\.\d{4,5}|[a-z-]+(?:\.[A-Z]{2})?/\d{7})(v\d+)?`)

	eprintURLRe    = regexp.MustCompile(`eprint\.iacr\.org/(\d{4}/\d+)`)
	eprintReportRe = regexp.MustCompile(`Cryptology ePrint Archive[,:]?\s*(?:Report|Paper)\s*(\d{4}/\d+)`)

	// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
	doiRe = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)
)

// pages searched for identifiers; stamps sit on the first page, DOIs
// occasionally on the second or third.
const maxPages = 3

// Extract scans the first pages of the PDF at path for arXiv ids,
// Cryptology ePrint ids, and DOIs. Finding nothing is not an error.
func Extract(path string) (Identifiers, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Identifiers{}, err
	}
	defer f.Close()

	pages := r.NumPage()
	if pages > maxPages {
		pages = maxPages
	}

	var ids Identifiers
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		found := scan(text)
		if ids.ArxivID == "" {
			ids.ArxivID = found.ArxivID
		}
		if ids.EprintID == "" {
			ids.EprintID = found.EprintID
		}
		if ids.DOI == "" {
			ids.DOI = found.DOI
		}
	}
	return ids, nil
}

// scan recognizes identifiers in page text.
func scan(text string) Identifiers {
	var ids Identifiers

	if m := arxivRe.FindStringSubmatch(text); m != nil {
		ids.ArxivID = strings.ToLower(m[1] + m[2])
	}

	if m := eprintURLRe.FindStringSubmatch(text); m != nil {
		ids.EprintID = m[1]
	} else if m := eprintReportRe.FindStringSubmatch(text); m != nil {
		ids.EprintID = m[1]
	}

	ids.DOI = findDOI(text)
	return ids
}

// findDOI finds the first plausible DOI in text.
func findDOI(text string) string {
	for _, match := range doiRe.FindAllString(text, -1) {
		// Remove trailing punctuation
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}
