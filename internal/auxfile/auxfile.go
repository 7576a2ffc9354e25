// Package auxfile extracts cited keys from LaTeX .aux build logs.
package auxfile

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	// BibLaTeX cite lines, refsection 0.
	biblatexCiteRe = regexp.MustCompile(`\\abx@aux@cite\{0\}\{(.*?)\}`)
	// Plain BibTeX cite lines; one line may carry several keys.
	bibtexCiteRe = regexp.MustCompile(`\\citation\{(.*?)\}`)
)

// Citations returns the citation keys referenced by the .aux file at
// path, in first-use order without duplicates. Both BibTeX \citation
// lines and BibLaTeX \abx@aux@cite lines are recognized.
func Citations(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if m := biblatexCiteRe.FindStringSubmatch(line); m != nil {
			add(m[1])
		}
		if m := bibtexCiteRe.FindStringSubmatch(line); m != nil {
			for _, id := range strings.Split(m[1], ",") {
				add(id)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
