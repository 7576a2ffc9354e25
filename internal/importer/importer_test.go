package importer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joachimneu/regenbib/internal/bibtex"
	"github.com/joachimneu/regenbib/internal/dblp"
	"github.com/joachimneu/regenbib/internal/entry"
	"github.com/joachimneu/regenbib/internal/pdfid"
	"github.com/joachimneu/regenbib/internal/store"
)

// scriptPrompter replays scripted answers and records every prompt it
// was shown.
type scriptPrompter struct {
	numbers []int
	texts   []string

	numberLabels []string
	numberMaxes  []int
	textLabels   []string
}

func (p *scriptPrompter) Number(label string, min, max int) (int, error) {
	p.numberLabels = append(p.numberLabels, label)
	p.numberMaxes = append(p.numberMaxes, max)
	if len(p.numbers) == 0 {
		return 0, io.EOF
	}
	n := p.numbers[0]
	p.numbers = p.numbers[1:]
	return n, nil
}

func (p *scriptPrompter) Text(label string) (string, error) {
	p.textLabels = append(p.textLabels, label)
	if len(p.texts) == 0 {
		return "", io.EOF
	}
	s := p.texts[0]
	p.texts = p.texts[1:]
	return s, nil
}

// fakeSearcher serves canned results per query.
type fakeSearcher struct {
	results map[string][]dblp.Publication
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]dblp.Publication, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func newSession(t *testing.T, p *scriptPrompter, d *fakeSearcher) (*Session, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &Session{
		Store:     &store.Store{},
		StorePath: filepath.Join(t.TempDir(), "references.yaml"),
		Prompter:  p,
		DBLP:      d,
		Out:       out,
	}, out
}

func TestRun_SkipsTrackedKeys(t *testing.T) {
	s, out := newSession(t, &scriptPrompter{}, &fakeSearcher{})
	s.Store.Append(&entry.DBLP{ID: "known", DBLPID: "conf/x/Y1"})

	if err := s.Run(context.Background(), []string{"known"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output for a tracked key, got %q", out.String())
	}
	if _, err := os.Stat(s.StorePath); !os.IsNotExist(err) {
		t.Errorf("store file should not be written when every key is skipped")
	}
}

func TestRun_MenuSkip(t *testing.T) {
	p := &scriptPrompter{numbers: []int{0}}
	s, out := newSession(t, p, &fakeSearcher{})

	if err := s.Run(context.Background(), []string{"mystery"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Importing entry: mystery") {
		t.Errorf("missing key announcement in %q", got)
	}
	if !strings.Contains(got, "-> Not found in .bib file!") {
		t.Errorf("missing not-found notice in %q", got)
	}

	if len(p.numberLabels) != 1 {
		t.Fatalf("got %d number prompts, want 1", len(p.numberLabels))
	}
	wantLabel := "-> Import method? (0=skip, 1=dblp-free-search, 2=arxiv-manual-id, 3=eprint-manual-id)"
	if p.numberLabels[0] != wantLabel {
		t.Errorf("menu label = %q, want %q", p.numberLabels[0], wantLabel)
	}
	if p.numberMaxes[0] != 3 {
		t.Errorf("menu max = %d, want 3", p.numberMaxes[0])
	}

	if len(s.Store.Entries) != 0 {
		t.Errorf("store should stay empty after a skip")
	}
	data, err := os.ReadFile(s.StorePath)
	if err != nil {
		t.Fatalf("reading store file: %v", err)
	}
	if string(data) != "entries: []\n" {
		t.Errorf("store file = %q, want an empty entry list", data)
	}
}

func TestRun_DBLPFreeSearch(t *testing.T) {
	d := &fakeSearcher{results: map[string][]dblp.Publication{
		"hotstuff bft": {
			{Key: "journals/corr/abs-1803-05069", Title: "HotStuff", Authors: []string{"Maofan Yin"}, Year: "2018"},
			{Key: "conf/podc/YinMRGA19", Title: "HotStuff: BFT Consensus with Linearity and Responsiveness", Authors: []string{"Maofan Yin"}, Year: "2019"},
		},
	}}
	p := &scriptPrompter{numbers: []int{1, 2}, texts: []string{"hotstuff bft"}}
	s, out := newSession(t, p, d)

	if err := s.Run(context.Background(), []string{"hotstuff"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(s.Store.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(s.Store.Entries))
	}
	e, ok := s.Store.Entries[0].(*entry.DBLP)
	if !ok {
		t.Fatalf("entry type = %T, want *entry.DBLP", s.Store.Entries[0])
	}
	if e.ID != "hotstuff" || e.DBLPID != "conf/podc/YinMRGA19" {
		t.Errorf("entry = %+v", e)
	}

	if got := out.String(); !strings.Contains(got, "-----> The search returned 2 matches:") {
		t.Errorf("missing match count in output %q", got)
	}
	if d.queries[0] != "hotstuff bft" {
		t.Errorf("search query = %q", d.queries[0])
	}

	loaded, err := store.Load(s.StorePath)
	if err != nil {
		t.Fatalf("loading dumped store: %v", err)
	}
	if !loaded.Contains("hotstuff") {
		t.Errorf("dumped store misses the imported key")
	}
}

func TestRun_FreeSearchRetriesAfterNoMatches(t *testing.T) {
	d := &fakeSearcher{results: map[string][]dblp.Publication{
		"good": {{Key: "conf/sp/A1", Title: "A Paper", Year: "2020"}},
	}}
	p := &scriptPrompter{numbers: []int{1, 1}, texts: []string{"nada", "good"}}
	s, out := newSession(t, p, d)

	if err := s.Run(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "---> No entry found, retry!") {
		t.Errorf("missing retry notice in %q", out.String())
	}
	if len(s.Store.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(s.Store.Entries))
	}
	if got := d.queries; len(got) != 2 || got[0] != "nada" || got[1] != "good" {
		t.Errorf("queries = %v", got)
	}
}

func TestRun_FreeSearchCandidateAbort(t *testing.T) {
	d := &fakeSearcher{results: map[string][]dblp.Publication{
		"q": {{Key: "conf/sp/A1", Title: "A Paper", Year: "2020"}},
	}}
	// Abort at the candidate menu, then abort the method with an empty
	// query, then skip the key.
	p := &scriptPrompter{numbers: []int{1, 0, 0}, texts: []string{"q", ""}}
	s, out := newSession(t, p, d)

	if err := s.Run(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "---> Aborted, retry!") {
		t.Errorf("missing abort notice in %q", out.String())
	}
	if len(s.Store.Entries) != 0 {
		t.Errorf("store should stay empty, got %d entries", len(s.Store.Entries))
	}
	if len(p.numberLabels) != 3 {
		t.Fatalf("got %d number prompts, want 3", len(p.numberLabels))
	}
	if !strings.Contains(p.numberLabels[1], "Intended publication?") {
		t.Errorf("second prompt = %q, want the candidate menu", p.numberLabels[1])
	}
}

func TestRun_FailedMethodReturnsToMenu(t *testing.T) {
	d := &fakeSearcher{err: errors.New("network down")}
	p := &scriptPrompter{numbers: []int{1, 0}, texts: []string{"boom"}}
	s, out := newSession(t, p, d)

	if err := s.Run(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "-> Import failed: network down") {
		t.Errorf("missing failure notice in %q", out.String())
	}
	if len(s.Store.Entries) != 0 {
		t.Errorf("store should stay empty after a failed method")
	}
}

func TestRun_ArxivManualRetriesInvalidInput(t *testing.T) {
	p := &scriptPrompter{numbers: []int{2}, texts: []string{"arXiv:1803.05069", " 1803.05069V2 "}}
	s, out := newSession(t, p, &fakeSearcher{})

	if err := s.Run(context.Background(), []string{"hotstuff"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.String(), "must be bare") {
		t.Errorf("missing validation notice in %q", out.String())
	}
	if len(s.Store.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(s.Store.Entries))
	}
	e, ok := s.Store.Entries[0].(*entry.Arxiv)
	if !ok {
		t.Fatalf("entry type = %T, want *entry.Arxiv", s.Store.Entries[0])
	}
	if e.ArxivID != "1803.05069" || e.Version != "2" {
		t.Errorf("entry = %+v", e)
	}
}

func TestRun_EprintManual(t *testing.T) {
	p := &scriptPrompter{numbers: []int{3}, texts: []string{"2019/270"}}
	s, _ := newSession(t, p, &fakeSearcher{})

	if err := s.Run(context.Background(), []string{"casper"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	e, ok := s.Store.Entries[0].(*entry.Eprint)
	if !ok {
		t.Fatalf("entry type = %T, want *entry.Eprint", s.Store.Entries[0])
	}
	if e.ID != "casper" || e.EprintID != "2019/270" {
		t.Errorf("entry = %+v", e)
	}
}

func TestRun_PDFSniff(t *testing.T) {
	p := &scriptPrompter{numbers: []int{4}, texts: []string{"/papers/hotstuff.pdf"}}
	s, out := newSession(t, p, &fakeSearcher{})
	var sniffed []string
	s.Sniff = func(path string) (pdfid.Identifiers, error) {
		sniffed = append(sniffed, path)
		return pdfid.Identifiers{ArxivID: "1803.05069v2"}, nil
	}

	if err := s.Run(context.Background(), []string{"hotstuff"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(p.numberLabels[0], "4=pdf-sniff") {
		t.Errorf("menu label %q misses the sniff method", p.numberLabels[0])
	}
	if p.numberMaxes[0] != 4 {
		t.Errorf("menu max = %d, want 4", p.numberMaxes[0])
	}
	if len(sniffed) != 1 || sniffed[0] != "/papers/hotstuff.pdf" {
		t.Errorf("sniffed paths = %v", sniffed)
	}
	if !strings.Contains(out.String(), "---> Found arXiv:1803.05069v2") {
		t.Errorf("missing sniff notice in %q", out.String())
	}

	e, ok := s.Store.Entries[0].(*entry.Arxiv)
	if !ok {
		t.Fatalf("entry type = %T, want *entry.Arxiv", s.Store.Entries[0])
	}
	if e.ArxivID != "1803.05069" || e.Version != "2" {
		t.Errorf("entry = %+v", e)
	}
}

func TestRun_CurrentEntryFreezesOldRecord(t *testing.T) {
	db := bibtex.NewDatabase()
	rec := bibtex.NewEntry("inproceedings", "hotstuff")
	rec.Fields["author"] = "Maofan Yin and Dahlia Malkhi"
	rec.Fields["title"] = "HotStuff"
	db.Set(rec)

	p := &scriptPrompter{numbers: []int{4}}
	s, out := newSession(t, p, &fakeSearcher{})
	s.Bib = db

	if err := s.Run(context.Background(), []string{"hotstuff"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "-> Current entry:") {
		t.Errorf("missing current-entry display in %q", got)
	}
	if strings.Contains(got, "Not found") {
		t.Errorf("unexpected not-found notice in %q", got)
	}

	wantLabel := "-> Import method? (0=skip, 1=dblp-free-search, 2=arxiv-manual-id, 3=eprint-manual-id, 4=current-entry, 5=dblp-search-title, 6=dblp-search-authorstitle)"
	if p.numberLabels[0] != wantLabel {
		t.Errorf("menu label = %q, want %q", p.numberLabels[0], wantLabel)
	}

	e, ok := s.Store.Entries[0].(*entry.Raw)
	if !ok {
		t.Fatalf("entry type = %T, want *entry.Raw", s.Store.Entries[0])
	}
	if e.ID != "hotstuff" {
		t.Errorf("entry key = %q", e.ID)
	}
	if e.Lines[0] != "@inproceedings{hotstuff," {
		t.Errorf("first frozen line = %q", e.Lines[0])
	}
}

func TestRun_AliasRetargetsRecord(t *testing.T) {
	db := bibtex.NewDatabase()
	rec := bibtex.NewEntry("inproceedings", "YinMRGA19")
	rec.Fields["title"] = "HotStuff"
	rec.IDs = []string{"hotstuff"}
	db.Set(rec)

	p := &scriptPrompter{numbers: []int{4}}
	s, _ := newSession(t, p, &fakeSearcher{})
	s.Bib = db

	if err := s.Run(context.Background(), []string{"hotstuff"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	e, ok := s.Store.Entries[0].(*entry.Raw)
	if !ok {
		t.Fatalf("entry type = %T, want *entry.Raw", s.Store.Entries[0])
	}
	if e.Lines[0] != "@inproceedings{hotstuff," {
		t.Errorf("first frozen line = %q, want the alias key", e.Lines[0])
	}

	// The source record stays untouched.
	if rec.Key != "YinMRGA19" || len(rec.IDs) != 1 {
		t.Errorf("source record mutated: key %q ids %v", rec.Key, rec.IDs)
	}
}

func TestRun_SearchTitleUsesTitleField(t *testing.T) {
	title := "{HotStuff}: BFT Consensus in the Lens of Blockchain"
	db := bibtex.NewDatabase()
	rec := bibtex.NewEntry("inproceedings", "hotstuff")
	rec.Fields["author"] = "Maofan Yin and Dahlia Malkhi"
	rec.Fields["title"] = title
	db.Set(rec)

	d := &fakeSearcher{results: map[string][]dblp.Publication{
		title: {{Key: "conf/podc/YinMRGA19", Title: "HotStuff", Year: "2019"}},
	}}
	p := &scriptPrompter{numbers: []int{5, 1}}
	s, _ := newSession(t, p, d)
	s.Bib = db

	if err := s.Run(context.Background(), []string{"hotstuff"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(d.queries) != 1 || d.queries[0] != title {
		t.Errorf("queries = %v, want just the title", d.queries)
	}
	e, ok := s.Store.Entries[0].(*entry.DBLP)
	if !ok {
		t.Fatalf("entry type = %T, want *entry.DBLP", s.Store.Entries[0])
	}
	if e.DBLPID != "conf/podc/YinMRGA19" {
		t.Errorf("entry = %+v", e)
	}
}

func TestRun_SearchAuthorsTitleQuery(t *testing.T) {
	db := bibtex.NewDatabase()
	rec := bibtex.NewEntry("inproceedings", "hotstuff")
	rec.Fields["author"] = "Maofan Yin and Dahlia Malkhi"
	rec.Fields["title"] = "HotStuff"
	db.Set(rec)

	want := "Maofan Yin, Dahlia Malkhi HotStuff"
	d := &fakeSearcher{results: map[string][]dblp.Publication{
		want: {{Key: "conf/podc/YinMRGA19", Title: "HotStuff", Year: "2019"}},
	}}
	p := &scriptPrompter{numbers: []int{6, 1}}
	s, _ := newSession(t, p, d)
	s.Bib = db

	if err := s.Run(context.Background(), []string{"hotstuff"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(d.queries) != 1 || d.queries[0] != want {
		t.Errorf("queries = %v, want %q", d.queries, want)
	}
}

func TestRun_SearchTitleNoMatchesReturnsToMenu(t *testing.T) {
	db := bibtex.NewDatabase()
	rec := bibtex.NewEntry("article", "x")
	rec.Fields["title"] = "Unknown"
	db.Set(rec)

	p := &scriptPrompter{numbers: []int{5, 0}}
	s, _ := newSession(t, p, &fakeSearcher{})
	s.Bib = db

	if err := s.Run(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(s.Store.Entries) != 0 {
		t.Errorf("store should stay empty")
	}
	// Both prompts are the method menu: the candidate menu is never
	// reached without matches.
	if len(p.numberLabels) != 2 {
		t.Fatalf("got %d number prompts, want 2", len(p.numberLabels))
	}
	for i, label := range p.numberLabels {
		if !strings.Contains(label, "Import method?") {
			t.Errorf("prompt %d = %q, want the method menu", i, label)
		}
	}
}

func TestRun_DumpsAfterEachKey(t *testing.T) {
	p := &scriptPrompter{numbers: []int{3}, texts: []string{"2020/1"}}
	s, _ := newSession(t, p, &fakeSearcher{})

	err := s.Run(context.Background(), []string{"a", "b"})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Run error = %v, want exhausted input", err)
	}

	// The first key was dumped before the second one failed.
	loaded, lerr := store.Load(s.StorePath)
	if lerr != nil {
		t.Fatalf("loading store: %v", lerr)
	}
	if !loaded.Contains("a") || loaded.Contains("b") {
		t.Errorf("dumped keys = %v, want just a", loaded.BibtexIDs())
	}
}

func TestMenuLabel(t *testing.T) {
	got := menuLabel([]Method{{Name: "alpha"}, {Name: "beta"}})
	want := "-> Import method? (0=skip, 1=alpha, 2=beta)"
	if got != want {
		t.Errorf("menuLabel = %q, want %q", got, want)
	}
}

func TestLookupOld(t *testing.T) {
	db := bibtex.NewDatabase()
	rec := bibtex.NewEntry("article", "canonical")
	rec.Fields["title"] = "A Title"
	rec.IDs = []string{"alias1", "alias2"}
	db.Set(rec)
	s := &Session{Bib: db}

	if got := s.lookupOld("canonical"); got != rec {
		t.Errorf("direct lookup should return the stored record")
	}

	got := s.lookupOld("alias1")
	if got == nil {
		t.Fatalf("alias lookup returned nil")
	}
	if got.Key != "alias1" || got.IDs != nil {
		t.Errorf("alias clone: key %q ids %v, want retargeted key and no ids", got.Key, got.IDs)
	}
	if rec.Key != "canonical" || len(rec.IDs) != 2 {
		t.Errorf("original record mutated: %+v", rec)
	}

	if got := s.lookupOld("absent"); got != nil {
		t.Errorf("missing key should yield nil, got %+v", got)
	}
}

func TestLookupOld_NoBib(t *testing.T) {
	s := &Session{}
	if got := s.lookupOld("x"); got != nil {
		t.Errorf("nil database should yield nil, got %+v", got)
	}
}
