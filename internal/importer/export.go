package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// Encoder writes lexemes as CSV rows in a profile's layout, so that the
// output can be imported again with the same profile.
type Encoder struct {
	w        *csv.Writer
	profile  *Profile
	header   []string
	orthIDs  []uuid.UUID
	dialects map[uuid.UUID]string
	dropped  int
	issues   []ExportIssue
}

// ExportIssueKind tells why a row will not import back unchanged.
type ExportIssueKind string

const (
	// IssueSeparator marks a value that contains a separator of the profile
	// and splits into several values on import.
	IssueSeparator ExportIssueKind = "separator"
	// IssueMainVariant marks a lexeme whose main variant lands in a column
	// that the importer does not treat as main.
	IssueMainVariant ExportIssueKind = "main_variant"
)

// ExportIssue describes one lexeme that will not survive a re-import as is.
type ExportIssue struct {
	Kind     ExportIssueKind
	LexemeID uuid.UUID
	Lemma    string
	Column   string
	Text     string
}

// NewEncoder creates an Encoder for the orthographies and dialects of one language.
func NewEncoder(w io.Writer, p *Profile, orths []domain.Orthography, dialects []domain.Dialect) (*Encoder, error) {
	res := NewResolver(orths, dialects)
	orthIDs := make([]uuid.UUID, len(p.Variants))
	for i, vc := range p.Variants {
		o, err := res.Orthography(vc.Orthography)
		if err != nil {
			return nil, fmt.Errorf("profile %s: variants[%d]: %w", p.Name, i, err)
		}
		orthIDs[i] = o.ID
	}

	names := make(map[uuid.UUID]string, len(dialects))
	for _, d := range dialects {
		names[d.ID] = d.Name
	}

	cw := csv.NewWriter(w)
	cw.Comma = p.ReaderOptions().Delimiter
	return &Encoder{w: cw, profile: p, header: p.Header(), orthIDs: orthIDs, dialects: names}, nil
}

// WriteHeader writes the column names.
func (e *Encoder) WriteHeader() error {
	return e.w.Write(e.header)
}

// Write encodes one lexeme.
func (e *Encoder) Write(d domain.LexemeDetail) error {
	values := make(map[string]string, len(e.header))
	p := e.profile
	c := p.Columns

	main := mainVariant(d.Variants)
	lemma := ""
	if main != nil {
		lemma = main.Lemma
	}
	issue := func(kind ExportIssueKind, column, text string) {
		e.issues = append(e.issues, ExportIssue{Kind: kind, LexemeID: d.ID, Lemma: lemma, Column: column, Text: text})
	}

	// The importer makes the main-orthography column main, else the first
	// filled lemma column.
	var reimported *domain.Variant
	used := 0
	for i, vc := range p.Variants {
		v := pickVariant(d.Variants, e.orthIDs[i])
		if v == nil {
			continue
		}
		used++
		values[vc.Column] = v.Lemma
		if vc.Pronunciation != "" && v.Pronunciation != nil {
			values[vc.Pronunciation] = *v.Pronunciation
		}
		if reimported == nil || (p.MainOrthography != "" && strings.EqualFold(vc.Orthography, p.MainOrthography)) {
			reimported = v
		}
	}
	if used < len(d.Variants) {
		e.dropped += len(d.Variants) - used
	}
	if main != nil && reimported != nil && reimported != main {
		issue(IssueMainVariant, "", fmt.Sprintf("main variant %q would be imported as %q", main.Lemma, reimported.Lemma))
	}

	for _, tag := range d.Tags {
		if c.Tags != "" && strings.Contains(tag, p.ListSeparator) {
			issue(IssueSeparator, c.Tags, fmt.Sprintf("tag %q contains %q", tag, p.ListSeparator))
		}
	}

	values[c.PartOfSpeech] = string(d.PartOfSpeech)
	values[c.Tags] = strings.Join(d.Tags, p.ListSeparator)
	values[c.Notes] = deref(d.Notes)
	values[c.Source] = deref(d.Source)

	n := len(d.Sememes)
	glosses := make([]string, n)
	defs := make([]string, n)
	examples := make([]string, n)
	translations := make([]string, n)
	dialects := make([]string, n)
	for i, s := range d.Sememes {
		glosses[i] = s.Gloss
		defs[i] = deref(s.Definition)
		examples[i] = deref(s.Example)
		translations[i] = deref(s.ExampleTranslation)
		for _, f := range []struct{ column, value string }{
			{c.Gloss, glosses[i]},
			{c.Definition, defs[i]},
			{c.Example, examples[i]},
			{c.ExampleTranslation, translations[i]},
		} {
			if f.column != "" && strings.Contains(f.value, p.SememeSeparator) {
				issue(IssueSeparator, f.column, fmt.Sprintf("%q contains %q", f.value, p.SememeSeparator))
			}
		}
		names := make([]string, 0, len(s.DialectIDs))
		for _, id := range s.DialectIDs {
			name, ok := e.dialects[id]
			if !ok {
				continue
			}
			if c.Dialects != "" && (strings.Contains(name, p.SememeSeparator) || strings.Contains(name, p.ListSeparator)) {
				issue(IssueSeparator, c.Dialects, fmt.Sprintf("dialect %q contains a separator", name))
			}
			names = append(names, name)
		}
		dialects[i] = strings.Join(names, p.ListSeparator)
	}
	values[c.Gloss] = joinParts(glosses, p.SememeSeparator)
	values[c.Definition] = joinParts(defs, p.SememeSeparator)
	values[c.Example] = joinParts(examples, p.SememeSeparator)
	values[c.ExampleTranslation] = joinParts(translations, p.SememeSeparator)
	values[c.Dialects] = joinParts(dialects, p.SememeSeparator)

	rec := make([]string, len(e.header))
	for i, col := range e.header {
		rec[i] = values[col]
	}
	return e.w.Write(rec)
}

// Flush writes buffered rows and reports any write error.
func (e *Encoder) Flush() error {
	e.w.Flush()
	return e.w.Error()
}

// Dropped returns how many variants had no column in the profile.
func (e *Encoder) Dropped() int {
	return e.dropped
}

// Issues returns the written lexemes that will not import back unchanged.
func (e *Encoder) Issues() []ExportIssue {
	return e.issues
}

func mainVariant(variants []domain.Variant) *domain.Variant {
	for i := range variants {
		if variants[i].IsMain {
			return &variants[i]
		}
	}
	return nil
}

// pickVariant returns the main variant of the orthography, else the first by position.
func pickVariant(variants []domain.Variant, orthID uuid.UUID) *domain.Variant {
	var first *domain.Variant
	for i := range variants {
		v := &variants[i]
		if v.OrthographyID != orthID {
			continue
		}
		if v.IsMain {
			return v
		}
		if first == nil {
			first = v
		}
	}
	return first
}

// joinParts joins sememe parts, or returns "" when every part is empty.
func joinParts(parts []string, sep string) string {
	for _, s := range parts {
		if s != "" {
			return strings.Join(parts, sep)
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
