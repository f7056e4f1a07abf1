package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// DefaultProfileName names the built-in profile.
const DefaultProfileName = "default"

var profileNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Profile maps the columns of one CSV layout onto lexeme, variant and sememe fields.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Delimiter   string `yaml:"delimiter,omitempty"`
	Comment     string `yaml:"comment,omitempty"`

	// Variants lists the lemma columns. The first non-empty one becomes the
	// main variant unless MainOrthography names another orthography.
	Variants        []VariantColumn `yaml:"variants"`
	MainOrthography string          `yaml:"main_orthography,omitempty"`

	Columns Columns `yaml:"columns"`

	// SememeSeparator splits the sememe cells of one row into several meanings.
	SememeSeparator string `yaml:"sememe_separator,omitempty"`
	// ListSeparator splits tags and dialect lists.
	ListSeparator string `yaml:"list_separator,omitempty"`
}

// VariantColumn binds a lemma column to an orthography.
type VariantColumn struct {
	Column string `yaml:"column"`
	// Orthography is an orthography abbreviation; empty means the language's default.
	Orthography   string `yaml:"orthography,omitempty"`
	Pronunciation string `yaml:"pronunciation,omitempty"`
}

// Columns names the lexeme and sememe columns. Empty names are not mapped.
type Columns struct {
	PartOfSpeech       string `yaml:"part_of_speech,omitempty"`
	Notes              string `yaml:"notes,omitempty"`
	Tags               string `yaml:"tags,omitempty"`
	Source             string `yaml:"source,omitempty"`
	Gloss              string `yaml:"gloss"`
	Definition         string `yaml:"definition,omitempty"`
	Example            string `yaml:"example,omitempty"`
	ExampleTranslation string `yaml:"example_translation,omitempty"`
	Dialects           string `yaml:"dialects,omitempty"`
}

// DefaultProfile returns the built-in single-orthography layout.
func DefaultProfile() *Profile {
	p := &Profile{
		Name:        DefaultProfileName,
		Description: "one lemma column in the default orthography",
		Delimiter:   ",",
		Comment:     "#",
		Variants:    []VariantColumn{{Column: "lemma", Pronunciation: "pronunciation"}},
		Columns: Columns{
			PartOfSpeech:       "pos",
			Notes:              "notes",
			Tags:               "tags",
			Source:             "source",
			Gloss:              "gloss",
			Definition:         "definition",
			Example:            "example",
			ExampleTranslation: "example_translation",
			Dialects:           "dialects",
		},
		SememeSeparator: "|",
		ListSeparator:   ",",
	}
	return p
}

// ParseProfile decodes a YAML profile. Unknown keys are rejected.
func ParseProfile(r io.Reader) (*Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("profile: empty document")
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	p.normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfile reads a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := ParseProfile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// ResolveProfile returns the built-in profile for "" or "default", otherwise
// <dir>/<name>.yaml.
func ResolveProfile(dir, name string) (*Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == DefaultProfileName {
		return DefaultProfile(), nil
	}
	if !profileNamePattern.MatchString(name) {
		return nil, domain.NewValidationError("profile", "invalid profile name")
	}
	if dir == "" {
		return nil, domain.NewValidationError("profile", "unknown profile "+name)
	}

	p, err := LoadProfile(filepath.Join(dir, name+".yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewValidationError("profile", "unknown profile "+name)
	}
	return p, err
}

func (p *Profile) normalize() {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	if p.Delimiter == "" {
		p.Delimiter = ","
	}
	if p.SememeSeparator == "" {
		p.SememeSeparator = "|"
	}
	if p.ListSeparator == "" {
		p.ListSeparator = ","
	}
	p.MainOrthography = strings.TrimSpace(p.MainOrthography)
	for i := range p.Variants {
		p.Variants[i].Column = normColumn(p.Variants[i].Column)
		p.Variants[i].Orthography = strings.TrimSpace(p.Variants[i].Orthography)
		p.Variants[i].Pronunciation = normColumn(p.Variants[i].Pronunciation)
	}
	c := &p.Columns
	for _, f := range []*string{
		&c.PartOfSpeech, &c.Notes, &c.Tags, &c.Source, &c.Gloss,
		&c.Definition, &c.Example, &c.ExampleTranslation, &c.Dialects,
	} {
		*f = normColumn(*f)
	}
}

func normColumn(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate checks the profile for internal consistency.
func (p *Profile) Validate() error {
	var errs domain.FieldErrors

	if !profileNamePattern.MatchString(p.Name) {
		errs.Add("name", "must be lowercase letters, digits, '-' or '_'")
	}
	delim, err := config.ParseDelimiter(p.Delimiter)
	if err != nil {
		errs.Add("delimiter", err.Error())
	}
	if p.Comment != "" {
		c, _ := utf8.DecodeRuneInString(p.Comment)
		if utf8.RuneCountInString(p.Comment) != 1 || c == delim {
			errs.Add("comment", "must be a single character different from the delimiter")
		}
	}
	if p.SememeSeparator == p.ListSeparator {
		errs.Add("list_separator", "must differ from sememe_separator")
	}
	if p.Columns.Gloss == "" {
		errs.Add("columns.gloss", "required")
	}

	if len(p.Variants) == 0 {
		errs.Add("variants", "at least one lemma column required")
	}
	used := map[string]string{}
	claim := func(field, column string) {
		if column == "" {
			return
		}
		if prev, ok := used[column]; ok {
			errs.Add(field, fmt.Sprintf("column %q already mapped by %s", column, prev))
			return
		}
		used[column] = field
	}
	orths := map[string]bool{}
	for i, v := range p.Variants {
		field := domain.FieldIndex("variants", i, "column")
		if v.Column == "" {
			errs.Add(field, "required")
		}
		claim(field, v.Column)
		claim(domain.FieldIndex("variants", i, "pronunciation"), v.Pronunciation)
		key := strings.ToLower(v.Orthography)
		if orths[key] {
			errs.Add(domain.FieldIndex("variants", i, "orthography"), "orthography mapped twice")
		}
		orths[key] = true
	}
	if p.MainOrthography != "" && !orths[strings.ToLower(p.MainOrthography)] {
		errs.Add("main_orthography", "not mapped by any variant column")
	}

	c := p.Columns
	claim("columns.part_of_speech", c.PartOfSpeech)
	claim("columns.notes", c.Notes)
	claim("columns.tags", c.Tags)
	claim("columns.source", c.Source)
	claim("columns.gloss", c.Gloss)
	claim("columns.definition", c.Definition)
	claim("columns.example", c.Example)
	claim("columns.example_translation", c.ExampleTranslation)
	claim("columns.dialects", c.Dialects)

	if err := errs.Err(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

// ReaderOptions returns the CSV dialect of the profile.
func (p *Profile) ReaderOptions() ReaderOptions {
	delim, err := config.ParseDelimiter(p.Delimiter)
	if err != nil {
		delim = ','
	}
	var comment rune
	if p.Comment != "" {
		comment, _ = utf8.DecodeRuneInString(p.Comment)
	}
	return ReaderOptions{Delimiter: delim, Comment: comment}
}

// Header returns the columns of the profile in export order.
func (p *Profile) Header() []string {
	var out []string
	add := func(c string) {
		if c != "" {
			out = append(out, c)
		}
	}
	for _, v := range p.Variants {
		add(v.Column)
		add(v.Pronunciation)
	}
	c := p.Columns
	add(c.PartOfSpeech)
	add(c.Gloss)
	add(c.Definition)
	add(c.Example)
	add(c.ExampleTranslation)
	add(c.Dialects)
	add(c.Tags)
	add(c.Notes)
	add(c.Source)
	return out
}

// missingColumns returns required columns absent from the header: the gloss
// column, and all lemma columns when none is present.
func (p *Profile) missingColumns(has func(string) bool) []string {
	var missing []string
	if !has(p.Columns.Gloss) {
		missing = append(missing, p.Columns.Gloss)
	}
	anyLemma := false
	for _, v := range p.Variants {
		if has(v.Column) {
			anyLemma = true
			break
		}
	}
	if !anyLemma {
		for _, v := range p.Variants {
			missing = append(missing, v.Column)
		}
	}
	return missing
}
