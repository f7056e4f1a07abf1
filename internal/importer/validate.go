package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// Resolver looks up the orthographies and dialects of the target language.
type Resolver struct {
	defaultOrth   *domain.Orthography
	orthographies map[string]domain.Orthography
	dialects      map[string]uuid.UUID
}

// NewResolver indexes orthographies by abbreviation and dialects by name and abbreviation.
func NewResolver(orths []domain.Orthography, dialects []domain.Dialect) *Resolver {
	r := &Resolver{
		orthographies: make(map[string]domain.Orthography, len(orths)),
		dialects:      make(map[string]uuid.UUID, len(dialects)*2),
	}
	for i, o := range orths {
		r.orthographies[strings.ToLower(o.Abbreviation)] = o
		if o.IsDefault {
			r.defaultOrth = &orths[i]
		}
	}
	for _, d := range dialects {
		r.dialects[domain.NormalizeText(d.Name)] = d.ID
		if d.Abbreviation != nil {
			key := domain.NormalizeText(*d.Abbreviation)
			if _, taken := r.dialects[key]; !taken {
				r.dialects[key] = d.ID
			}
		}
	}
	return r
}

// Orthography resolves an abbreviation; "" means the default orthography.
func (r *Resolver) Orthography(abbr string) (domain.Orthography, error) {
	if abbr == "" {
		if r.defaultOrth == nil {
			return domain.Orthography{}, errors.New("language has no default orthography")
		}
		return *r.defaultOrth, nil
	}
	o, ok := r.orthographies[strings.ToLower(abbr)]
	if !ok {
		return domain.Orthography{}, fmt.Errorf("unknown orthography %q", abbr)
	}
	return o, nil
}

// Dialect resolves a dialect by name or abbreviation.
func (r *Resolver) Dialect(name string) (uuid.UUID, bool) {
	id, ok := r.dialects[domain.NormalizeText(name)]
	return id, ok
}

// Validator checks drafts with struct tags and the lexicon's rules, and
// resolves orthography and dialect references in place.
type Validator struct {
	validate *validator.Validate
	resolver *Resolver
	profile  *Profile
}

// NewValidator creates a validator for one import run.
func NewValidator(resolver *Resolver, profile *Profile) *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		resolver: resolver,
		profile:  profile,
	}
}

// Validate records every problem of the draft as an error message and
// reports whether the draft is importable.
func (v *Validator) Validate(row Row, d *Draft, msgs *Messages) bool {
	before := msgs.ErrorCount()

	if err := v.validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			msgs.Error(row, "", err.Error())
			return false
		}
		for _, fe := range verrs {
			msgs.Error(row, v.columnFor(d, fe.StructNamespace()), describe(fe))
		}
	}

	if d.Lexeme.PartOfSpeech != "" && !domain.PartOfSpeech(d.Lexeme.PartOfSpeech).IsValid() {
		msgs.Error(row, v.profile.Columns.PartOfSpeech, fmt.Sprintf("unknown part of speech %q", d.Lexeme.PartOfSpeech))
	}

	type lemmaKey struct {
		orth  uuid.UUID
		lemma string
	}
	lemmas := map[lemmaKey]bool{}
	for i := range d.Variants {
		vd := &d.Variants[i]
		orth, err := v.resolver.Orthography(vd.Orthography)
		if err != nil {
			msgs.Error(row, vd.Column, err.Error())
			continue
		}
		vd.OrthographyID = orth.ID
		key := lemmaKey{orth.ID, domain.NormalizeText(vd.Lemma)}
		if lemmas[key] {
			msgs.Error(row, vd.Column, fmt.Sprintf("duplicate lemma %q in orthography %s", vd.Lemma, orth.Abbreviation))
		}
		lemmas[key] = true
	}

	v.checkMain(row, d, msgs)

	for i := range d.Sememes {
		sd := &d.Sememes[i]
		sd.DialectIDs = sd.DialectIDs[:0]
		for _, name := range sd.Dialects {
			id, ok := v.resolver.Dialect(name)
			if !ok {
				msgs.Error(row, v.profile.Columns.Dialects, fmt.Sprintf("unknown dialect %q", name))
				continue
			}
			sd.DialectIDs = append(sd.DialectIDs, id)
		}
	}

	return msgs.ErrorCount() == before
}

// checkMain leaves the draft with exactly one main variant. A draft without
// one gets its first variant promoted, as manual lexeme creation does; a
// draft with several is rejected.
func (v *Validator) checkMain(row Row, d *Draft, msgs *Messages) {
	if len(d.Variants) == 0 {
		return
	}
	var mains []string
	for _, vd := range d.Variants {
		if vd.IsMain {
			mains = append(mains, vd.Lemma)
		}
	}
	switch len(mains) {
	case 0:
		d.Variants[0].IsMain = true
	case 1:
	default:
		msgs.Error(row, d.Variants[0].Column, fmt.Sprintf("%d main variants (%s), exactly one allowed", len(mains), strings.Join(mains, ", ")))
	}
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// columnFor maps a validator namespace such as "Draft.Variants[1].Lemma" to a CSV column.
func (v *Validator) columnFor(d *Draft, ns string) string {
	cols := v.profile.Columns
	parts := strings.Split(ns, ".")
	if len(parts) < 2 {
		return ""
	}
	field := indexPattern.ReplaceAllString(parts[1], "")

	switch field {
	case "Lexeme":
		if len(parts) < 3 {
			return ""
		}
		switch indexPattern.ReplaceAllString(parts[2], "") {
		case "PartOfSpeech":
			return cols.PartOfSpeech
		case "Notes":
			return cols.Notes
		case "Tags":
			return cols.Tags
		case "Source":
			return cols.Source
		}
	case "Variants":
		if m := indexPattern.FindStringSubmatch(parts[1]); m != nil {
			i, _ := strconv.Atoi(m[1])
			if i < len(d.Variants) {
				vd := d.Variants[i]
				if len(parts) > 2 && parts[2] == "Pronunciation" {
					for _, vc := range v.profile.Variants {
						if vc.Column == vd.Column {
							return vc.Pronunciation
						}
					}
				}
				return vd.Column
			}
		}
		if len(v.profile.Variants) > 0 {
			return v.profile.Variants[0].Column
		}
	case "Sememes":
		if len(parts) < 3 {
			return cols.Gloss
		}
		switch indexPattern.ReplaceAllString(parts[2], "") {
		case "Definition":
			return cols.Definition
		case "Example":
			return cols.Example
		case "ExampleTranslation":
			return cols.ExampleTranslation
		case "Dialects":
			return cols.Dialects
		default:
			return cols.Gloss
		}
	}
	return ""
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		switch field {
		case "variants":
			return "at least one lemma required"
		case "sememes":
			return "at least one gloss required"
		}
		return field + " required"
	case "min":
		return fmt.Sprintf("%s: at least %s required", field, fe.Param())
	case "max":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s: too many (max %s)", field, fe.Param())
		}
		return fmt.Sprintf("%s: too long (max %s)", field, fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", field, fe.Tag())
}
