package importer

import "github.com/google/uuid"

// Draft is a lexeme assembled from one row, before persistence.
type Draft struct {
	Row      int            `validate:"-"`
	Line     int            `validate:"-"`
	Lexeme   LexemeDraft
	Variants []VariantDraft `validate:"required,min=1,max=20,dive"`
	Sememes  []SememeDraft  `validate:"required,min=1,max=50,dive"`
}

// LexemeDraft holds the lexeme-level fields of a row.
type LexemeDraft struct {
	PartOfSpeech string   `validate:"required"`
	Notes        *string  `validate:"omitempty,max=5000"`
	Tags         []string `validate:"max=50,dive,required,max=100"`
	Source       *string  `validate:"omitempty,max=500"`
}

// VariantDraft is one written form taken from a lemma column.
type VariantDraft struct {
	Column        string    `validate:"-"`
	Orthography   string    `validate:"-"`
	OrthographyID uuid.UUID `validate:"-"`
	Lemma         string    `validate:"required,max=500"`
	Pronunciation *string   `validate:"omitempty,max=500"`
	IsMain        bool      `validate:"-"`
}

// SememeDraft is one meaning taken from the sememe columns.
type SememeDraft struct {
	Gloss              string      `validate:"required,max=1000"`
	Definition         *string     `validate:"omitempty,max=5000"`
	Example            *string     `validate:"omitempty,max=5000"`
	ExampleTranslation *string     `validate:"omitempty,max=5000"`
	Dialects           []string    `validate:"max=20,dive,required"`
	DialectIDs         []uuid.UUID `validate:"-"`
}

// MainVariant returns the main variant, or nil.
func (d *Draft) MainVariant() *VariantDraft {
	for i := range d.Variants {
		if d.Variants[i].IsMain {
			return &d.Variants[i]
		}
	}
	return nil
}
