package domain

import (
	"time"

	"github.com/google/uuid"
)

// Language is a language described by the lexicon.
type Language struct {
	ID          uuid.UUID
	Code        string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LanguageUpdateParams holds optional fields for a partial language update.
// A nil pointer leaves the field unchanged; ptr("") clears Description.
type LanguageUpdateParams struct {
	Name        *string
	Description *string
}

// Orthography is one writing system of a language (e.g. Latin or Cyrillic script).
type Orthography struct {
	ID           uuid.UUID
	LanguageID   uuid.UUID
	Name         string
	Abbreviation string
	Description  *string
	IsDefault    bool
	CreatedAt    time.Time
}

// OrthographyUpdateParams holds optional fields for a partial orthography update.
type OrthographyUpdateParams struct {
	Name         *string
	Abbreviation *string
	Description  *string
	IsDefault    *bool
}

// Dialect is a regional or social variety of a language. Sememes may be
// restricted to one or more dialects.
type Dialect struct {
	ID           uuid.UUID
	LanguageID   uuid.UUID
	Name         string
	Abbreviation *string
	CreatedAt    time.Time
}
