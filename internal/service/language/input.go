package language

import (
	"regexp"
	"strings"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

var codePattern = regexp.MustCompile(`^[a-z]{2,8}$`)

const (
	maxNameLen         = 200
	maxAbbreviationLen = 20
	maxDescriptionLen  = 5000
)

// CreateLanguageInput holds the parameters for creating a language.
type CreateLanguageInput struct {
	Code        string
	Name        string
	Description *string
}

// Normalize lower-cases the code and trims text fields.
func (i *CreateLanguageInput) Normalize() {
	i.Code = strings.ToLower(strings.TrimSpace(i.Code))
	i.Name = strings.TrimSpace(i.Name)
	i.Description = trimOrNil(i.Description)
}

// Validate checks all fields and collects all errors.
func (i *CreateLanguageInput) Validate() error {
	var errs domain.FieldErrors
	if !codePattern.MatchString(i.Code) {
		errs.Add("code", "must be 2-8 lowercase letters")
	}
	validateName(&errs, "name", i.Name)
	validateDescription(&errs, i.Description)
	return errs.Err()
}

// UpdateLanguageInput holds optional fields for a language update.
type UpdateLanguageInput struct {
	Name        *string
	Description *string
}

// Validate checks all fields and collects all errors.
func (i *UpdateLanguageInput) Validate() error {
	var errs domain.FieldErrors
	if i.Name != nil {
		validateName(&errs, "name", strings.TrimSpace(*i.Name))
	}
	validateDescription(&errs, i.Description)
	return errs.Err()
}

// CreateOrthographyInput holds the parameters for adding an orthography.
type CreateOrthographyInput struct {
	Name         string
	Abbreviation string
	Description  *string
	IsDefault    bool
}

// Validate checks all fields and collects all errors.
func (i *CreateOrthographyInput) Validate() error {
	var errs domain.FieldErrors
	validateName(&errs, "name", strings.TrimSpace(i.Name))
	validateAbbreviation(&errs, strings.TrimSpace(i.Abbreviation))
	validateDescription(&errs, i.Description)
	return errs.Err()
}

// UpdateOrthographyInput holds optional fields for an orthography update.
type UpdateOrthographyInput struct {
	Name         *string
	Abbreviation *string
	Description  *string
	IsDefault    *bool
}

// Validate checks all fields and collects all errors.
func (i *UpdateOrthographyInput) Validate() error {
	var errs domain.FieldErrors
	if i.Name != nil {
		validateName(&errs, "name", strings.TrimSpace(*i.Name))
	}
	if i.Abbreviation != nil {
		validateAbbreviation(&errs, strings.TrimSpace(*i.Abbreviation))
	}
	validateDescription(&errs, i.Description)
	return errs.Err()
}

// CreateDialectInput holds the parameters for adding a dialect.
type CreateDialectInput struct {
	Name         string
	Abbreviation *string
}

// Validate checks all fields and collects all errors.
func (i *CreateDialectInput) Validate() error {
	var errs domain.FieldErrors
	validateName(&errs, "name", strings.TrimSpace(i.Name))
	if i.Abbreviation != nil && len(strings.TrimSpace(*i.Abbreviation)) > maxAbbreviationLen {
		errs.Add("abbreviation", "too long (max 20)")
	}
	return errs.Err()
}

func validateName(errs *domain.FieldErrors, field, name string) {
	switch {
	case name == "":
		errs.Add(field, "required")
	case len(name) > maxNameLen:
		errs.Add(field, "too long (max 200)")
	}
}

func validateAbbreviation(errs *domain.FieldErrors, abbr string) {
	switch {
	case abbr == "":
		errs.Add("abbreviation", "required")
	case len(abbr) > maxAbbreviationLen:
		errs.Add("abbreviation", "too long (max 20)")
	case strings.ContainsAny(abbr, " \t,;|"):
		errs.Add("abbreviation", "must not contain spaces or separators")
	}
}

func validateDescription(errs *domain.FieldErrors, d *string) {
	if d != nil && len(*d) > maxDescriptionLen {
		errs.Add("description", "too long (max 5000)")
	}
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// trimPtr trims whitespace but keeps an explicit empty value, which clears the field.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
