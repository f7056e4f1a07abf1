package domain

import "strings"

// PartOfSpeech represents the grammatical category of a lexeme.
type PartOfSpeech string

const (
	PartOfSpeechNoun         PartOfSpeech = "NOUN"
	PartOfSpeechVerb         PartOfSpeech = "VERB"
	PartOfSpeechAdjective    PartOfSpeech = "ADJECTIVE"
	PartOfSpeechAdverb       PartOfSpeech = "ADVERB"
	PartOfSpeechPronoun      PartOfSpeech = "PRONOUN"
	PartOfSpeechNumeral      PartOfSpeech = "NUMERAL"
	PartOfSpeechPreposition  PartOfSpeech = "PREPOSITION"
	PartOfSpeechPostposition PartOfSpeech = "POSTPOSITION"
	PartOfSpeechConjunction  PartOfSpeech = "CONJUNCTION"
	PartOfSpeechParticle     PartOfSpeech = "PARTICLE"
	PartOfSpeechInterjection PartOfSpeech = "INTERJECTION"
	PartOfSpeechPhrase       PartOfSpeech = "PHRASE"
	PartOfSpeechOther        PartOfSpeech = "OTHER"
)

func (p PartOfSpeech) String() string { return string(p) }

func (p PartOfSpeech) IsValid() bool {
	switch p {
	case PartOfSpeechNoun, PartOfSpeechVerb, PartOfSpeechAdjective, PartOfSpeechAdverb,
		PartOfSpeechPronoun, PartOfSpeechNumeral, PartOfSpeechPreposition,
		PartOfSpeechPostposition, PartOfSpeechConjunction, PartOfSpeechParticle,
		PartOfSpeechInterjection, PartOfSpeechPhrase, PartOfSpeechOther:
		return true
	}
	return false
}

// posAbbreviations maps the customary dictionary abbreviations to parts of speech.
var posAbbreviations = map[string]PartOfSpeech{
	"n":      PartOfSpeechNoun,
	"v":      PartOfSpeechVerb,
	"adj":    PartOfSpeechAdjective,
	"adv":    PartOfSpeechAdverb,
	"pron":   PartOfSpeechPronoun,
	"num":    PartOfSpeechNumeral,
	"prep":   PartOfSpeechPreposition,
	"postp":  PartOfSpeechPostposition,
	"conj":   PartOfSpeechConjunction,
	"part":   PartOfSpeechParticle,
	"interj": PartOfSpeechInterjection,
	"phr":    PartOfSpeechPhrase,
}

// ParsePartOfSpeech accepts a full name in any case ("noun", "NOUN") or a
// dictionary abbreviation with or without a trailing dot ("adj.", "n").
func ParsePartOfSpeech(s string) (PartOfSpeech, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return "", false
	}
	if p := PartOfSpeech(strings.ToUpper(s)); p.IsValid() {
		return p, true
	}
	p, ok := posAbbreviations[strings.ToLower(s)]
	return p, ok
}

// EntityType identifies the kind of domain entity (used in revisions).
type EntityType string

const (
	EntityTypeLanguage    EntityType = "LANGUAGE"
	EntityTypeOrthography EntityType = "ORTHOGRAPHY"
	EntityTypeDialect     EntityType = "DIALECT"
	EntityTypeLexeme      EntityType = "LEXEME"
	EntityTypeVariant     EntityType = "VARIANT"
	EntityTypeSememe      EntityType = "SEMEME"
	EntityTypeUser        EntityType = "USER"
)

func (e EntityType) String() string { return string(e) }

func (e EntityType) IsValid() bool {
	switch e {
	case EntityTypeLanguage, EntityTypeOrthography, EntityTypeDialect, EntityTypeLexeme,
		EntityTypeVariant, EntityTypeSememe, EntityTypeUser:
		return true
	}
	return false
}

// RevisionAction represents the kind of mutation recorded in a revision.
type RevisionAction string

const (
	RevisionActionCreate  RevisionAction = "CREATE"
	RevisionActionUpdate  RevisionAction = "UPDATE"
	RevisionActionDelete  RevisionAction = "DELETE"
	RevisionActionRestore RevisionAction = "RESTORE"
	RevisionActionImport  RevisionAction = "IMPORT"
)

func (a RevisionAction) String() string { return string(a) }

func (a RevisionAction) IsValid() bool {
	switch a {
	case RevisionActionCreate, RevisionActionUpdate, RevisionActionDelete,
		RevisionActionRestore, RevisionActionImport:
		return true
	}
	return false
}

// UserRole represents the authorization level of a user.
type UserRole string

const (
	UserRoleViewer UserRole = "viewer"
	UserRoleEditor UserRole = "editor"
	UserRoleAdmin  UserRole = "admin"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleViewer, UserRoleEditor, UserRoleAdmin:
		return true
	}
	return false
}

// CanEdit reports whether the role may modify lexicon data.
func (r UserRole) CanEdit() bool {
	return r == UserRoleEditor || r == UserRoleAdmin
}

func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin
}

// ImportStatus represents the lifecycle state of an import run.
type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "RUNNING"
	ImportStatusCompleted ImportStatus = "COMPLETED"
	ImportStatusFailed    ImportStatus = "FAILED"
)

func (s ImportStatus) String() string { return string(s) }

func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusRunning, ImportStatusCompleted, ImportStatusFailed:
		return true
	}
	return false
}

// MessageLevel is the severity of an import diagnostic message.
type MessageLevel string

const (
	MessageLevelInfo    MessageLevel = "INFO"
	MessageLevelWarning MessageLevel = "WARNING"
	MessageLevelError   MessageLevel = "ERROR"
)

func (l MessageLevel) String() string { return string(l) }

func (l MessageLevel) IsValid() bool {
	switch l {
	case MessageLevelInfo, MessageLevelWarning, MessageLevelError:
		return true
	}
	return false
}
