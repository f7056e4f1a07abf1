package domain

import "github.com/google/uuid"

// LexemeFilter contains filtering/pagination parameters for lexeme searches.
type LexemeFilter struct {
	LanguageID     *uuid.UUID
	Search         *string
	PartOfSpeech   *PartOfSpeech
	Tag            *string
	IncludeDeleted bool
	SortBy         string
	SortOrder      string
	Limit          int
	Offset         int
}

// RevisionFilter contains filtering/pagination parameters for revision listings.
type RevisionFilter struct {
	EntityType *EntityType
	UserID     *uuid.UUID
	Limit      int
	Offset     int
}

// ReorderItem represents an item to reorder with its new position.
type ReorderItem struct {
	ID       uuid.UUID
	Position int
}
