package domain

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Revision records a mutation event on a lexicon entity.
type Revision struct {
	ID         uuid.UUID
	UserID     *uuid.UUID
	EntityType EntityType
	EntityID   uuid.UUID
	Action     RevisionAction
	Changes    map[string]any
	CreatedAt  time.Time
}

// Changes collects old/new pairs for a revision's Changes map.
type Changes map[string]any

// Set records a newly assigned value.
func (c Changes) Set(field string, value any) Changes {
	c[field] = map[string]any{"new": value}
	return c
}

// Diff records a field change only when before and after differ.
func (c Changes) Diff(field string, before, after any) Changes {
	if !reflect.DeepEqual(before, after) {
		c[field] = map[string]any{"old": before, "new": after}
	}
	return c
}

// DiffPtr is Diff for optional string fields; nil is recorded as null.
func (c Changes) DiffPtr(field string, before, after *string) Changes {
	return c.Diff(field, derefOrNil(before), derefOrNil(after))
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
