package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ImportRun is the persisted record of one CSV import.
type ImportRun struct {
	ID         uuid.UUID
	UserID     *uuid.UUID
	LanguageID uuid.UUID
	FileName   string
	Profile    string
	DryRun     bool
	Status     ImportStatus
	Report     json.RawMessage
	StartedAt  time.Time
	FinishedAt *time.Time
}
