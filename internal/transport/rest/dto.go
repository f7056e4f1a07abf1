package rest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

type languageResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toLanguage(l domain.Language) languageResponse {
	return languageResponse{
		ID:          l.ID,
		Code:        l.Code,
		Name:        l.Name,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

type orthographyResponse struct {
	ID           uuid.UUID `json:"id"`
	LanguageID   uuid.UUID `json:"languageId"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	Description  *string   `json:"description"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toOrthography(o domain.Orthography) orthographyResponse {
	return orthographyResponse{
		ID:           o.ID,
		LanguageID:   o.LanguageID,
		Name:         o.Name,
		Abbreviation: o.Abbreviation,
		Description:  o.Description,
		IsDefault:    o.IsDefault,
		CreatedAt:    o.CreatedAt,
	}
}

type dialectResponse struct {
	ID           uuid.UUID `json:"id"`
	LanguageID   uuid.UUID `json:"languageId"`
	Name         string    `json:"name"`
	Abbreviation *string   `json:"abbreviation"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toDialect(d domain.Dialect) dialectResponse {
	return dialectResponse{
		ID:           d.ID,
		LanguageID:   d.LanguageID,
		Name:         d.Name,
		Abbreviation: d.Abbreviation,
		CreatedAt:    d.CreatedAt,
	}
}

type variantResponse struct {
	ID            uuid.UUID `json:"id"`
	LexemeID      uuid.UUID `json:"lexemeId"`
	OrthographyID uuid.UUID `json:"orthographyId"`
	Lemma         string    `json:"lemma"`
	Pronunciation *string   `json:"pronunciation"`
	IsMain        bool      `json:"isMain"`
	Position      int       `json:"position"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toVariant(v domain.Variant) variantResponse {
	return variantResponse{
		ID:            v.ID,
		LexemeID:      v.LexemeID,
		OrthographyID: v.OrthographyID,
		Lemma:         v.Lemma,
		Pronunciation: v.Pronunciation,
		IsMain:        v.IsMain,
		Position:      v.Position,
		CreatedAt:     v.CreatedAt,
	}
}

type sememeResponse struct {
	ID                 uuid.UUID   `json:"id"`
	LexemeID           uuid.UUID   `json:"lexemeId"`
	Gloss              string      `json:"gloss"`
	Definition         *string     `json:"definition"`
	Example            *string     `json:"example"`
	ExampleTranslation *string     `json:"exampleTranslation"`
	Position           int         `json:"position"`
	DialectIDs         []uuid.UUID `json:"dialectIds"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

func toSememe(s domain.Sememe) sememeResponse {
	dialects := s.DialectIDs
	if dialects == nil {
		dialects = []uuid.UUID{}
	}
	return sememeResponse{
		ID:                 s.ID,
		LexemeID:           s.LexemeID,
		Gloss:              s.Gloss,
		Definition:         s.Definition,
		Example:            s.Example,
		ExampleTranslation: s.ExampleTranslation,
		Position:           s.Position,
		DialectIDs:         dialects,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

type lexemeResponse struct {
	ID           uuid.UUID  `json:"id"`
	LanguageID   uuid.UUID  `json:"languageId"`
	PartOfSpeech string     `json:"partOfSpeech"`
	Notes        *string    `json:"notes"`
	Tags         []string   `json:"tags"`
	Source       *string    `json:"source"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

type lexemeDetailResponse struct {
	lexemeResponse
	Variants []variantResponse `json:"variants"`
	Sememes  []sememeResponse  `json:"sememes"`
}

func toLexeme(l domain.Lexeme) lexemeResponse {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return lexemeResponse{
		ID:           l.ID,
		LanguageID:   l.LanguageID,
		PartOfSpeech: string(l.PartOfSpeech),
		Notes:        l.Notes,
		Tags:         tags,
		Source:       l.Source,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		DeletedAt:    l.DeletedAt,
	}
}

func toLexemeDetail(d domain.LexemeDetail) lexemeDetailResponse {
	return lexemeDetailResponse{
		lexemeResponse: toLexeme(d.Lexeme),
		Variants:       mapSlice(d.Variants, toVariant),
		Sememes:        mapSlice(d.Sememes, toSememe),
	}
}

type revisionResponse struct {
	ID         uuid.UUID      `json:"id"`
	UserID     *uuid.UUID     `json:"userId"`
	EntityType string         `json:"entityType"`
	EntityID   uuid.UUID      `json:"entityId"`
	Action     string         `json:"action"`
	Changes    map[string]any `json:"changes"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func toRevision(r domain.Revision) revisionResponse {
	changes := r.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	return revisionResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		EntityType: string(r.EntityType),
		EntityID:   r.EntityID,
		Action:     string(r.Action),
		Changes:    changes,
		CreatedAt:  r.CreatedAt,
	}
}

type importRunResponse struct {
	ID         uuid.UUID       `json:"id"`
	UserID     *uuid.UUID      `json:"userId"`
	LanguageID uuid.UUID       `json:"languageId"`
	FileName   string          `json:"fileName"`
	Profile    string          `json:"profile"`
	DryRun     bool            `json:"dryRun"`
	Status     string          `json:"status"`
	Report     json.RawMessage `json:"report,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt"`
}

func toImportRun(r domain.ImportRun) importRunResponse {
	return importRunResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		LanguageID: r.LanguageID,
		FileName:   r.FileName,
		Profile:    r.Profile,
		DryRun:     r.DryRun,
		Status:     string(r.Status),
		Report:     r.Report,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// toImportRunSummary drops the report, which can be large, for list responses.
func toImportRunSummary(r domain.ImportRun) importRunResponse {
	out := toImportRun(r)
	out.Report = nil
	return out
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUser(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}
