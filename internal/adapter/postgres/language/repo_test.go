package language_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/language"
	"github.com/heartmarshall/lexicon-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

func TestRepo_CRUD(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := language.New(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	desc := "Kartvelian language of Svaneti"
	in := domain.Language{
		ID:          uuid.New(),
		Code:        testhelper.UniqueCode(),
		Name:        "Svan",
		Description: &desc,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in.Code, created.Code)
	assert.Equal(t, desc, *created.Description)

	byCode, err := repo.GetByCode(ctx, in.Code)
	require.NoError(t, err)
	assert.Equal(t, in.ID, byCode.ID)

	newName := "Svan language"
	empty := ""
	updated, err := repo.Update(ctx, in.ID, domain.LanguageUpdateParams{Name: &newName, Description: &empty})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Nil(t, updated.Description)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	found := false
	for _, l := range all {
		if l.ID == in.ID {
			found = true
		}
	}
	assert.True(t, found, "created language should be listed")

	require.NoError(t, repo.Delete(ctx, in.ID))
	_, err = repo.GetByID(ctx, in.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRepo_Create_DuplicateCode(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := language.New(pool)
	ctx := context.Background()

	existing := testhelper.SeedLanguage(t, pool)

	_, err := repo.Create(ctx, domain.Language{ID: uuid.New(), Code: existing.Code, Name: "Dup", CreatedAt: time.Now(), UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRepo_Create_InvalidCode(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := language.New(pool)

	_, err := repo.Create(context.Background(), domain.Language{ID: uuid.New(), Code: "NOT-VALID", Name: "Bad", CreatedAt: time.Now(), UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
