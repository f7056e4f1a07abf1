package language

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func languageRows(l domain.Language) *pgxmock.Rows {
	return pgxmock.NewRows(columns).
		AddRow(l.ID, l.Code, l.Name, l.Description, l.CreatedAt, l.UpdatedAt)
}

// squirrel's Eq runs driver.Valuer, so uuid arguments reach the driver as strings.
func TestRepo_GetByID_Mock(t *testing.T) {
	t.Parallel()

	now := time.Now()
	lang := domain.Language{ID: uuid.New(), Code: "sva", Name: "Svan", Description: (*string)(nil), CreatedAt: now, UpdatedAt: now}

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, code, name, description, created_at, updated_at FROM languages WHERE id = \$1`).
					WithArgs(lang.ID.String()).
					WillReturnRows(languageRows(lang))
			},
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM languages`).
					WithArgs(lang.ID.String()).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := newMock(t)
			tt.setup(mock)

			got, err := New(mock).GetByID(context.Background(), lang.ID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetByID() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("GetByID() unexpected error: %v", err)
				}
				if got.Code != "sva" || got.Name != "Svan" {
					t.Errorf("GetByID() = %+v", got)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestRepo_Create_DuplicateCode_Mock(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO languages`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	_, err := New(mock).Create(context.Background(), domain.Language{ID: uuid.New(), Code: "sva", Name: "Svan"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRepo_Update_OnlySetsGivenFields_Mock(t *testing.T) {
	t.Parallel()

	now := time.Now()
	id := uuid.New()
	name := "Svan (Upper Bal)"
	empty := ""

	mock := newMock(t)
	mock.ExpectQuery(`UPDATE languages SET updated_at = now\(\), name = \$1, description = \$2 WHERE id = \$3 RETURNING`).
		WithArgs(name, (*string)(nil), id.String()).
		WillReturnRows(languageRows(domain.Language{ID: id, Code: "sva", Name: name, Description: (*string)(nil), CreatedAt: now, UpdatedAt: now}))

	got, err := New(mock).Update(context.Background(), id, domain.LanguageUpdateParams{Name: &name, Description: &empty})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if got.Name != name || got.Description != nil {
		t.Errorf("Update() = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRepo_Delete_NotFound_Mock(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM languages`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := New(mock).Delete(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
