package importer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

func TestDefaultProfile_Valid(t *testing.T) {
	t.Parallel()

	p := DefaultProfile()
	require.NoError(t, p.Validate())
	assert.Equal(t, ReaderOptions{Delimiter: ',', Comment: '#'}, p.ReaderOptions())
	assert.Equal(t, []string{
		"lemma", "pronunciation", "pos", "gloss", "definition", "example",
		"example_translation", "dialects", "tags", "notes", "source",
	}, p.Header())
}

func TestLoadProfile_File(t *testing.T) {
	t.Parallel()

	p, err := LoadProfile(filepath.Join("testdata", "profiles", "two_scripts.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "two_scripts", p.Name)
	assert.Equal(t, ';', p.ReaderOptions().Delimiter)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "latin", p.Variants[0].Column, "column names are lower-cased")
	assert.Equal(t, "ipa", p.Variants[0].Pronunciation)
	assert.Equal(t, "cyr", p.MainOrthography)
	assert.Equal(t, "meaning", p.Columns.Gloss)
	assert.Equal(t, []string{"latin", "ipa", "cyrillic", "pos", "meaning", "definition", "example", "dialects", "tags"}, p.Header())
}

func TestLoadProfile_UnknownKeyRejected(t *testing.T) {
	t.Parallel()

	_, err := LoadProfile(filepath.Join("testdata", "profiles", "typo.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glos")
}

func TestResolveProfile(t *testing.T) {
	t.Parallel()
	dir := filepath.Join("testdata", "profiles")

	p, err := ResolveProfile(dir, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileName, p.Name)

	p, err = ResolveProfile(dir, " Two_Scripts ")
	require.NoError(t, err)
	assert.Equal(t, "two_scripts", p.Name)

	_, err = ResolveProfile(dir, "missing")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ResolveProfile(dir, "../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ResolveProfile("", "two_scripts")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseProfile_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "",
			wantErr: "empty document",
		},
		{
			name:    "no variants",
			yaml:    "name: x\ncolumns:\n  gloss: gloss\n",
			wantErr: "variants",
		},
		{
			name:    "no gloss",
			yaml:    "name: x\nvariants:\n  - column: lemma\n",
			wantErr: "columns.gloss",
		},
		{
			name:    "column mapped twice",
			yaml:    "name: x\nvariants:\n  - column: lemma\ncolumns:\n  gloss: lemma\n",
			wantErr: "already mapped",
		},
		{
			name:    "orthography mapped twice",
			yaml:    "name: x\nvariants:\n  - column: a\n    orthography: lat\n  - column: b\n    orthography: LAT\ncolumns:\n  gloss: gloss\n",
			wantErr: "orthography mapped twice",
		},
		{
			name:    "main orthography not mapped",
			yaml:    "name: x\nvariants:\n  - column: a\nmain_orthography: cyr\ncolumns:\n  gloss: gloss\n",
			wantErr: "main_orthography",
		},
		{
			name:    "same separators",
			yaml:    "name: x\nvariants:\n  - column: a\ncolumns:\n  gloss: gloss\nsememe_separator: \",\"\n",
			wantErr: "list_separator",
		},
		{
			name:    "comment equals delimiter",
			yaml:    "name: x\ndelimiter: \";\"\ncomment: \";\"\nvariants:\n  - column: a\ncolumns:\n  gloss: gloss\n",
			wantErr: "comment",
		},
		{
			name:    "bad name",
			yaml:    "name: My Profile\nvariants:\n  - column: a\ncolumns:\n  gloss: gloss\n",
			wantErr: "name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseProfile(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
