package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *RowReader) ([]Row, []*RowError) {
	t.Helper()
	var rows []Row
	var errs []*RowError
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows, errs
		}
		var re *RowError
		if errors.As(err, &re) {
			errs = append(errs, re)
			continue
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestRowReader_HeaderAndRows(t *testing.T) {
	t.Parallel()

	src := "\uFEFF Lemma ,GLOSS,Tags\n" +
		"# a comment line\n" +
		"voda, water ,\"a,b\"\n" +
		"\n" +
		" , , \n" +
		"dom,house,\n"

	r, err := NewRowReader(strings.NewReader(src), ReaderOptions{Delimiter: ',', Comment: '#'})
	require.NoError(t, err)
	assert.Equal(t, []string{"lemma", "gloss", "tags"}, r.Header())
	assert.True(t, r.HasColumn(" Gloss "))
	assert.False(t, r.HasColumn("notes"))

	rows, errs := readAll(t, r)
	require.Empty(t, errs)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Number)
	assert.Equal(t, 3, rows[0].Line)
	assert.Equal(t, "water", rows[0].Get("GLOSS"))
	assert.Equal(t, "a,b", rows[0].Get("tags"))

	assert.Equal(t, 2, rows[1].Number)
	assert.Equal(t, 6, rows[1].Line)
	assert.Equal(t, "", rows[1].Get("tags"))
	assert.Equal(t, "", rows[1].Get("missing"))
}

func TestRowReader_RaggedRowsReportedAndSkipped(t *testing.T) {
	t.Parallel()

	src := "lemma;gloss\nvoda;water\nbad\ndom;house;extra\nles;forest\n"
	r, err := NewRowReader(strings.NewReader(src), ReaderOptions{Delimiter: ';'})
	require.NoError(t, err)

	rows, errs := readAll(t, r)
	require.Len(t, rows, 2)
	require.Len(t, errs, 2)

	assert.Equal(t, 2, errs[0].Number)
	assert.Equal(t, 3, errs[0].Line)
	assert.ErrorIs(t, errs[0], ErrRaggedRow)
	assert.Equal(t, 3, errs[1].Number)
	assert.Equal(t, 4, rows[1].Number)
	assert.Equal(t, "forest", rows[1].Get("gloss"))
}

func TestRowReader_BadQuoteContinues(t *testing.T) {
	t.Parallel()

	src := "lemma,gloss\na\"b,x\nok,fine\n"
	r, err := NewRowReader(strings.NewReader(src), ReaderOptions{})
	require.NoError(t, err)

	rows, errs := readAll(t, r)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Line)
	require.Len(t, rows, 1)
	assert.Equal(t, "fine", rows[0].Get("gloss"))
}

func TestNewRowReader_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"only comments", "# nothing\n"},
		{"duplicate column", "lemma,Lemma\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRowReader(strings.NewReader(tt.src), ReaderOptions{Comment: '#'})
			assert.Error(t, err)
		})
	}
}

func TestRowReader_RoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	records := gen.SliceOf(gen.SliceOfN(3, gen.OneGenOf(
		gen.Identifier(),
		gen.OneConstOf("a b", "x,y", "say \"hi\"", "многострочный\nтекст", "ქართული"),
	)))

	properties.Property("rows read back as written, numbered in order", prop.ForAll(
		func(recs [][]string, tab bool) bool {
			delim := ','
			if tab {
				delim = '\t'
			}
			var buf bytes.Buffer
			w := csv.NewWriter(&buf)
			w.Comma = delim
			_ = w.Write([]string{"a", "b", "c"})
			_ = w.WriteAll(recs)

			r, err := NewRowReader(&buf, ReaderOptions{Delimiter: delim})
			if err != nil {
				return false
			}
			for i, rec := range recs {
				row, err := r.Next()
				if err != nil || row.Number != i+1 {
					return false
				}
				for j, col := range []string{"a", "b", "c"} {
					if row.Get(col) != strings.TrimSpace(rec[j]) {
						return false
					}
				}
			}
			_, err = r.Next()
			return errors.Is(err, io.EOF)
		},
		records,
		gen.Bool(),
	))

	properties.TestingRun(t)
}
