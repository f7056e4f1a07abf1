package domain

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  hello  ", want: "hello"},
		{name: "lowercase", input: "Hello World", want: "hello world"},
		{name: "compress multiple spaces", input: "hello   world", want: "hello world"},
		{name: "tabs inside", input: "hello\t\tworld", want: "hello world"},
		{name: "diacritics preserved", input: "Café", want: "café"},
		{name: "hyphens preserved", input: "well-known", want: "well-known"},
		{name: "apostrophes preserved", input: "k'ali", want: "k'ali"},
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
		{name: "combining sequence composed", input: "Café", want: "café"},
		{name: "cyrillic", input: "Дом", want: "дом"},
		{name: "sharp s folded", input: "STRASSE", want: "strasse"},
		{name: "georgian unchanged", input: "სახლი", want: "სახლი"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeText_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	fragments := gen.SliceOf(gen.OneConstOf(
		"Café", "e\u0301", "A", "b", " ", "\t", "  ", "Дом", "ß", "k'", "-", "სახლი",
	))

	properties.Property("idempotent", prop.ForAll(
		func(parts []string) bool {
			once := NormalizeText(strings.Join(parts, ""))
			return NormalizeText(once) == once
		},
		fragments,
	))

	properties.Property("no leading, trailing or doubled spaces", prop.ForAll(
		func(parts []string) bool {
			out := NormalizeText(strings.Join(parts, ""))
			return out == strings.TrimSpace(out) && !strings.Contains(out, "  ")
		},
		fragments,
	))

	properties.Property("case-insensitive", prop.ForAll(
		func(s string) bool {
			return NormalizeText(strings.ToUpper(s)) == NormalizeText(strings.ToLower(s))
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
