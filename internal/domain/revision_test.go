package domain

import (
	"testing"
)

func TestChanges_Diff(t *testing.T) {
	t.Parallel()

	c := Changes{}
	c.Diff("name", "Svan", "Svan").
		Diff("code", "sva", "sv").
		Diff("tags", []string{"a"}, []string{"a"}).
		Diff("other_tags", []string{"a"}, []string{"b"})

	if _, ok := c["name"]; ok {
		t.Error("unchanged field should not be recorded")
	}
	if _, ok := c["tags"]; ok {
		t.Error("equal slices should not be recorded")
	}
	code, ok := c["code"].(map[string]any)
	if !ok {
		t.Fatal("changed field should be recorded")
	}
	if code["old"] != "sva" || code["new"] != "sv" {
		t.Errorf("unexpected diff: %v", code)
	}
	if _, ok := c["other_tags"]; !ok {
		t.Error("changed slice should be recorded")
	}
}

func TestChanges_DiffPtr(t *testing.T) {
	t.Parallel()

	old := "x"
	c := Changes{}
	c.DiffPtr("notes", &old, nil)

	notes, ok := c["notes"].(map[string]any)
	if !ok {
		t.Fatal("expected notes change")
	}
	if notes["old"] != "x" || notes["new"] != nil {
		t.Errorf("unexpected diff: %v", notes)
	}
}

func TestChanges_Set(t *testing.T) {
	t.Parallel()

	c := Changes{}.Set("lemma", "ghvini")
	lemma, ok := c["lemma"].(map[string]any)
	if !ok || lemma["new"] != "ghvini" {
		t.Fatalf("unexpected set: %v", c)
	}
}
