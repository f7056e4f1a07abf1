package importer

import (
	"fmt"
	"time"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// Message is one categorized note produced while importing.
type Message struct {
	Level  domain.MessageLevel `json:"level"`
	Row    int                 `json:"row,omitempty"`
	Line   int                 `json:"line,omitempty"`
	Column string              `json:"column,omitempty"`
	Text   string              `json:"text"`
}

func (m Message) String() string {
	loc := ""
	if m.Row > 0 {
		loc = fmt.Sprintf("row %d", m.Row)
		if m.Line > 0 {
			loc += fmt.Sprintf(" (line %d)", m.Line)
		}
	}
	if m.Column != "" {
		if loc != "" {
			loc += ", "
		}
		loc += "column " + m.Column
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", m.Level, m.Text)
	}
	return fmt.Sprintf("%s: %s: %s", m.Level, loc, m.Text)
}

// Messages collects messages in the order they were produced.
type Messages struct {
	list   []Message
	errors int
}

// Add appends a message.
func (m *Messages) Add(msg Message) {
	if msg.Level == domain.MessageLevelError {
		m.errors++
	}
	m.list = append(m.list, msg)
}

// Info appends an info message for a row.
func (m *Messages) Info(row Row, column, text string) {
	m.Add(Message{Level: domain.MessageLevelInfo, Row: row.Number, Line: row.Line, Column: column, Text: text})
}

// Warning appends a warning for a row.
func (m *Messages) Warning(row Row, column, text string) {
	m.Add(Message{Level: domain.MessageLevelWarning, Row: row.Number, Line: row.Line, Column: column, Text: text})
}

// Error appends an error for a row.
func (m *Messages) Error(row Row, column, text string) {
	m.Add(Message{Level: domain.MessageLevelError, Row: row.Number, Line: row.Line, Column: column, Text: text})
}

// ErrorCount returns the number of error messages.
func (m *Messages) ErrorCount() int { return m.errors }

// List returns the collected messages.
func (m *Messages) List() []Message { return m.list }

// Len returns the number of collected messages.
func (m *Messages) Len() int { return len(m.list) }

// Report summarizes an import run.
type Report struct {
	Read     int `json:"read"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	// LastCommittedRow is the highest data row whose batch was committed.
	// Passing it as SkipCount resumes an interrupted import.
	LastCommittedRow int           `json:"last_committed_row"`
	DryRun           bool          `json:"dry_run"`
	Aborted          bool          `json:"aborted"`
	Duration         time.Duration `json:"-"`
	DurationMS       int64         `json:"duration_ms"`
	Messages         []Message     `json:"messages"`
}

// HasErrors reports whether any error message was recorded.
func (r *Report) HasErrors() bool {
	for _, m := range r.Messages {
		if m.Level == domain.MessageLevelError {
			return true
		}
	}
	return false
}

// Count returns the number of messages of a level.
func (r *Report) Count(level domain.MessageLevel) int {
	n := 0
	for _, m := range r.Messages {
		if m.Level == level {
			n++
		}
	}
	return n
}
