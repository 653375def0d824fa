package journal

import (
	"errors"
	"strings"
	"testing"
	"time"

	kerrors "github.com/fernvale/daybook/internal/errors"
)

func TestNewEntryID(t *testing.T) {
	id, err := NewEntryID()
	if err != nil {
		t.Fatalf("NewEntryID failed: %v", err)
	}

	if len(id) != 21 {
		t.Fatalf("Expected ID length 21, got %d", len(id))
	}

	for _, r := range id {
		if !strings.ContainsRune(idAlphabet, r) {
			t.Errorf("ID contains character %q outside the alphabet", r)
		}
	}
}

func TestNewEntryIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewEntryID()
		if err != nil {
			t.Fatalf("NewEntryID failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("Duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestDayCount(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		on   time.Time
		want int
	}{
		{"start date is day one", start, 1},
		{"next day", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 2},
		{"time of day ignored", time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC), 2},
		{"across a month", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 32},
		{"leap year", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 61},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayCount(start, tt.on); got != tt.want {
				t.Errorf("Expected day count %d, got %d", tt.want, got)
			}
		})
	}
}

const sampleEntry = `---
id: abc123def456ghi789jkl
title: journal.daily.2024.03.15
created: 2024-03-15T08:00:00Z
updated: 2024-03-15T08:00:00Z
---

# Day 75

Some notes.
`

func TestParseFrontmatter(t *testing.T) {
	fm, body, err := ParseFrontmatter(sampleEntry)
	if err != nil {
		t.Fatalf("ParseFrontmatter failed: %v", err)
	}

	if fm.ID != "abc123def456ghi789jkl" {
		t.Errorf("Expected ID %q, got %q", "abc123def456ghi789jkl", fm.ID)
	}
	if fm.Title != "journal.daily.2024.03.15" {
		t.Errorf("Expected title %q, got %q", "journal.daily.2024.03.15", fm.Title)
	}
	if fm.Created != "2024-03-15T08:00:00Z" {
		t.Errorf("Expected created %q, got %q", "2024-03-15T08:00:00Z", fm.Created)
	}
	if fm.Updated != "2024-03-15T08:00:00Z" {
		t.Errorf("Expected updated %q, got %q", "2024-03-15T08:00:00Z", fm.Updated)
	}
	if !strings.Contains(body, "# Day 75") {
		t.Errorf("Expected body to contain the heading, got %q", body)
	}
}

func TestParseFrontmatterNotAnEntry(t *testing.T) {
	_, _, err := ParseFrontmatter("# plain markdown\n\nno metadata here\n")
	if !errors.Is(err, kerrors.ErrNotAnEntry) {
		t.Fatalf("Expected ErrNotAnEntry, got %v", err)
	}
}

func TestLooksLikeEntry(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"well formed entry", sampleEntry, true},
		{"plain markdown", "# notes\n", false},
		{"unterminated block", "---\nupdated: x\n", false},
		{"no updated field", "---\nid: abc\n---\nbody\n", false},
		{"two updated fields", "---\nupdated: a\nupdated: b\n---\n", false},
		{"delimiter not on first line", "\n---\nupdated: x\n---\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeEntry(tt.text); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTouch(t *testing.T) {
	now := time.Date(2024, 3, 16, 9, 30, 0, 0, time.UTC)

	touched, err := Touch(sampleEntry, now)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	fm, body, err := ParseFrontmatter(touched)
	if err != nil {
		t.Fatalf("ParseFrontmatter after Touch failed: %v", err)
	}

	if fm.Updated != "2024-03-16T09:30:00Z" {
		t.Errorf("Expected updated %q, got %q", "2024-03-16T09:30:00Z", fm.Updated)
	}
	if fm.Created != "2024-03-15T08:00:00Z" {
		t.Errorf("Touch modified created: %q", fm.Created)
	}
	if fm.ID != "abc123def456ghi789jkl" {
		t.Errorf("Touch modified id: %q", fm.ID)
	}

	_, originalBody, _ := ParseFrontmatter(sampleEntry)
	if body != originalBody {
		t.Errorf("Touch modified the body:\n%q\nwant:\n%q", body, originalBody)
	}
}

func TestTouchLeavesBodyUpdatedLinesAlone(t *testing.T) {
	entry := "---\nupdated: 2024-01-01T00:00:00Z\n---\nupdated: this line is body text\n"
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	touched, err := Touch(entry, now)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	if !strings.Contains(touched, "updated: this line is body text") {
		t.Errorf("Touch rewrote an updated: line outside the metadata block:\n%s", touched)
	}
	if !strings.Contains(touched, "updated: 2024-06-01T12:00:00Z") {
		t.Errorf("Touch did not rewrite the metadata updated: line:\n%s", touched)
	}
}

func TestTouchRejectsNonEntry(t *testing.T) {
	_, err := Touch("# notes\n", time.Now())
	if !errors.Is(err, kerrors.ErrNotAnEntry) {
		t.Fatalf("Expected ErrNotAnEntry, got %v", err)
	}
}
