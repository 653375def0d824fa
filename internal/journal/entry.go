package journal

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	kerrors "github.com/fernvale/daybook/internal/errors"
)

// TimestampLayout is the format of the created/updated frontmatter fields.
const TimestampLayout = time.RFC3339

const (
	frontmatterDelim = "---"
	idAlphabet       = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength         = 21
)

// Frontmatter is the metadata block at the top of a journal entry.
type Frontmatter struct {
	ID      string
	Title   string
	Created string
	Updated string
}

// NewEntryID generates the opaque entry identifier: 21 lowercase
// alphanumeric characters, generated once at creation.
func NewEntryID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate entry id: %w", err)
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf), nil
}

// DayCount returns the ordinal day of `on` since the start date, inclusive.
// The first day is 1. Times of day are ignored.
func DayCount(start, on time.Time) int {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	onDay := time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC)
	return int(onDay.Sub(startDay).Hours()/24) + 1
}

// ParseFrontmatter extracts the metadata block and body from entry text.
// Returns ErrNotAnEntry when the leading `---` block is missing.
func ParseFrontmatter(text string) (*Frontmatter, string, error) {
	meta, body, ok := splitFrontmatter(text)
	if !ok {
		return nil, "", kerrors.ErrNotAnEntry
	}

	fm := &Frontmatter{}
	for _, line := range strings.Split(meta, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "id":
			fm.ID = value
		case "title":
			fm.Title = value
		case "created":
			fm.Created = value
		case "updated":
			fm.Updated = value
		}
	}

	return fm, body, nil
}

// LooksLikeEntry reports whether text has the journal entry shape: a leading
// frontmatter block containing exactly one `updated:` line. The watcher uses
// this to leave unrelated markdown files alone.
func LooksLikeEntry(text string) bool {
	meta, _, ok := splitFrontmatter(text)
	if !ok {
		return false
	}

	updated := 0
	for _, line := range strings.Split(meta, "\n") {
		if strings.HasPrefix(line, "updated:") {
			updated++
		}
	}
	return updated == 1
}

// Touch rewrites the `updated:` field of the metadata block to now,
// leaving every other byte of the entry untouched.
func Touch(text string, now time.Time) (string, error) {
	if !LooksLikeEntry(text) {
		return "", kerrors.ErrNotAnEntry
	}

	lines := strings.Split(text, "\n")
	delims := 0
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == frontmatterDelim {
			delims++
			if delims == 2 {
				break
			}
			continue
		}
		if delims == 1 && strings.HasPrefix(line, "updated:") {
			lines[i] = "updated: " + now.Format(TimestampLayout)
		}
	}

	return strings.Join(lines, "\n"), nil
}

// splitFrontmatter separates the `---` delimited metadata block from the
// body. The first line of the file must be the opening delimiter.
func splitFrontmatter(text string) (meta, body string, ok bool) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != frontmatterDelim {
		return "", "", false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == frontmatterDelim {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", "", false
}
