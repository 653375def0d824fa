package journal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	kerrors "github.com/fernvale/daybook/internal/errors"
)

// DefaultTemplate is the embedded template used when no external template
// file is supplied.
const DefaultTemplate = `---
id: {{id}}
title: journal.daily.{{year}}.{{month}}.{{day}}
created: {{timestamp}}
updated: {{timestamp}}
---

# Day {{daycount}}

Up: [[{{prev_month}}]] | [[{{prev_year}}]]

`

// Variables is the closed set of placeholder values a template can use.
type Variables struct {
	Year      string
	Month     string
	Day       string
	Timestamp string
	DayCount  int
	ID        string
	PrevMonth string
	PrevYear  string
}

// NewVariables builds the placeholder values for an entry dated `date` in a
// journal starting at `start`. The prev references name the monthly and
// yearly rollup notes preceding the entry date.
func NewVariables(id string, date, start time.Time) Variables {
	prevMonth := date.AddDate(0, -1, 0)
	prevYear := date.AddDate(-1, 0, 0)

	return Variables{
		Year:      fmt.Sprintf("%04d", date.Year()),
		Month:     fmt.Sprintf("%02d", int(date.Month())),
		Day:       fmt.Sprintf("%02d", date.Day()),
		Timestamp: date.Format(TimestampLayout),
		DayCount:  DayCount(start, date),
		ID:        id,
		PrevMonth: fmt.Sprintf("journal.monthly.%04d.%02d", prevMonth.Year(), int(prevMonth.Month())),
		PrevYear:  fmt.Sprintf("journal.yearly.%04d", prevYear.Year()),
	}
}

// Render expands the placeholder variables in templateText. Placeholders not
// in the closed set are left untouched; templates may omit any of them. Pure
// function, no I/O.
func Render(templateText string, vars Variables) string {
	return strings.NewReplacer(
		"{{year}}", vars.Year,
		"{{month}}", vars.Month,
		"{{day}}", vars.Day,
		"{{timestamp}}", vars.Timestamp,
		"{{daycount}}", strconv.Itoa(vars.DayCount),
		"{{id}}", vars.ID,
		"{{prev_month}}", vars.PrevMonth,
		"{{prev_year}}", vars.PrevYear,
	).Replace(templateText)
}

// LoadTemplate returns the template text for an invocation: the external
// file when path is non-empty, the embedded default otherwise. An unreadable
// or empty external template is fatal. The returned warning is non-empty
// when the template lacks frontmatter markers; callers report it but do not
// fail.
func LoadTemplate(path string) (text string, warning string, err error) {
	if path == "" {
		return DefaultTemplate, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", kerrors.ErrTemplateNotFound, path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", "", fmt.Errorf("%w: %s", kerrors.ErrTemplateEmpty, path)
	}

	text = string(data)
	if !strings.HasPrefix(text, frontmatterDelim) {
		warning = fmt.Sprintf("template %s has no frontmatter block; the watcher will not maintain its entries", path)
	}
	return text, warning, nil
}
