package entities

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// SurveyScores holds the optional structured survey vectors attached to a
// journal entry: PANAS positive/negative affect, BPNS, and Flourishing.
type SurveyScores struct {
	PANASPositive *float64  `json:"panas_positive,omitempty"`
	PANASNegative *float64  `json:"panas_negative,omitempty"`
	BPNS          []float64 `json:"bpns,omitempty"`
	Flourishing   []float64 `json:"flourishing,omitempty"`
}

// JournalEntry is the LEXICAL source document every pipeline run starts
// from. Text is immutable once the entry is submitted; spans hydrated
// against it stay valid for the workflow's lifetime.
type JournalEntry struct {
	Base
	Date             time.Time    `json:"date"`
	Text             string       `json:"text"`
	NarrativeExcerpt string       `json:"narrative_excerpt,omitempty"`
	Surveys          SurveyScores `json:"surveys"`
	WakeTime         *time.Time   `json:"wake_time,omitempty"`
	SleepTime        *time.Time   `json:"sleep_time,omitempty"`
}

// NewJournalEntry creates a journal entry with validation
func NewJournalEntry(date time.Time, text string) (*JournalEntry, error) {
	if text == "" {
		return nil, pkgerrors.NewValidation("journal text cannot be empty")
	}
	if date.IsZero() {
		return nil, pkgerrors.NewValidation("journal date cannot be zero")
	}
	return &JournalEntry{
		Base: NewBase(valueobjects.PartitionLexical),
		Date: date,
		Text: text,
	}, nil
}

// Kind returns the codec discriminator for journal entries
func (j *JournalEntry) Kind() Kind { return KindJournalEntry }

// DateString returns the entry date in Y-M-D form, used in workflow ids
func (j *JournalEntry) DateString() string {
	return j.Date.Format("2006-01-02")
}

// Template sections recognized by ParseJournalTemplate.
var (
	templateDateRegex  = regexp.MustCompile(`(?m)^#\s*(\d{4}-\d{2}-\d{2})\s*$`)
	templateWakeRegex  = regexp.MustCompile(`(?mi)^wake:\s*(\d{1,2}:\d{2})\s*$`)
	templateSleepRegex = regexp.MustCompile(`(?mi)^sleep:\s*(\d{1,2}:\d{2})\s*$`)
	templatePANASRegex = regexp.MustCompile(`(?mi)^panas:\s*([\d.]+)\s*/\s*([\d.]+)\s*$`)
	templateBPNSRegex  = regexp.MustCompile(`(?mi)^bpns:\s*([\d.,\s]+)$`)
	templateFlourRegex = regexp.MustCompile(`(?mi)^flourishing:\s*([\d.,\s]+)$`)
)

// ParseJournalTemplate parses the structured daily template form:
//
//	# 2024-05-03
//	wake: 07:30
//	sleep: 23:45
//	panas: 32/14
//	bpns: 5, 6, 4
//	flourishing: 6, 6, 5
//	## Narrative
//	free text...
//
// Header lines are optional except the date. Everything after the Narrative
// heading (or after the recognized headers when no heading is present)
// becomes the narrative excerpt; the full raw text is kept as Text.
func ParseJournalTemplate(raw string) (*JournalEntry, error) {
	dateMatch := templateDateRegex.FindStringSubmatch(raw)
	if dateMatch == nil {
		return nil, pkgerrors.NewValidation("journal template has no date header")
	}
	date, err := time.Parse("2006-01-02", dateMatch[1])
	if err != nil {
		return nil, pkgerrors.NewValidation("journal template has an invalid date: " + dateMatch[1])
	}

	entry, err := NewJournalEntry(date, raw)
	if err != nil {
		return nil, err
	}

	if m := templateWakeRegex.FindStringSubmatch(raw); m != nil {
		entry.WakeTime = clockOnDate(date, m[1])
	}
	if m := templateSleepRegex.FindStringSubmatch(raw); m != nil {
		entry.SleepTime = clockOnDate(date, m[1])
	}
	if m := templatePANASRegex.FindStringSubmatch(raw); m != nil {
		if pos, err := strconv.ParseFloat(m[1], 64); err == nil {
			entry.Surveys.PANASPositive = &pos
		}
		if neg, err := strconv.ParseFloat(m[2], 64); err == nil {
			entry.Surveys.PANASNegative = &neg
		}
	}
	if m := templateBPNSRegex.FindStringSubmatch(raw); m != nil {
		entry.Surveys.BPNS = parseVector(m[1])
	}
	if m := templateFlourRegex.FindStringSubmatch(raw); m != nil {
		entry.Surveys.Flourishing = parseVector(m[1])
	}

	if idx := strings.Index(strings.ToLower(raw), "## narrative"); idx >= 0 {
		body := raw[idx:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			entry.NarrativeExcerpt = strings.TrimSpace(body[nl+1:])
		}
	}

	return entry, nil
}

func clockOnDate(date time.Time, clock string) *time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return nil
	}
	at := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
	return &at
}

func parseVector(raw string) []float64 {
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if v, err := strconv.ParseFloat(part, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}
