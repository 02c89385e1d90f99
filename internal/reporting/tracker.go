package reporting

import (
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/david/ywc-dashboard/internal/models"
)

// Field names an editable part of an annotation.
type Field string

const (
	FieldResponseData Field = "responseData"
	FieldEvidence     Field = "evidence"
	FieldNotes        Field = "notes"
	FieldActionItems  Field = "actionItems"
)

func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldResponseData, FieldEvidence, FieldNotes, FieldActionItems:
		return f, nil
	}
	return "", fmt.Errorf("unknown annotation field %q", s)
}

// Completion summarizes how many indicators have a completed annotation.
type Completion struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Tracker keeps per-indicator annotations in memory. Annotations are never
// written to the slot store or the snapshot history.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]models.Annotation
	policy  *bluemonday.Policy
	Now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]models.Annotation),
		policy:  bluemonday.StrictPolicy(),
		Now:     time.Now,
	}
}

// Update sets one field of the annotation for id and returns the result.
// Markup is stripped from value. Later writes to the same id win.
func (t *Tracker) Update(id string, field Field, value string) (models.Annotation, error) {
	if id == "" {
		return models.Annotation{}, fmt.Errorf("indicator id is required")
	}
	if _, err := ParseField(string(field)); err != nil {
		return models.Annotation{}, err
	}
	clean := t.sanitize(value)

	t.mu.Lock()
	defer t.mu.Unlock()

	a := t.entries[id]
	switch field {
	case FieldResponseData:
		a.ResponseData = clean
	case FieldEvidence:
		a.Evidence = clean
	case FieldNotes:
		a.Notes = clean
	case FieldActionItems:
		a.ActionItems = clean
	}
	a.LastUpdated = t.Now().UTC()
	a.IsCompleted = a.ResponseData != "" && a.Notes != ""
	t.entries[id] = a
	return a, nil
}

func (t *Tracker) Get(id string) (models.Annotation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.entries[id]
	return a, ok
}

// All returns a copy of every annotation keyed by indicator id.
func (t *Tracker) All() map[string]models.Annotation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]models.Annotation, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]models.Annotation)
}

// Completion counts indicators whose annotation is complete.
func (t *Tracker) Completion(indicators []models.Indicator) Completion {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c := Completion{Total: len(indicators)}
	for _, ind := range indicators {
		if t.entries[ind.ID].IsCompleted {
			c.Completed++
		}
	}
	if c.Total > 0 {
		c.Percentage = float64(c.Completed) / float64(c.Total) * 100
	}
	return c
}

// maxEntityDepth bounds how many layers of entity encoding are decoded
// before sanitizing.
const maxEntityDepth = 4

// sanitize strips markup, including markup hidden behind entity encoding.
// Input is decoded before the policy runs so encoded tags are seen as tags.
// StrictPolicy escapes what remains, which is decoded back so plain text
// round-trips.
func (t *Tracker) sanitize(s string) string {
	for i := 0; i < maxEntityDepth; i++ {
		u := html.UnescapeString(s)
		if u == s {
			break
		}
		s = u
	}
	return strings.TrimSpace(html.UnescapeString(t.policy.Sanitize(s)))
}
