// Package model defines domain entities for the application.
package model

import "time"

// CreatedAtLayout is the layout used for created_at values.
const CreatedAtLayout = time.RFC3339Nano

// TimeEntry is one record of tracked work.
// Nullable fields are pointers so that a full-overwrite update can store null.
type TimeEntry struct {
	ID        string  `json:"id"`
	Project   *string `json:"project"`
	Name      *string `json:"name"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Duration  float64 `json:"duration"`
	CreatedAt string  `json:"created_at"`
}

// EntryFields holds the replaceable attributes of a TimeEntry.
// An update writes every field, including nil ones.
type EntryFields struct {
	Project   *string
	Name      *string
	StartTime *string
	EndTime   *string
	Duration  float64
}

// Apply overwrites the replaceable attributes. ID and CreatedAt are untouched.
func (e *TimeEntry) Apply(f EntryFields) {
	e.Project = f.Project
	e.Name = f.Name
	e.StartTime = f.StartTime
	e.EndTime = f.EndTime
	e.Duration = f.Duration
}

// Clone returns a deep copy of the entry.
func (e *TimeEntry) Clone() *TimeEntry {
	c := *e
	c.Project = cloneString(e.Project)
	c.Name = cloneString(e.Name)
	c.StartTime = cloneString(e.StartTime)
	c.EndTime = cloneString(e.EndTime)
	return &c
}

// NewEntry builds an entry with the given identity and fields.
func NewEntry(id string, createdAt time.Time, f EntryFields) *TimeEntry {
	e := &TimeEntry{
		ID:        id,
		CreatedAt: createdAt.UTC().Format(CreatedAtLayout),
	}
	e.Apply(f)
	return e
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
