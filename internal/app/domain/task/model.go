// Package task defines the to-do domain model.
package task

import "time"

// Task is a to-do record owned by a chain address. Achievement counters for
// the owner live on-chain; the task record itself exists only in process
// memory for the lifetime of one run.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// Filter narrows a listing. A nil Completed matches both states; an empty
// Owner matches every owner.
type Filter struct {
	Completed *bool
	Owner     string
}

// Matches reports whether t satisfies the filter.
func (f Filter) Matches(t Task) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Owner != "" && t.Owner != f.Owner {
		return false
	}
	return true
}
