package job

import (
	"time"

	"github.com/google/uuid"
)

// Status is the job pipeline stage.
type Status string

const (
	StatusLead       Status = "lead"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
)

// Valid reports whether s is a known pipeline stage.
func (s Status) Valid() bool {
	switch s {
	case StatusLead, StatusScheduled, StatusInProgress, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Job is one piece of work a contractor does for a client.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	CompanyID   uuid.UUID  `json:"company_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Address     string     `json:"address,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateParams carries new job input. Status defaults to lead.
type CreateParams struct {
	ClientID    uuid.UUID  `json:"client_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Address     string     `json:"address,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// UpdateParams carries partial job updates; nil fields stay unchanged.
type UpdateParams struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Address     *string    `json:"address,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// ListFilter narrows job listings.
type ListFilter struct {
	ClientID uuid.UUID // uuid.Nil matches all clients
	Status   Status    // empty matches all statuses
	Limit    int
	Offset   int
}
