package entities

import (
	"time"

	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// Event is a DOMAIN entity for something that happened at a point in time
type Event struct {
	EntityCore
	Category string         `json:"category,omitempty"`
	Date     *time.Time     `json:"date,omitempty"`
	Duration *time.Duration `json:"duration,omitempty"`
	Location string         `json:"location,omitempty"`
}

// NewEvent creates an event with validation
func NewEvent(name, summaryShort, summary string) (*Event, error) {
	core, err := NewEntityCore(name, summaryShort, summary)
	if err != nil {
		return nil, err
	}
	return &Event{EntityCore: core}, nil
}

// Kind implements Entity
func (e *Event) Kind() Kind { return KindEvent }

// ProjectStatus tracks where a project stands
type ProjectStatus string

const (
	ProjectStatusPlanned   ProjectStatus = "PLANNED"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusPaused    ProjectStatus = "PAUSED"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusDropped   ProjectStatus = "DROPPED"
)

// Project is a DOMAIN entity for an ongoing personal undertaking
type Project struct {
	EntityCore
	Status           ProjectStatus `json:"status,omitempty"`
	StartDate        *time.Time    `json:"start_date,omitempty"`
	TargetCompletion *time.Time    `json:"target_completion,omitempty"`
	Progress         int           `json:"progress"`
}

// NewProject creates a project with validation
func NewProject(name, summaryShort, summary string) (*Project, error) {
	core, err := NewEntityCore(name, summaryShort, summary)
	if err != nil {
		return nil, err
	}
	return &Project{EntityCore: core, Status: ProjectStatusActive}, nil
}

// Kind implements Entity
func (p *Project) Kind() Kind { return KindProject }

// SetProgress updates progress with range validation
func (p *Project) SetProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return pkgerrors.NewValidation("project progress must be between 0 and 100")
	}
	p.Progress = progress
	return nil
}
