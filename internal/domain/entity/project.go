package entity

import (
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
)

// ProjectPhase is the sales phase of a project
type ProjectPhase string

// Project phases
const (
	ProjectUpcoming ProjectPhase = "UPCOMING"
	ProjectOpen     ProjectPhase = "OPEN"
	ProjectClosed   ProjectPhase = "CLOSED"
)

var projectTransitions = transitionTable[ProjectPhase]{
	ProjectUpcoming: {ProjectOpen, ProjectClosed},
	ProjectOpen:     {ProjectClosed},
}

// Project groups units that go on sale together
type Project struct {
	ID        string
	Name      string
	Phase     ProjectPhase
	OpenDate  *time.Time // Planned sale opening, bounds reservation lifetime
	OpenedAt  *time.Time // When the project actually opened
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open moves an upcoming project to the open phase
func (p *Project) Open(timeProvider coreport.TimeProvider) error {
	if p.Phase == ProjectOpen {
		return errs.ErrProjectAlreadyOpen
	}
	if err := projectTransitions.check("project", p.Phase, ProjectOpen); err != nil {
		return err
	}
	now := timeProvider.Now()
	p.Phase = ProjectOpen
	p.OpenedAt = &now
	p.UpdatedAt = now
	return nil
}

// AcceptsReservations reports whether agents may queue on the project's units
func (p *Project) AcceptsReservations() bool {
	return p.Phase == ProjectUpcoming
}

// AcceptsSales reports whether bookings and deposits may be placed, optionally upgrading a reservation
func (p *Project) AcceptsSales(upgradingReservation bool) bool {
	return p.Phase == ProjectOpen || (p.Phase == ProjectUpcoming && upgradingReservation)
}
