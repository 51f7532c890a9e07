package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
)

// UnitRepository defines access to units
type UnitRepository interface {
	// GetByID retrieves a unit by ID
	//
	// Possible errors:
	// - ErrUnitNotFound: If the unit doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.Unit, error)

	// GetForUpdate retrieves a unit and locks its row until the transaction ends
	//
	// Possible errors:
	// - ErrUnitNotFound: If the unit doesn't exist
	// - ErrConcurrentUpdate: If the lock conflicts with another serializable transaction
	GetForUpdate(ctx context.Context, id string) (*entity.Unit, error)

	// Create inserts a unit (catalog import)
	Create(ctx context.Context, unit *entity.Unit) error

	// UpdateStatus writes a new status
	//
	// Possible errors:
	// - ErrUnitNotFound: If the unit doesn't exist
	UpdateStatus(ctx context.Context, id string, status entity.UnitStatus, at time.Time) error

	// ListIDs lists unit IDs of a project (all projects when projectID is empty) having one of the statuses
	ListIDs(ctx context.Context, projectID string, statuses []entity.UnitStatus) ([]string, error)

	// ListIDsWithActiveQueue lists the AVAILABLE or RESERVED_BOOKING units of a project
	// that have at least one ACTIVE reservation
	ListIDsWithActiveQueue(ctx context.Context, projectID string) ([]string, error)
}

// ProjectRepository defines access to projects
type ProjectRepository interface {
	// GetByID retrieves a project by ID
	//
	// Possible errors:
	// - ErrProjectNotFound: If the project doesn't exist
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// GetForUpdate retrieves a project and locks its row
	GetForUpdate(ctx context.Context, id string) (*entity.Project, error)

	Create(ctx context.Context, project *entity.Project) error

	// Update persists phase and timestamps
	Update(ctx context.Context, project *entity.Project) error
}
