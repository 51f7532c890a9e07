package repository

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitRepository implements persistence.UnitRepository using GORM
type UnitRepository struct {
	baseRepository
}

// NewUnitRepository creates a new UnitRepository instance
func NewUnitRepository(db *gorm.DB, logger coreport.Logger) *UnitRepository {
	return &UnitRepository{baseRepository: newBaseRepository(db, logger)}
}

func unitToEntity(m *model.Unit) *entity.Unit {
	return &entity.Unit{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Code:      m.Code,
		Price:     m.Price,
		Status:    entity.UnitStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// GetByID retrieves a unit by ID
func (r *UnitRepository) GetByID(ctx context.Context, id string) (*entity.Unit, error) {
	var m model.Unit
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("getting unit", err, errs.ErrUnitNotFound, map[string]any{"unit_id": id})
	}
	return unitToEntity(&m), nil
}

// GetForUpdate retrieves a unit with SELECT ... FOR UPDATE
func (r *UnitRepository) GetForUpdate(ctx context.Context, id string) (*entity.Unit, error) {
	var m model.Unit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, r.handleDatabaseError("locking unit", err, errs.ErrUnitNotFound, map[string]any{"unit_id": id})
	}
	return unitToEntity(&m), nil
}

// Create inserts a unit
func (r *UnitRepository) Create(ctx context.Context, unit *entity.Unit) error {
	m := model.Unit{
		ID:        unit.ID,
		ProjectID: unit.ProjectID,
		Code:      unit.Code,
		Price:     unit.Price,
		Status:    string(unit.Status),
		CreatedAt: unit.CreatedAt,
		UpdatedAt: unit.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.handleDatabaseError("creating unit", err, nil, map[string]any{"unit_id": unit.ID})
	}
	return nil
}

// UpdateStatus writes a new status
func (r *UnitRepository) UpdateStatus(ctx context.Context, id string, status entity.UnitStatus, at time.Time) error {
	r.logger.Debug("Updating unit status", map[string]any{
		"unit_id": id,
		"status":  status,
	})

	result := r.db.WithContext(ctx).
		Model(&model.Unit{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": at})
	if result.Error != nil {
		return r.handleDatabaseError("updating unit status", result.Error, nil, map[string]any{"unit_id": id})
	}
	if result.RowsAffected == 0 {
		return errs.ErrUnitNotFound
	}
	return nil
}

// ListIDs lists unit IDs having one of the statuses, optionally restricted to a project
func (r *UnitRepository) ListIDs(ctx context.Context, projectID string, statuses []entity.UnitStatus) ([]string, error) {
	query := r.db.WithContext(ctx).Model(&model.Unit{}).Where("status IN ?", toStrings(statuses))
	if projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	var ids []string
	if err := query.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, r.handleDatabaseError("listing units", err, nil, map[string]any{"project_id": projectID})
	}
	return ids, nil
}

// ListIDsWithActiveQueue lists the project's unclaimed or reservation-held units that still have ACTIVE tickets
func (r *UnitRepository) ListIDsWithActiveQueue(ctx context.Context, projectID string) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Unit{}).
		Where("status IN ?", []string{string(entity.UnitAvailable), string(entity.UnitReservedBooking)}).
		Where("EXISTS (SELECT 1 FROM reservations WHERE reservations.unit_id = units.id AND reservations.status = ?)",
			string(entity.ReservationActive))
	if projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	var ids []string
	if err := query.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, r.handleDatabaseError("listing queued units", err, nil, map[string]any{"project_id": projectID})
	}
	return ids, nil
}

// ProjectRepository implements persistence.ProjectRepository using GORM
type ProjectRepository struct {
	baseRepository
}

// NewProjectRepository creates a new ProjectRepository instance
func NewProjectRepository(db *gorm.DB, logger coreport.Logger) *ProjectRepository {
	return &ProjectRepository{baseRepository: newBaseRepository(db, logger)}
}

func projectToEntity(m *model.Project) *entity.Project {
	return &entity.Project{
		ID:        m.ID,
		Name:      m.Name,
		Phase:     entity.ProjectPhase(m.Phase),
		OpenDate:  m.OpenDate,
		OpenedAt:  m.OpenedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func projectToModel(p *entity.Project) *model.Project {
	return &model.Project{
		ID:        p.ID,
		Name:      p.Name,
		Phase:     string(p.Phase),
		OpenDate:  p.OpenDate,
		OpenedAt:  p.OpenedAt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	var m model.Project
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("getting project", err, errs.ErrProjectNotFound, map[string]any{"project_id": id})
	}
	return projectToEntity(&m), nil
}

// GetForUpdate retrieves a project with SELECT ... FOR UPDATE
func (r *ProjectRepository) GetForUpdate(ctx context.Context, id string) (*entity.Project, error) {
	var m model.Project
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, r.handleDatabaseError("locking project", err, errs.ErrProjectNotFound, map[string]any{"project_id": id})
	}
	return projectToEntity(&m), nil
}

// Create inserts a project
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	if err := r.db.WithContext(ctx).Create(projectToModel(project)).Error; err != nil {
		return r.handleDatabaseError("creating project", err, nil, map[string]any{"project_id": project.ID})
	}
	return nil
}

// Update persists phase and timestamps
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	result := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]any{
			"name":       project.Name,
			"phase":      string(project.Phase),
			"open_date":  project.OpenDate,
			"opened_at":  project.OpenedAt,
			"updated_at": project.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating project", result.Error, nil, map[string]any{"project_id": project.ID})
	}
	if result.RowsAffected == 0 {
		return errs.ErrProjectNotFound
	}
	return nil
}
