package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	Title    string
	CourseID *uint
	Page
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error)
	ListByCourses(ctx context.Context, courseIDs []uint) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	// Delete removes the assignment and its submissions in one transaction.
	// beforeCommit runs after the submissions are gone; an error rolls everything back.
	Delete(ctx context.Context, id uint, beforeCommit func(ctx context.Context) error) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository constructs a GORM backed assignment repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})

	if title := strings.TrimSpace(filter.Title); title != "" {
		query = query.Where("title = ?", title)
	}
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var assignments []models.Assignment
	if err := paginate(query.Order("id ASC"), filter.Page).Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func (r *assignmentRepository) ListByCourses(ctx context.Context, courseIDs []uint) ([]models.Assignment, error) {
	if len(courseIDs) == 0 {
		return []models.Assignment{}, nil
	}

	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("due_date ASC, id ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint, beforeCommit func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment models.Assignment
		if err := tx.Select("id").First(&assignment, id).Error; err != nil {
			return err
		}

		if err := tx.Where("assignment_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		if beforeCommit != nil {
			if err := beforeCommit(ctx); err != nil {
				return err
			}
		}

		return tx.Delete(&models.Assignment{}, id).Error
	})
}
