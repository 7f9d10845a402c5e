package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	// Delete removes the course with its enrollments, assignments and their submissions.
	// It returns the ids of the removed assignments.
	Delete(ctx context.Context, id uint) ([]uint, error)
	// DeleteAll removes every course and everything hanging off it.
	DeleteAll(ctx context.Context) ([]uint, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var assignmentIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Select("id").First(&course, id).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Assignment{}).Where("course_id = ?", id).Pluck("id", &assignmentIDs).Error; err != nil {
			return err
		}

		if err := deleteCourseDependents(tx, assignmentIDs, "course_id = ?", id); err != nil {
			return err
		}

		return tx.Delete(&models.Course{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return assignmentIDs, nil
}

func (r *courseRepository) DeleteAll(ctx context.Context) ([]uint, error) {
	var assignmentIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Assignment{}).Pluck("id", &assignmentIDs).Error; err != nil {
			return err
		}

		if err := deleteCourseDependents(tx, assignmentIDs, "1 = 1"); err != nil {
			return err
		}

		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Course{}).Error
	})
	if err != nil {
		return nil, err
	}
	return assignmentIDs, nil
}

// deleteCourseDependents removes submissions of the given assignments, then every
// row matching the condition in the assignment, enrollment and import tables.
func deleteCourseDependents(tx *gorm.DB, assignmentIDs []uint, condition string, args ...interface{}) error {
	err := inChunks(assignmentIDs, 500, func(chunk []uint) error {
		return tx.Where("assignment_id IN ?", chunk).Delete(&models.Submission{}).Error
	})
	if err != nil {
		return err
	}

	for _, model := range []interface{}{&models.Assignment{}, &models.CourseStudent{}, &models.StudentImport{}} {
		if err := tx.Where(condition, args...).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
