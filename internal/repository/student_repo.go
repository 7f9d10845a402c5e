package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	StudentNumber string
	Page
}

// StudentRepository defines persistence operations for students.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByNumber(ctx context.Context, number string) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	// Delete removes the student with their enrollments and submissions and
	// returns the removed submissions so their files can be cleaned up.
	Delete(ctx context.Context, id uint) ([]models.Submission, error)
	// DeleteAll removes every student, enrollment and submission.
	DeleteAll(ctx context.Context) ([]models.Submission, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if number := strings.TrimSpace(filter.StudentNumber); number != "" {
		query = query.Where("student_number = ?", number)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []models.Student
	if err := paginate(query.Order("id ASC"), filter.Page).Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByNumber(ctx context.Context, number string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("student_number = ?", number).First(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) Delete(ctx context.Context, id uint) ([]models.Submission, error) {
	var removed []models.Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.Select("id").First(&student, id).Error; err != nil {
			return err
		}

		if err := tx.Where("student_id = ?", id).Find(&removed).Error; err != nil {
			return err
		}

		if err := tx.Where("student_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		if err := tx.Where("student_id = ?", id).Delete(&models.CourseStudent{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Student{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *studentRepository) DeleteAll(ctx context.Context) ([]models.Submission, error) {
	var removed []models.Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Find(&removed).Error; err != nil {
			return err
		}

		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := global.Delete(&models.CourseStudent{}).Error; err != nil {
			return err
		}
		return global.Delete(&models.Student{}).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
