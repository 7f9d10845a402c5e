package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classroom-api/internal/models"
)

// SubmissionRepository manages persistence of submissions.
type SubmissionRepository interface {
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	PageByAssignment(ctx context.Context, assignmentID uint, page Page) ([]models.Submission, int64, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	// Upsert stores the submission, replacing any earlier one for the same assignment and student.
	Upsert(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository constructs a new repository instance.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC, id ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) PageByAssignment(ctx context.Context, assignmentID uint, page Page) ([]models.Submission, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("assignment_id = ?", assignmentID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var submissions []models.Submission
	if err := paginate(query.Preload("Student").Order("id ASC"), page).Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC, id DESC").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Submission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ? AND student_id = ?", submission.AssignmentID, submission.StudentID).
			First(&existing).Error
		switch {
		case err == nil:
			submission.ID = existing.ID
			submission.CreatedAt = existing.CreatedAt
			return tx.Omit(clause.Associations).Save(submission).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Omit(clause.Associations).Create(submission).Error
		default:
			return err
		}
	})
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}
