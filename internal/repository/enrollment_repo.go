package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classroom-api/internal/models"
)

const importChunkSize = 500

// ErrImportRowUnprepared is returned when an import row needs a new student
// but carries no password hash.
var ErrImportRowUnprepared = errors.New("import row has no password hash for a new student")

// ImportRow is one deduplicated spreadsheet line. PasswordHash is only read
// when the student number does not exist yet.
type ImportRow struct {
	StudentNumber string
	FullName      string
	PasswordHash  string
}

// ImportResult reports what a bulk import changed.
type ImportResult struct {
	Audit            models.StudentImport
	Rows             int
	CreatedStudents  int
	ExistingStudents int
	Enrolled         int
	AlreadyEnrolled  int
}

// EnrollmentRepository manages course-student links.
type EnrollmentRepository interface {
	ListStudents(ctx context.Context, courseID uint, page Page) ([]models.Student, int64, error)
	Enroll(ctx context.Context, courseID, studentID uint) (bool, error)
	Remove(ctx context.Context, courseID, studentID uint) error
	StudentIDs(ctx context.Context, courseID uint) ([]uint, error)
	CourseIDs(ctx context.Context, studentID uint) ([]uint, error)
	UnsubmittedStudents(ctx context.Context, courseID, assignmentID uint) ([]models.Student, error)
	// ExistingNumbers reports which of the given student numbers are already taken.
	ExistingNumbers(ctx context.Context, numbers []string) (map[string]struct{}, error)
	Import(ctx context.Context, courseID uint, fileName string, rows []ImportRow) (ImportResult, error)
	ListImports(ctx context.Context, courseID uint) ([]models.StudentImport, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) ListStudents(ctx context.Context, courseID uint, page Page) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Joins("JOIN course_students ON course_students.student_id = users.id").
		Where("course_students.course_id = ?", courseID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []models.Student
	if err := paginate(query.Order("users.id ASC"), page).Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

// Enroll links the student to the course and reports whether a new link was created.
func (r *enrollmentRepository) Enroll(ctx context.Context, courseID, studentID uint) (bool, error) {
	link := models.CourseStudent{CourseID: courseID, StudentID: studentID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *enrollmentRepository) Remove(ctx context.Context, courseID, studentID uint) error {
	result := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Delete(&models.CourseStudent{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepository) StudentIDs(ctx context.Context, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.CourseStudent{}).
		Where("course_id = ?", courseID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *enrollmentRepository) CourseIDs(ctx context.Context, studentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.CourseStudent{}).
		Where("student_id = ?", studentID).
		Order("course_id ASC").
		Pluck("course_id", &ids).Error
	return ids, err
}

func (r *enrollmentRepository) UnsubmittedStudents(ctx context.Context, courseID, assignmentID uint) ([]models.Student, error) {
	submitted := r.db.Model(&models.Submission{}).
		Select("student_id").
		Where("assignment_id = ?", assignmentID)

	var students []models.Student
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Joins("JOIN course_students ON course_students.student_id = users.id").
		Where("course_students.course_id = ?", courseID).
		Where("users.id NOT IN (?)", submitted).
		Order("users.id ASC").
		Find(&students).Error
	return students, err
}

func (r *enrollmentRepository) ExistingNumbers(ctx context.Context, numbers []string) (map[string]struct{}, error) {
	known := make(map[string]struct{}, len(numbers))
	err := inChunks(numbers, importChunkSize, func(chunk []string) error {
		var found []string
		if err := r.db.WithContext(ctx).
			Model(&models.Student{}).
			Where("student_number IN ?", chunk).
			Pluck("student_number", &found).Error; err != nil {
			return err
		}
		for _, number := range found {
			known[number] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return known, nil
}

// Import creates missing students from rows that carry a password hash, links
// every row to the course and records the audit entry in one transaction.
func (r *enrollmentRepository) Import(ctx context.Context, courseID uint, fileName string, rows []ImportRow) (ImportResult, error) {
	result := ImportResult{Rows: len(rows)}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		numbers := make([]string, 0, len(rows))
		for _, row := range rows {
			numbers = append(numbers, row.StudentNumber)
		}

		byNumber := make(map[string]uint, len(rows))
		err := inChunks(numbers, importChunkSize, func(chunk []string) error {
			var existing []models.Student
			if err := tx.Select("id", "student_number").Where("student_number IN ?", chunk).Find(&existing).Error; err != nil {
				return err
			}
			for _, student := range existing {
				byNumber[student.StudentNumber] = student.ID
			}
			return nil
		})
		if err != nil {
			return err
		}
		result.ExistingStudents = len(byNumber)

		var fresh []models.Student
		for _, row := range rows {
			if _, ok := byNumber[row.StudentNumber]; ok {
				continue
			}
			if row.PasswordHash == "" {
				return ErrImportRowUnprepared
			}
			fresh = append(fresh, models.Student{StudentNumber: row.StudentNumber, FullName: row.FullName, Password: row.PasswordHash})
		}

		if len(fresh) > 0 {
			if err := tx.CreateInBatches(&fresh, importChunkSize).Error; err != nil {
				return err
			}
			for _, student := range fresh {
				byNumber[student.StudentNumber] = student.ID
			}
		}
		result.CreatedStudents = len(fresh)

		studentIDs := make([]uint, 0, len(rows))
		for _, row := range rows {
			studentIDs = append(studentIDs, byNumber[row.StudentNumber])
		}

		linked := make(map[uint]struct{}, len(studentIDs))
		err = inChunks(studentIDs, importChunkSize, func(chunk []uint) error {
			var ids []uint
			if err := tx.Model(&models.CourseStudent{}).
				Where("course_id = ? AND student_id IN ?", courseID, chunk).
				Pluck("student_id", &ids).Error; err != nil {
				return err
			}
			for _, id := range ids {
				linked[id] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return err
		}

		var links []models.CourseStudent
		for _, id := range studentIDs {
			if _, ok := linked[id]; ok {
				continue
			}
			links = append(links, models.CourseStudent{CourseID: courseID, StudentID: id})
		}

		if len(links) > 0 {
			err = inChunks(links, importChunkSize, func(chunk []models.CourseStudent) error {
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chunk)
				if res.Error != nil {
					return res.Error
				}
				result.Enrolled += int(res.RowsAffected)
				return nil
			})
			if err != nil {
				return err
			}
		}
		result.AlreadyEnrolled = len(studentIDs) - result.Enrolled

		result.Audit = models.StudentImport{
			CourseID:         courseID,
			FileName:         fileName,
			Rows:             result.Rows,
			CreatedStudents:  result.CreatedStudents,
			ExistingStudents: result.ExistingStudents,
			Enrolled:         result.Enrolled,
			AlreadyEnrolled:  result.AlreadyEnrolled,
			Summary: datatypes.JSONMap{
				"rows":              result.Rows,
				"created_students":  result.CreatedStudents,
				"existing_students": result.ExistingStudents,
				"enrolled":          result.Enrolled,
				"already_enrolled":  result.AlreadyEnrolled,
			},
		}
		return tx.Create(&result.Audit).Error
	})
	if err != nil {
		return ImportResult{}, err
	}

	return result, nil
}

func (r *enrollmentRepository) ListImports(ctx context.Context, courseID uint) ([]models.StudentImport, error) {
	var imports []models.StudentImport
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC, id DESC").
		Find(&imports).Error
	return imports, err
}
