package service

import (
	"context"
	"errors"
	"io"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/pkg/events"
)

// EnrollmentService manages course rosters.
type EnrollmentService interface {
	ImportStudents(ctx context.Context, courseID uint, fileName string, reader io.Reader) (dto.StudentImportReport, error)
	ListStudents(ctx context.Context, courseID uint, page dto.PageRequest) (dto.CourseStudentListResponse, error)
	Enroll(ctx context.Context, courseID uint, payload dto.EnrollStudentRequest) (dto.EnrollmentResponse, error)
	ListImports(ctx context.Context, courseID uint) ([]dto.StudentImportResponse, error)
	Remove(ctx context.Context, courseID, studentID uint) error
	DeleteAllStudents(ctx context.Context) error
}

// EnrollmentDependencies groups the collaborators of the enrollment service.
type EnrollmentDependencies struct {
	Courses     repository.CourseRepository
	Students    repository.StudentRepository
	Enrollments repository.EnrollmentRepository
	Hasher      PasswordHasher
	Publisher   events.Publisher
	Files       FileRemover
	Cache       *OverviewCache
	Validator   *validator.Validate
	MaxRows     int
}

type enrollmentService struct {
	courses     repository.CourseRepository
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	hasher      PasswordHasher
	publisher   events.Publisher
	files       FileRemover
	cache       *OverviewCache
	validator   *validator.Validate
	maxRows     int
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewEnrollmentService builds the enrollment service.
func NewEnrollmentService(deps EnrollmentDependencies, logger zerolog.Logger) EnrollmentService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &enrollmentService{
		courses:     deps.Courses,
		students:    deps.Students,
		enrollments: deps.Enrollments,
		hasher:      deps.Hasher,
		publisher:   publisher,
		files:       deps.Files,
		cache:       deps.Cache,
		validator:   deps.Validator,
		maxRows:     deps.MaxRows,
		tracer:      otel.Tracer("github.com/noah-isme/classroom-api/internal/service/enrollment"),
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) ImportStudents(ctx context.Context, courseID uint, fileName string, reader io.Reader) (dto.StudentImportReport, error) {
	ctx, span := s.tracer.Start(ctx, "students.import")
	defer span.End()
	span.SetAttributes(
		attribute.Int("import.course_id", int(courseID)),
		attribute.String("import.file_name", fileName),
	)

	if err := s.ensureCourse(ctx, courseID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course lookup failed")
		return dto.StudentImportReport{}, err
	}

	if reader == nil {
		span.SetStatus(codes.Error, "file missing")
		return dto.StudentImportReport{}, ErrFileRequired
	}

	roster, err := ParseRoster(reader, s.maxRows)
	if err != nil {
		observability.ImportRows().WithLabelValues("rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "spreadsheet rejected")
		return dto.StudentImportReport{}, err
	}
	span.SetAttributes(
		attribute.Int("import.rows", len(roster.Rows)),
		attribute.Int("import.duplicates", roster.Duplicates),
	)

	if err := s.hashNewStudents(ctx, roster.Rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		return dto.StudentImportReport{}, err
	}

	result, err := s.enrollments.Import(ctx, courseID, fileName, roster.Rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "import failed")
		return dto.StudentImportReport{}, err
	}

	observability.ImportRows().WithLabelValues("created").Add(float64(result.CreatedStudents))
	observability.ImportRows().WithLabelValues("existing").Add(float64(result.ExistingStudents))
	observability.ImportRows().WithLabelValues("enrolled").Add(float64(result.Enrolled))
	observability.ImportRows().WithLabelValues("duplicate").Add(float64(roster.Duplicates))

	report := dto.StudentImportReport{
		ImportID:         result.Audit.ID,
		CourseID:         courseID,
		FileName:         fileName,
		Rows:             result.Rows,
		DuplicateRows:    roster.Duplicates,
		CreatedStudents:  result.CreatedStudents,
		ExistingStudents: result.ExistingStudents,
		Enrolled:         result.Enrolled,
		AlreadyEnrolled:  result.AlreadyEnrolled,
	}

	if result.Enrolled > 0 {
		s.cache.InvalidateAll(ctx)
	}
	s.publish(ctx, events.StudentsImported, report)
	span.SetStatus(codes.Ok, "imported")

	s.logger.Info().
		Uint("course_id", courseID).
		Int("rows", report.Rows).
		Int("created", report.CreatedStudents).
		Int("enrolled", report.Enrolled).
		Msg("students imported")

	return report, nil
}

// hashNewStudents sets the default password hash on rows whose student number
// is not registered yet. Hashing runs on a bounded pool outside any transaction.
func (s *enrollmentService) hashNewStudents(ctx context.Context, rows []repository.ImportRow) error {
	numbers := make([]string, 0, len(rows))
	for _, row := range rows {
		numbers = append(numbers, row.StudentNumber)
	}
	known, err := s.enrollments.ExistingNumbers(ctx, numbers)
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i := range rows {
		if _, ok := known[rows[i].StudentNumber]; ok {
			continue
		}
		row := &rows[i]
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hashed, err := s.hasher.Hash(row.StudentNumber)
			if err != nil {
				return err
			}
			row.PasswordHash = hashed
			return nil
		})
	}
	return group.Wait()
}

func (s *enrollmentService) ListStudents(ctx context.Context, courseID uint, page dto.PageRequest) (dto.CourseStudentListResponse, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return dto.CourseStudentListResponse{}, err
	}

	page = page.Normalize()
	students, total, err := s.enrollments.ListStudents(ctx, courseID, repository.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return dto.CourseStudentListResponse{}, err
	}

	return dto.CourseStudentListResponse{
		Items:      dto.NewStudentResponseSlice(students),
		Pagination: dto.NewPaginationMeta(page.Page, page.PageSize, total),
	}, nil
}

func (s *enrollmentService) Enroll(ctx context.Context, courseID uint, payload dto.EnrollStudentRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if err := s.ensureCourse(ctx, courseID); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrStudentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	created, err := s.enrollments.Enroll(ctx, courseID, payload.StudentID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if created {
		s.cache.InvalidateStudent(ctx, payload.StudentID)
	}

	return dto.EnrollmentResponse{CourseID: courseID, StudentID: payload.StudentID, Created: created}, nil
}

func (s *enrollmentService) ListImports(ctx context.Context, courseID uint) ([]dto.StudentImportResponse, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}

	imports, err := s.enrollments.ListImports(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentImportResponseSlice(imports), nil
}

func (s *enrollmentService) Remove(ctx context.Context, courseID, studentID uint) error {
	if err := s.enrollments.Remove(ctx, courseID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	s.cache.InvalidateStudent(ctx, studentID)
	s.logger.Info().Uint("course_id", courseID).Uint("student_id", studentID).Msg("student removed from course")
	return nil
}

func (s *enrollmentService) DeleteAllStudents(ctx context.Context) error {
	removed, err := s.students.DeleteAll(ctx)
	if err != nil {
		return err
	}

	if s.files != nil {
		for _, submission := range removed {
			if strings.TrimSpace(submission.FileName) == "" {
				continue
			}
			if err := s.files.Remove(ctx, models.AssignmentFolder(submission.AssignmentID), submission.FileName); err != nil {
				s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to remove submission file")
			}
		}
	}
	s.cache.InvalidateAll(ctx)

	s.logger.Info().Int("submissions", len(removed)).Msg("all students deleted")
	return nil
}

func (s *enrollmentService) ensureCourse(ctx context.Context, courseID uint) error {
	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCourseNotFound
	}
	return nil
}

func (s *enrollmentService) publish(ctx context.Context, event string, data interface{}) {
	if err := s.publisher.Publish(ctx, event, data); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("failed to publish event")
	}
}
