package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/pkg/events"
	"github.com/noah-isme/classroom-api/pkg/storage"
)

// AssignmentFiles lists and removes the upload folder of an assignment.
type AssignmentFiles interface {
	List(ctx context.Context, folder string) ([]storage.File, error)
	RemoveFolder(ctx context.Context, folder string) error
}

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	List(ctx context.Context, req dto.AssignmentListRequest) (dto.AssignmentListResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint) error
	StudentOverview(ctx context.Context, studentID uint) ([]dto.StudentAssignmentResponse, error)
	Unsubmitted(ctx context.Context, assignmentID uint) ([]dto.StudentResponse, error)
	Files(ctx context.Context, assignmentID uint) (dto.AssignmentFilesResponse, error)
}

// AssignmentDependencies groups the collaborators of the assignment service.
type AssignmentDependencies struct {
	Assignments repository.AssignmentRepository
	Courses     repository.CourseRepository
	Students    repository.StudentRepository
	Enrollments repository.EnrollmentRepository
	Submissions repository.SubmissionRepository
	Files       AssignmentFiles
	Cache       *OverviewCache
	Publisher   events.Publisher
	Validator   *validator.Validate
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	submissions repository.SubmissionRepository
	files       AssignmentFiles
	cache       *OverviewCache
	publisher   events.Publisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(deps AssignmentDependencies, logger zerolog.Logger) AssignmentService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &assignmentService{
		assignments: deps.Assignments,
		courses:     deps.Courses,
		students:    deps.Students,
		enrollments: deps.Enrollments,
		submissions: deps.Submissions,
		files:       deps.Files,
		cache:       deps.Cache,
		publisher:   publisher,
		validator:   deps.Validator,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, req dto.AssignmentListRequest) (dto.AssignmentListResponse, error) {
	page := req.PageRequest.Normalize()
	assignments, total, err := s.assignments.List(ctx, repository.AssignmentFilter{
		Title:    req.Title,
		CourseID: req.CourseID,
		Page:     repository.Page{Page: page.Page, PageSize: page.PageSize},
	})
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	return dto.AssignmentListResponse{
		Items:      dto.NewAssignmentResponseSlice(assignments),
		Pagination: dto.NewPaginationMeta(page.Page, page.PageSize, total),
	}, nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	payload.Title = strings.TrimSpace(payload.Title)
	payload.DueDate = strings.TrimSpace(payload.DueDate)
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := ParseDueDate(payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.ensureCourse(ctx, payload.CourseID); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:       payload.Title,
		Description: s.sanitizer.Sanitize(strings.TrimSpace(payload.Description)),
		DueDate:     dueDate,
		CourseID:    payload.CourseID,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}
	s.cache.InvalidateAll(ctx)

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", assignment.CourseID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	payload.Title = strings.TrimSpace(payload.Title)
	payload.DueDate = strings.TrimSpace(payload.DueDate)
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != "" {
		assignment.Title = payload.Title
	}

	if description := strings.TrimSpace(payload.Description); description != "" {
		assignment.Description = s.sanitizer.Sanitize(description)
	}

	if payload.DueDate != "" {
		dueDate, err := ParseDueDate(payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.DueDate = dueDate
	}

	if payload.CourseID != 0 && payload.CourseID != assignment.CourseID {
		if err := s.ensureCourse(ctx, payload.CourseID); err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.CourseID = payload.CourseID
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}
	s.cache.InvalidateAll(ctx)

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	folder := models.AssignmentFolder(id)
	err := s.assignments.Delete(ctx, id, func(ctx context.Context) error {
		if s.files == nil {
			return nil
		}
		return s.files.RemoveFolder(ctx, folder)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.cache.InvalidateAll(ctx)
	if err := s.publisher.Publish(ctx, events.AssignmentDeleted, map[string]uint{"assignment_id": id}); err != nil {
		s.logger.Warn().Err(err).Str("event", events.AssignmentDeleted).Msg("failed to publish event")
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) StudentOverview(ctx context.Context, studentID uint) ([]dto.StudentAssignmentResponse, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, studentID); ok {
		return cached, nil
	}

	courseIDs, err := s.enrollments.CourseIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	byAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = submission
	}

	items := make([]dto.StudentAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		if submission, ok := byAssignment[assignment.ID]; ok {
			items = append(items, dto.NewStudentAssignmentResponse(assignment, &submission))
			continue
		}
		items = append(items, dto.NewStudentAssignmentResponse(assignment, nil))
	}

	s.cache.Set(ctx, studentID, items)
	return items, nil
}

func (s *assignmentService) Unsubmitted(ctx context.Context, assignmentID uint) ([]dto.StudentResponse, error) {
	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	students, err := s.enrollments.UnsubmittedStudents(ctx, assignment.CourseID, assignment.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

func (s *assignmentService) Files(ctx context.Context, assignmentID uint) (dto.AssignmentFilesResponse, error) {
	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentFilesResponse{}, err
	}

	files, err := s.files.List(ctx, assignment.UploadFolder())
	if err != nil {
		if errors.Is(err, storage.ErrFolderNotFound) {
			return dto.AssignmentFilesResponse{}, ErrUploadFolderNotFound
		}
		return dto.AssignmentFilesResponse{}, err
	}

	return dto.AssignmentFilesResponse{AssignmentID: assignment.ID, Files: files}, nil
}

func (s *assignmentService) load(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (s *assignmentService) ensureCourse(ctx context.Context, courseID uint) error {
	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCourseNotFound
	}
	return nil
}

// ParseDueDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates. A plain
// date means the end of that day in UTC.
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(dto.DateLayout, value); err == nil {
		return parsed.Add(24*time.Hour - time.Second), nil
	}
	return time.Time{}, ErrInvalidDueDate
}
