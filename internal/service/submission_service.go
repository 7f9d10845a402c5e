package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/pkg/events"
	"github.com/noah-isme/classroom-api/pkg/storage"
)

var allowedSubmissionTypes = []string{
	"application/pdf",
	"application/zip",
	"application/x-rar-compressed",
	"application/x-7z-compressed",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
	"image/png",
	"image/jpeg",
}

// SubmissionStorage persists submission files.
type SubmissionStorage interface {
	Save(ctx context.Context, folder, name string, reader io.Reader) (storage.File, error)
	Remove(ctx context.Context, folder, name string) error
}

// SubmissionService handles student uploads and grading.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID, studentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error)
	PageByAssignment(ctx context.Context, assignmentID uint, page dto.PageRequest) (dto.SubmissionListResponse, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error)
	Feedback(ctx context.Context, assignmentID uint, payload dto.FeedbackRequest) (dto.SubmissionResponse, error)
}

// SubmissionDependencies groups the collaborators of the submission service.
type SubmissionDependencies struct {
	Submissions repository.SubmissionRepository
	Assignments repository.AssignmentRepository
	Students    repository.StudentRepository
	Storage     SubmissionStorage
	Cache       *OverviewCache
	Publisher   events.Publisher
	Validator   *validator.Validate
	MaxBytes    int64
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	storage     SubmissionStorage
	cache       *OverviewCache
	publisher   events.Publisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	maxSize     int64
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a submission service. MaxBytes defaults to 20 MiB.
func NewSubmissionService(deps SubmissionDependencies, logger zerolog.Logger) SubmissionService {
	maxSize := deps.MaxBytes
	if maxSize <= 0 {
		maxSize = 20 * 1024 * 1024
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &submissionService{
		submissions: deps.Submissions,
		assignments: deps.Assignments,
		students:    deps.Students,
		storage:     deps.Storage,
		cache:       deps.Cache,
		publisher:   publisher,
		validator:   deps.Validator,
		sanitizer:   bluemonday.StrictPolicy(),
		maxSize:     maxSize,
		tracer:      otel.Tracer("github.com/noah-isme/classroom-api/internal/service/submission"),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID, studentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.upload")
	defer span.End()

	span.SetAttributes(
		attribute.Int("submission.assignment_id", int(assignmentID)),
		attribute.Int("submission.student_id", int(studentID)),
		attribute.Int64("upload.max_bytes", s.maxSize),
	)

	start := s.now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.SetStatus(codes.Error, "file missing")
		return dto.SubmissionResponse{}, ErrFileRequired
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.SubmissionResponse{}, ErrUploadTooLarge
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrAssignmentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment lookup failed")
		return dto.SubmissionResponse{}, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrStudentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "student lookup failed")
		return dto.SubmissionResponse{}, err
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.SubmissionResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.SubmissionResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.SubmissionResponse{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if !isAllowedSubmissionType(detected) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.SubmissionResponse{}, ErrUploadTypeNotAllowed
	}

	var previousName string
	if previous, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, student.ID); err == nil {
		previousName = previous.FileName
	}

	folder := assignment.UploadFolder()
	name := submissionFileName(student, file.Filename, detected.Extension())
	stored, err := s.storage.Save(ctx, folder, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.SubmissionResponse{}, err
	}

	submittedAt := s.now()
	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		FilePath:     stored.URL,
		FileName:     stored.Name,
		Status:       models.SubmissionStatusFor(assignment, submittedAt),
		SubmittedAt:  submittedAt,
	}
	if err := s.submissions.Upsert(ctx, &submission); err != nil {
		if stored.Name != previousName {
			if removeErr := s.storage.Remove(ctx, folder, stored.Name); removeErr != nil {
				s.logger.Warn().Err(removeErr).Str("file", stored.Name).Msg("failed to remove orphaned upload")
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.SubmissionResponse{}, err
	}

	if previousName != "" && previousName != stored.Name {
		if err := s.storage.Remove(ctx, folder, previousName); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to remove replaced file")
		}
	}

	observability.SubmissionUploads().WithLabelValues(submission.Status).Inc()
	s.cache.InvalidateStudent(ctx, student.ID)
	s.publish(ctx, events.SubmissionSubmitted, dto.NewSubmissionResponse(submission))
	span.SetAttributes(attribute.String("submission.status", submission.Status))
	span.SetStatus(codes.Ok, "stored")

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Uint("student_id", student.ID).
		Str("status", submission.Status).
		Msg("submission stored")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error) {
	if err := s.ensureAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) PageByAssignment(ctx context.Context, assignmentID uint, page dto.PageRequest) (dto.SubmissionListResponse, error) {
	if err := s.ensureAssignment(ctx, assignmentID); err != nil {
		return dto.SubmissionListResponse{}, err
	}

	page = page.Normalize()
	submissions, total, err := s.submissions.PageByAssignment(ctx, assignmentID, repository.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	items := make([]dto.SubmissionWithStudentResponse, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, dto.NewSubmissionWithStudentResponse(submission))
	}

	return dto.SubmissionListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page.Page, page.PageSize, total),
	}, nil
}

func (s *submissionService) ListByStudent(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Feedback(ctx context.Context, assignmentID uint, payload dto.FeedbackRequest) (dto.SubmissionResponse, error) {
	payload.Normalize()
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	gradedAt := s.now()
	submission.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	submission.Grade = payload.Grade
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	response := dto.NewSubmissionResponse(submission)
	s.cache.InvalidateStudent(ctx, submission.StudentID)
	s.publish(ctx, events.SubmissionGraded, response)

	s.logger.Info().Uint("submission_id", submission.ID).Msg("submission graded")
	return response, nil
}

func (s *submissionService) ensureAssignment(ctx context.Context, assignmentID uint) error {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	return nil
}

func (s *submissionService) publish(ctx context.Context, event string, data interface{}) {
	if err := s.publisher.Publish(ctx, event, data); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("failed to publish event")
	}
}

func isAllowedSubmissionType(detected *mimetype.MIME) bool {
	for _, allowed := range allowedSubmissionTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

// submissionFileName builds <student_number>_<full name><ext>, keeping the
// uploaded extension and falling back to the detected one.
func submissionFileName(student models.Student, original, detectedExt string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" || len(ext) > 10 {
		ext = detectedExt
	}
	ext = "." + storage.SanitizeName(strings.TrimPrefix(ext, "."))
	if ext == "." {
		ext = ".bin"
	}
	return storage.SanitizeName(student.StudentNumber) + "_" + storage.SanitizeName(student.FullName) + ext
}
