package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// FolderRemover deletes an upload folder with its content.
type FolderRemover interface {
	RemoveFolder(ctx context.Context, folder string) error
}

// CourseService exposes course use cases.
type CourseService interface {
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint) (dto.CourseDeleteResponse, error)
	DeleteAll(ctx context.Context) (dto.CourseDeleteResponse, error)
}

type courseService struct {
	repo      repository.CourseRepository
	files     FolderRemover
	cache     *OverviewCache
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCourseService builds a course service.
func NewCourseService(repo repository.CourseRepository, files FolderRemover, cache *OverviewCache, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		files:     files,
		cache:     cache,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.TeacherName = strings.TrimSpace(payload.TeacherName)
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{Name: payload.Name, TeacherName: payload.TeacherName}
	if err := s.repo.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.TeacherName = strings.TrimSpace(payload.TeacherName)
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if payload.Name != "" {
		course.Name = payload.Name
	}
	if payload.TeacherName != "" {
		course.TeacherName = payload.TeacherName
	}

	if err := s.repo.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course updated")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id uint) (dto.CourseDeleteResponse, error) {
	assignmentIDs, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseDeleteResponse{}, ErrCourseNotFound
		}
		return dto.CourseDeleteResponse{}, err
	}

	s.removeFolders(ctx, assignmentIDs)
	s.cache.InvalidateAll(ctx)

	s.logger.Info().Uint("course_id", id).Int("assignments", len(assignmentIDs)).Msg("course deleted")
	return dto.CourseDeleteResponse{CourseIDs: []uint{id}, RemovedAssignments: len(assignmentIDs)}, nil
}

func (s *courseService) DeleteAll(ctx context.Context) (dto.CourseDeleteResponse, error) {
	assignmentIDs, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return dto.CourseDeleteResponse{}, err
	}

	s.removeFolders(ctx, assignmentIDs)
	s.cache.InvalidateAll(ctx)

	s.logger.Info().Int("assignments", len(assignmentIDs)).Msg("all courses deleted")
	return dto.CourseDeleteResponse{RemovedAssignments: len(assignmentIDs)}, nil
}

// removeFolders runs after the rows are committed, so failures only leave orphaned files.
func (s *courseService) removeFolders(ctx context.Context, assignmentIDs []uint) {
	if s.files == nil {
		return
	}
	for _, id := range assignmentIDs {
		if err := s.files.RemoveFolder(ctx, models.AssignmentFolder(id)); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", id).Msg("failed to remove upload folder")
		}
	}
}
