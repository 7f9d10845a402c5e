package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/pkg/token"
)

// FileRemover deletes a single stored file.
type FileRemover interface {
	Remove(ctx context.Context, folder, name string) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(subject uint, role string) (string, time.Time, error)
}

// StudentService exposes student account use cases.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	ResetPassword(ctx context.Context, id uint) (dto.StudentResponse, error)
	Rename(ctx context.Context, id uint, payload dto.StudentRenameRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint) error
	Login(ctx context.Context, payload dto.StudentLoginRequest) (dto.StudentLoginResponse, error)
}

type studentService struct {
	repo      repository.StudentRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	files     FileRemover
	cache     *OverviewCache
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentService builds a student service.
func NewStudentService(repo repository.StudentRepository, hasher PasswordHasher, tokens TokenIssuer, files FileRemover, cache *OverviewCache, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		files:     files,
		cache:     cache,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	page := req.PageRequest.Normalize()
	students, total, err := s.repo.List(ctx, repository.StudentFilter{
		StudentNumber: req.StudentNumber,
		Page:          repository.Page{Page: page.Page, PageSize: page.PageSize},
	})
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	return dto.StudentListResponse{
		Items:      dto.NewStudentResponseSlice(students),
		Pagination: dto.NewPaginationMeta(page.Page, page.PageSize, total),
	}, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	payload.StudentNumber = strings.TrimSpace(payload.StudentNumber)
	payload.FullName = strings.TrimSpace(payload.FullName)
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	if _, err := s.repo.GetByNumber(ctx, payload.StudentNumber); err == nil {
		return dto.StudentResponse{}, ErrDuplicateStudentNumber
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentResponse{}, err
	}

	password := payload.Password
	if password == "" {
		password = payload.StudentNumber
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		StudentNumber: payload.StudentNumber,
		FullName:      payload.FullName,
		Password:      hashed,
	}
	if err := s.repo.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("student created")
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) ResetPassword(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	hashed, err := s.hasher.Hash(student.StudentNumber)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	student.Password = hashed

	if err := s.repo.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("student password reset")
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Rename(ctx context.Context, id uint, payload dto.StudentRenameRequest) (dto.StudentResponse, error) {
	payload.FullName = strings.TrimSpace(payload.FullName)
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.load(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	if payload.FullName != "" {
		student.FullName = payload.FullName
		if err := s.repo.Update(ctx, &student); err != nil {
			return dto.StudentResponse{}, err
		}
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id uint) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.removeFiles(ctx, removed)
	s.cache.InvalidateStudent(ctx, id)

	s.logger.Info().Uint("student_id", id).Int("submissions", len(removed)).Msg("student deleted")
	return nil
}

func (s *studentService) Login(ctx context.Context, payload dto.StudentLoginRequest) (dto.StudentLoginResponse, error) {
	payload.StudentNumber = strings.TrimSpace(payload.StudentNumber)
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentLoginResponse{}, err
	}

	student, err := s.repo.GetByNumber(ctx, payload.StudentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentLoginResponse{}, ErrInvalidCredentials
		}
		return dto.StudentLoginResponse{}, err
	}

	if err := s.hasher.Compare(student.Password, payload.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Warn().Uint("student_id", student.ID).Msg("login rejected")
		}
		return dto.StudentLoginResponse{}, ErrInvalidCredentials
	}

	signed, expiresAt, err := s.tokens.Issue(student.ID, token.RoleStudent)
	if err != nil {
		return dto.StudentLoginResponse{}, err
	}

	return dto.StudentLoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		Student:   dto.NewStudentResponse(student),
	}, nil
}

func (s *studentService) load(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func (s *studentService) removeFiles(ctx context.Context, submissions []models.Submission) {
	if s.files == nil {
		return
	}
	for _, submission := range submissions {
		if submission.FileName == "" {
			continue
		}
		if err := s.files.Remove(ctx, models.AssignmentFolder(submission.AssignmentID), submission.FileName); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to remove submission file")
		}
	}
}
