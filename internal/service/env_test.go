package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/pkg/storage"
	"github.com/noah-isme/classroom-api/pkg/token"
)

type publishedEvent struct {
	Name string
	Data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Name: event, Data: data})
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.Name)
	}
	return names
}

type testEnv struct {
	db          *gorm.DB
	courses     repository.CourseRepository
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	store       *storage.Local
	redis       *miniredis.Miniredis
	cache       *OverviewCache
	publisher   *recordingPublisher
	hasher      PasswordHasher
	tokens      *token.Manager
	validator   *validator.Validate
	logger      zerolog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Connect("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), database.Options{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	store, err := storage.NewLocal(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &testEnv{
		db:          db,
		courses:     repository.NewCourseRepository(db),
		students:    repository.NewStudentRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
		assignments: repository.NewAssignmentRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		store:       store,
		redis:       server,
		cache:       NewOverviewCache(client, time.Minute, zerolog.Nop()),
		publisher:   &recordingPublisher{},
		hasher:      NewBcryptHasher(bcrypt.MinCost),
		tokens:      token.NewManager("test-secret", time.Hour, "classroom-api"),
		validator:   validator.New(),
		logger:      zerolog.Nop(),
	}
}

func (e *testEnv) courseService() CourseService {
	return NewCourseService(e.courses, e.store, e.cache, e.validator, e.logger)
}

func (e *testEnv) studentService() StudentService {
	return NewStudentService(e.students, e.hasher, e.tokens, e.store, e.cache, e.validator, e.logger)
}

func (e *testEnv) enrollmentService(maxRows int) EnrollmentService {
	return NewEnrollmentService(EnrollmentDependencies{
		Courses:     e.courses,
		Students:    e.students,
		Enrollments: e.enrollments,
		Hasher:      e.hasher,
		Publisher:   e.publisher,
		Files:       e.store,
		Cache:       e.cache,
		Validator:   e.validator,
		MaxRows:     maxRows,
	}, e.logger)
}

func (e *testEnv) assignmentService() AssignmentService {
	return NewAssignmentService(AssignmentDependencies{
		Assignments: e.assignments,
		Courses:     e.courses,
		Students:    e.students,
		Enrollments: e.enrollments,
		Submissions: e.submissions,
		Files:       e.store,
		Cache:       e.cache,
		Publisher:   e.publisher,
		Validator:   e.validator,
	}, e.logger)
}

func (e *testEnv) submissionService(maxBytes int64) *submissionService {
	return NewSubmissionService(SubmissionDependencies{
		Submissions: e.submissions,
		Assignments: e.assignments,
		Students:    e.students,
		Storage:     e.store,
		Cache:       e.cache,
		Publisher:   e.publisher,
		Validator:   e.validator,
		MaxBytes:    maxBytes,
	}, e.logger).(*submissionService)
}

func (e *testEnv) seedCourse(t *testing.T, name string) models.Course {
	t.Helper()
	course := models.Course{Name: name, TeacherName: "Prof. Okafor"}
	require.NoError(t, e.db.Create(&course).Error)
	return course
}

func (e *testEnv) seedStudent(t *testing.T, number, name string) models.Student {
	t.Helper()
	hashed, err := e.hasher.Hash(number)
	require.NoError(t, err)
	student := models.Student{StudentNumber: number, FullName: name, Password: hashed}
	require.NoError(t, e.db.Create(&student).Error)
	return student
}

func (e *testEnv) seedAssignment(t *testing.T, courseID uint, title string, due time.Time) models.Assignment {
	t.Helper()
	assignment := models.Assignment{Title: title, CourseID: courseID, DueDate: due}
	require.NoError(t, e.db.Create(&assignment).Error)
	return assignment
}

func (e *testEnv) enroll(t *testing.T, courseID, studentID uint) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.CourseStudent{CourseID: courseID, StudentID: studentID}).Error)
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var total int64
	require.NoError(t, e.db.Model(model).Count(&total).Error)
	return total
}

func newTestFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(len(content))+1024))
	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func pdfContent(text string) []byte {
	return []byte("%PDF-1.4\n" + text + "\n%%EOF")
}
