package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/events"
	"github.com/noah-isme/classroom-api/pkg/storage"
	"github.com/noah-isme/classroom-api/pkg/token"
)

var fixedDue = time.Date(2030, time.January, 15, 23, 59, 59, 0, time.UTC)

type testApp struct {
	app       *fiber.App
	db        *gorm.DB
	uploadDir string
	tokens    *token.Manager
	hasher    service.PasswordHasher
	redis     *miniredis.Miniredis
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`

	raw []byte
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.Connect("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), database.Options{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	uploadDir := t.TempDir()
	files, err := storage.NewLocal(uploadDir, "", zerolog.Nop())
	require.NoError(t, err)

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := token.NewManager("handler-secret", time.Hour, "classroom-api")
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	cache := service.NewOverviewCache(client, time.Minute, logger)
	publisher := events.Noop{}

	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	courses := service.NewCourseService(courseRepo, files, cache, validate, logger)
	students := service.NewStudentService(studentRepo, hasher, tokens, files, cache, validate, logger)
	enrollments := service.NewEnrollmentService(service.EnrollmentDependencies{
		Courses:     courseRepo,
		Students:    studentRepo,
		Enrollments: enrollmentRepo,
		Hasher:      hasher,
		Publisher:   publisher,
		Files:       files,
		Cache:       cache,
		Validator:   validate,
		MaxRows:     50,
	}, logger)
	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		Assignments: assignmentRepo,
		Courses:     courseRepo,
		Students:    studentRepo,
		Enrollments: enrollmentRepo,
		Submissions: submissionRepo,
		Files:       files,
		Cache:       cache,
		Publisher:   publisher,
		Validator:   validate,
	}, logger)
	submissions := service.NewSubmissionService(service.SubmissionDependencies{
		Submissions: submissionRepo,
		Assignments: assignmentRepo,
		Students:    studentRepo,
		Storage:     files,
		Cache:       cache,
		Publisher:   publisher,
		Validator:   validate,
		MaxBytes:    1 << 20,
	}, logger)

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		"redis":    func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger, AccessLogOutput: io.Discard})
	router.Register(app, config.Config{AppName: "Classroom Test", AppEnv: "test", UploadDir: uploadDir}, router.Dependencies{
		CourseHandler:     handler.NewCourseHandler(courses, logger),
		StudentHandler:    handler.NewStudentHandler(students, assignments, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollments, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignments, submissions, logger),
		JWTMiddleware:     middleware.JWTProtected(tokens),
		HealthProbes:      probes,
	})

	return &testApp{app: app, db: db, uploadDir: uploadDir, tokens: tokens, hasher: hasher, redis: server}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	body.raw = raw
	return resp, body
}

func (a *testApp) doJSON(t *testing.T, method, path string, payload interface{}) (*http.Response, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return a.do(t, req)
}

func (a *testApp) doMultipart(t *testing.T, path string, fields map[string]string, fileName string, content []byte) (*http.Response, envelope) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return a.do(t, req)
}

func (a *testApp) seedCourse(t *testing.T, name string) models.Course {
	t.Helper()
	course := models.Course{Name: name, TeacherName: "Prof. Lindqvist"}
	require.NoError(t, a.db.Create(&course).Error)
	return course
}

func (a *testApp) seedStudent(t *testing.T, number, name string) models.Student {
	t.Helper()
	hashed, err := a.hasher.Hash(number)
	require.NoError(t, err)
	student := models.Student{StudentNumber: number, FullName: name, Password: hashed}
	require.NoError(t, a.db.Create(&student).Error)
	return student
}

func (a *testApp) seedAssignment(t *testing.T, courseID uint, title string, due time.Time) models.Assignment {
	t.Helper()
	assignment := models.Assignment{Title: title, CourseID: courseID, DueDate: due}
	require.NoError(t, a.db.Create(&assignment).Error)
	return assignment
}

func (a *testApp) enroll(t *testing.T, courseID, studentID uint) {
	t.Helper()
	require.NoError(t, a.db.Create(&models.CourseStudent{CourseID: courseID, StudentID: studentID}).Error)
}

func (a *testApp) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var total int64
	require.NoError(t, a.db.Model(model).Count(&total).Error)
	return total
}

func decodeMeta(t *testing.T, body envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Meta, target))
}

func decodeData(t *testing.T, body envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Data, target))
}

// validateContract checks a full response envelope against a schema in testdata.
func validateContract(t *testing.T, schemaFile string, body envelope) {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("testdata", schemaFile))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body.raw, &payload))
	require.NoError(t, schema.Validate(payload))
}

func pdfContent(text string) []byte {
	return []byte("%PDF-1.4\n" + text + "\n%%EOF")
}
