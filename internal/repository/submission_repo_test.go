package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

func TestSubmissionRepositoryUpsertReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	course := seedCourse(t, db, "Statistics")
	student := seedStudent(t, db, "11", "Florence")
	assignment := seedAssignment(t, db, course.ID, "Regression")

	grade := 88.0
	first := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		FilePath:     "/uploads/1/a.pdf",
		Status:       models.SubmissionStatusGraded,
		Feedback:     "good",
		Grade:        &grade,
		SubmittedAt:  time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, &first))

	second := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		FilePath:     "/uploads/1/b.pdf",
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, &second))
	require.Equal(t, first.ID, second.ID)

	stored, err := repo.GetByAssignmentAndStudent(ctx, assignment.ID, student.ID)
	require.NoError(t, err)
	require.Equal(t, "/uploads/1/b.pdf", stored.FilePath)
	require.Empty(t, stored.Feedback)
	require.Nil(t, stored.Grade)
	require.Equal(t, int64(1), countRows(t, db, &models.Submission{}))
}

func TestSubmissionRepositoryQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	course := seedCourse(t, db, "Biology")
	alice := seedStudent(t, db, "21", "Alice")
	bob := seedStudent(t, db, "22", "Bob")
	cells := seedAssignment(t, db, course.ID, "Cells")
	genes := seedAssignment(t, db, course.ID, "Genes")
	seedSubmission(t, db, cells.ID, alice.ID)
	seedSubmission(t, db, cells.ID, bob.ID)
	seedSubmission(t, db, genes.ID, alice.ID)

	all, err := repo.ListByAssignment(ctx, cells.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	page, total, err := repo.PageByAssignment(ctx, cells.ID, Page{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	require.Equal(t, "Bob", page[0].Student.FullName)

	mine, err := repo.ListByStudent(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	_, err = repo.GetByAssignmentAndStudent(ctx, genes.ID, bob.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
