package annotations

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var annotationColumns = []string{
	"id", "document_id", "member_id", "category", "start_offset", "end_offset",
	"text", "perspective_id", "created_at", "updated_at",
}

func TestPGRepoListAnnotationsAppliesFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	dataset, member := int64(3), int64(10)
	rows := sqlmock.NewRows(annotationColumns).
		AddRow(1, 3, 10, "A", 0, 5, "x", 2, created, nil).
		AddRow(2, 3, 10, "B", 6, 9, nil, nil, created, created.Add(time.Hour))

	mock.ExpectQuery(`FROM annotations\s+WHERE project_id = \$1 AND document_id = \$2 AND member_id = \$3\s+ORDER BY id ASC`).
		WithArgs(int64(7), dataset, member).
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	page, err := repo.ListAnnotations(context.Background(), 7, Filters{Dataset: &dataset, Member: &member})
	if err != nil {
		t.Fatalf("ListAnnotations: %v", err)
	}
	if page.Count != 2 || len(page.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", page.Count)
	}
	first := page.Results[0]
	if first.Category != "A" || first.Text != "x" || first.Perspective != 2 || !first.UpdatedAt.Equal(created) {
		t.Fatalf("unexpected first row: %+v", first)
	}
	second := page.Results[1]
	if second.Text != "" || second.Perspective != 0 || !second.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Fatalf("unexpected second row: %+v", second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListAnnotationsDiscussionFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	discussion, perspective := int64(4), int64(9)
	mock.ExpectQuery(`WHERE project_id = \$1 AND discussion_id = \$2 AND perspective_id = \$3`).
		WithArgs(int64(7), discussion, perspective).
		WillReturnRows(sqlmock.NewRows(annotationColumns))

	repo := &PGRepo{DB: db}
	page, err := repo.ListAnnotations(context.Background(), 7, Filters{Discussion: &discussion, Perspective: &perspective})
	if err != nil {
		t.Fatalf("ListAnnotations: %v", err)
	}
	if page.Results == nil || page.Count != 0 {
		t.Fatalf("expected empty non-nil results, got %+v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListAnnotationsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM annotations").WillReturnError(sql.ErrConnDone)

	repo := &PGRepo{DB: db}
	if _, err := repo.ListAnnotations(context.Background(), 7, Filters{}); !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected ErrConnDone, got %v", err)
	}
}

func TestPGRepoRejectsInvalidProject(t *testing.T) {
	repo := &PGRepo{}
	if _, err := repo.ListAnnotations(context.Background(), 0, Filters{}); !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("expected ErrInvalidProject, got %v", err)
	}
}
