package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresGet_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT value FROM kv_store").WithArgs(KeyCartID).WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), KeyCartID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSetAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs(KeyPrasadType, "pre-packaged", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT value FROM kv_store").WithArgs(KeyPrasadType).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("pre-packaged"))

	ctx := context.Background()
	if err := repo.Set(ctx, KeyPrasadType, "pre-packaged"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, err := repo.Get(ctx, KeyPrasadType)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if v != "pre-packaged" {
		t.Fatalf("unexpected value %q", v)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresMultiGetAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow(KeyUserID, "42").
		AddRow(KeyPrasadType, "self-serving")
	mock.ExpectQuery("SELECT key, value FROM kv_store").WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	mock.ExpectExec("DELETE FROM kv_store").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))

	ctx := context.Background()
	got, err := repo.MultiGet(ctx, KeyUserID, KeyPrasadType, KeyCartID)
	if err != nil {
		t.Fatalf("multiget failed: %v", err)
	}
	if len(got) != 2 || got[KeyUserID] != "42" {
		t.Fatalf("unexpected result %v", got)
	}
	if err := repo.Delete(ctx, KeyUserID, KeyPrasadType); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// empty key lists never reach the database
	if err := repo.Delete(ctx); err != nil {
		t.Fatal(err)
	}
	if m, err := repo.MultiGet(ctx); err != nil || len(m) != 0 {
		t.Fatalf("expected empty result, got %v %v", m, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
