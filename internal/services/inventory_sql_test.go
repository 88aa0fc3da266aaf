package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rideshare/internal/domain"
)

// The seat counter must be guarded by one conditional UPDATE, never a
// read-then-write pair. These tests pin the statement shape against a mock
// connection so a refactor to a racy two-step cannot slip through.

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm over sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, mock
}

func TestReserveIsSingleConditionalUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	inv := NewInventory(db)

	mock.ExpectExec(`UPDATE "trips" SET "available_seats"=available_seats - .+ WHERE \(id = .+ AND available_seats >= `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := inv.Reserve(nil, 7, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statement sequence: %v", err)
	}
}

func TestReserveLosingTheGuardReadsNothingElseFirst(t *testing.T) {
	db, mock := newMockDB(t)
	inv := NewInventory(db)

	// Guard misses: RowsAffected 0, then one existence probe to pick the
	// error, and no compensating write of any kind.
	mock.ExpectExec(`UPDATE "trips" SET "available_seats"=available_seats - .+ WHERE \(id = .+ AND available_seats >= `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "trips" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := inv.Reserve(nil, 7, 5)
	if !errors.Is(err, domain.ErrInsufficientSeats) {
		t.Fatalf("expected ErrInsufficientSeats, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statement sequence: %v", err)
	}
}

func TestReleaseIsSingleConditionalUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	inv := NewInventory(db)

	// Capacity probe (no car attached), then the increment.
	mock.ExpectQuery(`SELECT cars.seats FROM "trips" JOIN cars ON cars.id = trips.car_id AND cars.deleted_at IS NULL WHERE trips.id = `).
		WillReturnRows(sqlmock.NewRows([]string{"seats"}))
	mock.ExpectExec(`UPDATE "trips" SET "available_seats"=available_seats \+ .+ WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := inv.Release(nil, 7, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statement sequence: %v", err)
	}
}
