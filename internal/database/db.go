package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/ezparkk/site-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the self-hosted Postgres document store and migrates the
// two submission tables.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := db.AutoMigrate(&models.WaitlistEntry{}, &models.JobApplication{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// GormRepository stores submissions in Postgres. Errors are reported with the
// same gRPC status codes Firestore uses so callers classify both stores alike.
type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) WaitlistEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, translatePgError(err)
	}
	return count > 0, nil
}

func (r *GormRepository) CreateWaitlistEntry(ctx context.Context, entry *models.WaitlistEntry) (string, error) {
	entry.ID = uuid.NewString()
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return "", translatePgError(err)
	}
	return entry.ID, nil
}

func (r *GormRepository) CreateJobApplication(ctx context.Context, app *models.JobApplication) (string, error) {
	app.ID = uuid.NewString()
	if err := r.DB.WithContext(ctx).Create(app).Error; err != nil {
		return "", translatePgError(err)
	}
	return app.ID, nil
}

func translatePgError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return status.Error(codes.Unavailable, connErr.Error())
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	code := codes.Unknown
	switch pgErr.Code {
	case "42P01", "3D000": // undefined_table, invalid_catalog_name
		code = codes.NotFound
	case "42501", "28000", "28P01": // insufficient_privilege, invalid auth
		code = codes.PermissionDenied
	case "23502", "22001", "23514", "22P02":
		code = codes.InvalidArgument
	case "23505":
		code = codes.AlreadyExists
	case "57P01", "57P03", "53300", "08006", "08001":
		code = codes.Unavailable
	case "55000", "25006": // object_not_in_prerequisite_state, read_only_sql_transaction
		code = codes.FailedPrecondition
	}
	return status.Error(code, pgErr.Message)
}
