package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"courier/internal/models"
)

// UserStore is the credential-store collaborator.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
}

// Users is the GORM-backed UserStore.
type Users struct {
	orm *gorm.DB
}

func NewUsers(orm *gorm.DB) *Users {
	return &Users{orm: orm}
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := s.orm.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Users) FindByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := s.orm.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs batch-fetches users. An empty id list yields an empty result
// without touching the database.
func (s *Users) FindByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var users []models.User
	if err := s.orm.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a new user. A collision on the unique email index is
// reported as ErrConflict so callers can distinguish a concurrent
// registration from a real failure.
func (s *Users) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := s.orm.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Postgres error code for a unique-index violation.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (s *Users) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.orm.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Update("password_hash", passwordHash).Error
}
