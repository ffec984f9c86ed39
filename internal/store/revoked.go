package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"courier/internal/models"
)

// RevokedTokenStore is the ledger persistence collaborator. It deals in
// SHA-256 hex digests; hashing of raw tokens happens in the token package.
type RevokedTokenStore interface {
	FindByHash(ctx context.Context, hash string) (bool, error)
	Insert(ctx context.Context, hash string) error
}

// RevokedTokens is the GORM-backed RevokedTokenStore.
type RevokedTokens struct {
	orm *gorm.DB
}

func NewRevokedTokens(orm *gorm.DB) *RevokedTokens {
	return &RevokedTokens{orm: orm}
}

func (s *RevokedTokens) FindByHash(ctx context.Context, hash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int64
	err := s.orm.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("token_hash = ?", hash).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert records a digest. Re-revoking the same token is a no-op thanks to
// the unique index on token_hash.
func (s *RevokedTokens) Insert(ctx context.Context, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.orm.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{TokenHash: hash}).Error
}
