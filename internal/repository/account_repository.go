// internal/repository/account_repository.go
package repository

import (
	"context"
	"database/sql"

	"github.com/lilyxseo/HematWoi-sub009/internal/models"
)

// AccountRepository resolves account display names for payment
// denormalization. Account CRUD itself belongs to another subsystem.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, userID, id string) (*models.Account, error) {
	query := `
		SELECT id, user_id, name, type, created_at
		FROM accounts WHERE id = $1 AND user_id = $2
	`

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&account.Type,
		&account.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return account, err
}
