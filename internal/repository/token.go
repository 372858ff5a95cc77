package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/chatqpt/chatqpt/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrTokenNotFound = errors.New("token not found")

type TokenRepository interface {
	Create(token *model.Token) error
	ByToken(token, purpose string) (*model.Token, error)
	DeleteByEmailAndPurpose(email, purpose string) error
	Delete(id string) error
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO tokens (id, purpose, email, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(query,
		token.ID,
		token.Purpose,
		token.Email,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

func (r *tokenRepository) ByToken(token, purpose string) (*model.Token, error) {
	var t model.Token
	query := `SELECT * FROM tokens WHERE token = $1 AND purpose = $2`

	err := r.db.Get(&t, query, token, purpose)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// DeleteByEmailAndPurpose clears any live token for the address so issuing a
// new one leaves exactly one per namespace.
func (r *tokenRepository) DeleteByEmailAndPurpose(email, purpose string) error {
	query := `DELETE FROM tokens WHERE email = $1 AND purpose = $2`
	_, err := r.db.Exec(query, email, purpose)
	return err
}

func (r *tokenRepository) Delete(id string) error {
	query := `DELETE FROM tokens WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}
