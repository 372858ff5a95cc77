package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/chatqpt/chatqpt/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(session *model.Session) error
	ByID(id string) (*model.Session, error)
	UpdateExpiry(id string, expiresAt time.Time) error
	Delete(id string) error
	DeleteByUser(userID string) error
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(query,
		session.ID,
		session.UserID,
		session.CreatedAt,
		session.ExpiresAt,
	)
	return err
}

func (r *sessionRepository) ByID(id string) (*model.Session, error) {
	var s model.Session
	query := `SELECT * FROM sessions WHERE id = $1`

	err := r.db.Get(&s, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *sessionRepository) UpdateExpiry(id string, expiresAt time.Time) error {
	query := `UPDATE sessions SET expires_at = $1 WHERE id = $2`
	_, err := r.db.Exec(query, expiresAt, id)
	return err
}

func (r *sessionRepository) Delete(id string) error {
	query := `DELETE FROM sessions WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *sessionRepository) DeleteByUser(userID string) error {
	query := `DELETE FROM sessions WHERE user_id = $1`
	_, err := r.db.Exec(query, userID)
	return err
}
