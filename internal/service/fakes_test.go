package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chatqpt/chatqpt/internal/model"
	"github.com/chatqpt/chatqpt/internal/repository"
)

// In-memory repositories for service-level tests. Each fake can be primed
// with failErr to simulate a store fault.

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*model.User // by id
	failErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) ByID(id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) ByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	tokens  map[string]*model.Token // by id
	nextID  int
	failErr error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*model.Token)}
}

func (r *fakeTokenRepo) Create(token *model.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	if token.ID == "" {
		r.nextID++
		token.ID = fmt.Sprintf("token-%d", r.nextID)
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	clone := *token
	r.tokens[token.ID] = &clone
	return nil
}

func (r *fakeTokenRepo) ByToken(token, purpose string) (*model.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, t := range r.tokens {
		if t.Token == token && t.Purpose == purpose {
			clone := *t
			return &clone, nil
		}
	}
	return nil, repository.ErrTokenNotFound
}

func (r *fakeTokenRepo) DeleteByEmailAndPurpose(email, purpose string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	for id, t := range r.tokens {
		if t.Email == email && t.Purpose == purpose {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *fakeTokenRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	delete(r.tokens, id)
	return nil
}

func (r *fakeTokenRepo) byEmail(email, purpose string) []*model.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Token
	for _, t := range r.tokens {
		if t.Email == email && t.Purpose == purpose {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	failErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *fakeSessionRepo) Create(session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	clone := *session
	clone.Fresh = false
	r.sessions[session.ID] = &clone
	return nil
}

func (r *fakeSessionRepo) ByID(id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeSessionRepo) UpdateExpiry(id string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.ExpiresAt = &expiresAt
	return nil
}

func (r *fakeSessionRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type sentEmail struct {
	kind  string // "verify" or "reset"
	to    string
	token string
}

type fakeEmailSender struct {
	mu      sync.Mutex
	sent    []sentEmail
	failErr error
}

func (s *fakeEmailSender) SendVerificationEmail(email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.sent = append(s.sent, sentEmail{kind: "verify", to: email, token: token})
	return nil
}

func (s *fakeEmailSender) SendPasswordResetEmail(email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.sent = append(s.sent, sentEmail{kind: "reset", to: email, token: token})
	return nil
}

func (s *fakeEmailSender) last() sentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentEmail{}
	}
	return s.sent[len(s.sent)-1]
}

var errStoreDown = errors.New("store down")
