package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "rentdesk/internal/domain/auth"
	domainuser "rentdesk/internal/domain/user"
)

type userRepo struct{ u *Unit }

func (r userRepo) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	if row, ok := r.u.data.users[id]; ok {
		return &row, nil
	}
	return nil, domainuser.ErrNotFound
}

func (r userRepo) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	key := domainuser.NormalizeEmail(email)
	for _, row := range r.u.data.users {
		if row.Email == key {
			found := row
			return &found, nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (r userRepo) ByUsername(ctx context.Context, username string) (*domainuser.User, error) {
	key := strings.TrimSpace(username)
	for _, row := range r.u.data.users {
		if strings.EqualFold(row.Username, key) {
			found := row
			return &found, nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (r userRepo) Save(ctx context.Context, user *domainuser.User) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if user == nil || strings.TrimSpace(string(user.ID)) == "" {
		return domainuser.ErrIDRequired
	}
	if user.Email == "" {
		return domainuser.ErrEmailRequired
	}
	for id, row := range r.u.data.users {
		if id == user.ID {
			continue
		}
		if row.Email == user.Email {
			return domainuser.ErrEmailAlreadyUsed
		}
		if strings.EqualFold(row.Username, user.Username) {
			return domainuser.ErrUsernameTaken
		}
	}
	r.u.data.users[user.ID] = *user
	return nil
}

func (r userRepo) CountByRole(ctx context.Context) (map[domainuser.Role]int, error) {
	out := make(map[domainuser.Role]int)
	for _, row := range r.u.data.users {
		out[row.Role]++
	}
	return out, nil
}

// SessionStore keeps bearer sessions in memory.
type SessionStore struct {
	mu        sync.RWMutex
	tokens    map[domainauth.Token]domainauth.Session
	userIndex map[domainuser.ID]map[domainauth.Token]struct{}
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		tokens:    make(map[domainauth.Token]domainauth.Session),
		userIndex: make(map[domainuser.ID]map[domainauth.Token]struct{}),
	}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[session.Token] = *session
	if _, ok := s.userIndex[session.UserID]; !ok {
		s.userIndex[session.UserID] = make(map[domainauth.Token]struct{})
	}
	s.userIndex[session.UserID][session.Token] = struct{}{}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	session, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.tokens[token]
	if !ok {
		return nil
	}
	delete(s.tokens, token)
	if index, ok := s.userIndex[session.UserID]; ok {
		delete(index, token)
		if len(index) == 0 {
			delete(s.userIndex, session.UserID)
		}
	}
	return nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token := range s.userIndex[userID] {
		delete(s.tokens, token)
	}
	delete(s.userIndex, userID)
	return nil
}

var _ domainuser.Repository = userRepo{}
var _ domainauth.SessionStore = (*SessionStore)(nil)
