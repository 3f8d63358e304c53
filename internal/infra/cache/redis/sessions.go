package redis

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	goredis "github.com/redis/go-redis/v9"

	domainauth "rentdesk/internal/domain/auth"
	domainuser "rentdesk/internal/domain/user"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SessionStore keeps bearer sessions in Redis so they survive restarts. Each session key
// expires with the session; a per-user set indexes tokens for DeleteByUser.
type SessionStore struct {
	Client *goredis.Client
	Clock  func() time.Time
}

type sessionDoc struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return domainauth.ErrTTLInvalid
	}
	payload, err := json.Marshal(sessionDoc{
		Token:     string(session.Token),
		UserID:    string(session.UserID),
		Role:      string(session.Role),
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return err
	}
	userKey := userSessionsKey(session.UserID)
	_, err = s.Client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, sessionKey(session.Token), payload, ttl)
		p.SAdd(ctx, userKey, string(session.Token))
		p.ExpireGT(ctx, userKey, ttl)
		p.ExpireNX(ctx, userKey, ttl)
		return nil
	})
	return err
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	raw, err := s.Client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc sessionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &domainauth.Session{
		Token:     domainauth.Token(doc.Token),
		UserID:    domainuser.ID(doc.UserID),
		Role:      domainuser.Role(doc.Role),
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	session, err := s.Get(ctx, token)
	if errors.Is(err, domainauth.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.Client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, sessionKey(token))
		p.SRem(ctx, userSessionsKey(session.UserID), string(token))
		return nil
	})
	return err
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	userKey := userSessionsKey(userID)
	tokens, err := s.Client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, sessionKey(domainauth.Token(t)))
	}
	keys = append(keys, userKey)
	return s.Client.Del(ctx, keys...).Err()
}

func (s *SessionStore) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func sessionKey(token domainauth.Token) string {
	return keyPrefix + "session:" + string(token)
}

func userSessionsKey(userID domainuser.ID) string {
	return keyPrefix + "user-sessions:" + string(userID)
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
