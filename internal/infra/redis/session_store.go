// File: internal/infra/redis/session_store.go
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore snapshots checkout sessions so an in-progress purchase can be
// resumed after a reload or a process restart. Snapshots expire with the TTL;
// an expired snapshot simply means the buyer starts over.
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) key(id string) string {
	return fmt.Sprintf("checkout_session:%s", id)
}

func (s *SessionStore) Put(ctx context.Context, sess *model.CheckoutSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sess.ID), data, s.ttl)
}

func (s *SessionStore) Get(ctx context.Context, id string) (*model.CheckoutSession, error) {
	data, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var sess model.CheckoutSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id))
}
