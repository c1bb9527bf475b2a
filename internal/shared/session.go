package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionKind separates administrator sessions from member sessions.
// The two namespaces are disjoint: a member session never yields an
// administrative principal and vice versa.
type SessionKind string

const (
	// KindAdmin identifies back-office sessions.
	KindAdmin SessionKind = "admin"
	// KindMember identifies public-site sessions.
	KindMember SessionKind = "member"
)

// SessionManager orchestrates cookie based sessions for one principal
// kind, backed by Redis.
type SessionManager struct {
	client     *redis.Client
	kind       SessionKind
	cookieName string
	ttl        time.Duration
	secure     bool
}

// Session holds per-request session data for one principal kind.
type Session struct {
	ID          string
	kind        SessionKind
	principalID int64
	values      map[string]string
	isNew       bool
	dirty       bool
	destroyed   bool
}

type sessionPayload struct {
	PrincipalID int64             `json:"principal_id"`
	Values      map[string]string `json:"values"`
}

// NewSessionManager constructs a SessionManager for the given kind.
func NewSessionManager(client *redis.Client, kind SessionKind, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		kind:       kind,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Load loads the session referenced by the request cookie, or creates
// a fresh one. A missing or expired token is never an error, only an
// absent principal.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = cookie.Value
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:          cookie.Value,
		kind:        sm.kind,
		principalID: stored.PrincipalID,
		values:      stored.Values,
	}
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}

	if !sess.dirty && !sess.isNew {
		return nil
	}
	// New sessions without a principal or values carry nothing worth
	// storing; skip the cookie entirely.
	if sess.isNew && sess.principalID == 0 && len(sess.values) == 0 {
		return nil
	}

	payload := sessionPayload{PrincipalID: sess.principalID, Values: sess.values}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl).Err(); err != nil {
		return err
	}
	sess.dirty = false
	sess.isNew = false

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// Destroy marks the session for deletion on the next Commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Kind returns the principal kind this manager serves.
func (sm *SessionManager) Kind() SessionKind {
	return sm.kind
}

// SetPrincipal associates the session with a principal ID.
func (s *Session) SetPrincipal(id int64) {
	s.principalID = id
	s.dirty = true
}

// Principal returns the authenticated principal ID, or zero.
func (s *Session) Principal() int64 {
	if s == nil || s.destroyed {
		return 0
	}
	return s.principalID
}

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:    generateSessionID(),
		kind:  sm.kind,
		isNew: true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + string(sm.kind) + ":" + id
}

func generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
