package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/reelhouse/reelhouse/internal/shared"
	_ "github.com/reelhouse/reelhouse/testing"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func cookieFrom(t *testing.T, res *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no cookie named %q in response", name)
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	sm := shared.NewSessionManager(client, shared.KindAdmin, "reelhouse_admin", time.Hour, false)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.SetPrincipal(7)
	sess.Set("greeting", "hello")

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookie := cookieFrom(t, res, "reelhouse_admin")

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	got, err := sm.Load(ctx, req2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Principal() != 7 {
		t.Fatalf("expected principal 7 got %d", got.Principal())
	}
	if got.Get("greeting") != "hello" {
		t.Fatalf("expected stored value to survive the round trip")
	}
}

func TestSessionEmptyNewSessionWritesNothing(t *testing.T) {
	client := newTestRedis(t)
	sm := shared.NewSessionManager(client, shared.KindAdmin, "reelhouse_admin", time.Hour, false)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(res.Result().Cookies()) != 0 {
		t.Fatalf("expected no cookie for an untouched session")
	}
	keys, err := client.Keys(ctx, "session:*").Result()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no stored keys, got %v", keys)
	}
}

func TestSessionDestroyClearsStateAndCookie(t *testing.T) {
	client := newTestRedis(t)
	sm := shared.NewSessionManager(client, shared.KindAdmin, "reelhouse_admin", time.Hour, false)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, req)
	sess.SetPrincipal(3)
	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookie := cookieFrom(t, res, "reelhouse_admin")

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	sess2, _ := sm.Load(ctx, req2)
	sm.Destroy(sess2)
	if sess2.Principal() != 0 {
		t.Fatalf("destroyed session must not expose a principal")
	}

	res2 := httptest.NewRecorder()
	if err := sm.Commit(ctx, res2, sess2); err != nil {
		t.Fatalf("commit destroy: %v", err)
	}
	cleared := cookieFrom(t, res2, "reelhouse_admin")
	if cleared.MaxAge != -1 {
		t.Fatalf("expected expired cookie, got MaxAge %d", cleared.MaxAge)
	}
	keys, _ := client.Keys(ctx, "session:*").Result()
	if len(keys) != 0 {
		t.Fatalf("expected session key deleted, got %v", keys)
	}
}

func TestSessionKindsAreDisjoint(t *testing.T) {
	client := newTestRedis(t)
	adminSM := shared.NewSessionManager(client, shared.KindAdmin, "reelhouse_admin", time.Hour, false)
	memberSM := shared.NewSessionManager(client, shared.KindMember, "reelhouse_member", time.Hour, false)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	adminSess, _ := adminSM.Load(ctx, req)
	adminSess.SetPrincipal(1)
	memberSess, _ := memberSM.Load(ctx, req)
	memberSess.SetPrincipal(2)

	res := httptest.NewRecorder()
	if err := adminSM.Commit(ctx, res, adminSess); err != nil {
		t.Fatalf("commit admin: %v", err)
	}
	if err := memberSM.Commit(ctx, res, memberSess); err != nil {
		t.Fatalf("commit member: %v", err)
	}

	adminKeys, _ := client.Keys(ctx, "session:admin:*").Result()
	memberKeys, _ := client.Keys(ctx, "session:member:*").Result()
	if len(adminKeys) != 1 || len(memberKeys) != 1 {
		t.Fatalf("expected one key per kind, got admin=%v member=%v", adminKeys, memberKeys)
	}

	// Context placement follows the session kind, never the caller's hope.
	ctx2 := shared.ContextWithSession(context.Background(), adminSess)
	ctx2 = shared.ContextWithSession(ctx2, memberSess)
	if got := shared.AdminSessionFromContext(ctx2).Principal(); got != 1 {
		t.Fatalf("expected admin principal 1, got %d", got)
	}
	if got := shared.MemberSessionFromContext(ctx2).Principal(); got != 2 {
		t.Fatalf("expected member principal 2, got %d", got)
	}
}
