package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// fakeRedis implements redisClient over a plain map.
type fakeRedis struct {
	data   map[string]string
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case int64:
		f.data[key] = strconv.FormatInt(v, 10)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestStore_CreateGetDestroy(t *testing.T) {
	ctx := context.Background()
	store := New(newFakeRedis())

	id, err := store.Create(ctx, 42)
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	userID, err := store.Get(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	assert.NoError(t, store.Destroy(ctx, id))

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetUnknownSession(t *testing.T) {
	store := New(newFakeRedis())

	_, err := store.Get(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DestroyIdempotent(t *testing.T) {
	store := New(newFakeRedis())

	assert.NoError(t, store.Destroy(context.Background(), "never-existed"))
	assert.NoError(t, store.Destroy(context.Background(), "never-existed"))
}

func TestStore_CreateDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := New(newFakeRedis())

	id1, err := store.Create(ctx, 1)
	assert.NoError(t, err)
	id2, err := store.Create(ctx, 1)
	assert.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestCookieRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	SetCookie(rr, "abc-123")

	res := rr.Result()
	cookies := res.Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "abc-123", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	// non-durable session cookie
	assert.Equal(t, 0, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	id, err := FromRequest(req)
	assert.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestClearCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	ClearCookie(rr)

	cookies := rr.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestFromRequest_NoCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := FromRequest(req)
	assert.Error(t, err)
}
