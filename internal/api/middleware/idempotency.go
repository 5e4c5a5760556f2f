package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"

	// provisionalLockTTL bounds how long an unfinished request holds its key.
	provisionalLockTTL = 60 * time.Second
	storeTimeout       = 2 * time.Second
)

var reIdempotencyKey = regexp.MustCompile(`^[A-Za-z0-9_\-:.]{1,128}$`)

type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

type respRecorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *respRecorder) WriteHeader(statusCode int) {
	r.code = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Idempotency replays the stored response when a client retries a mutating request
// with the same Idempotency-Key. Requests without the header pass straight through.
type Idempotency struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewIdempotency(rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Idempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Idempotency{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("component", "Idempotency"),
	}
}

func (i *Idempotency) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		idemKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if idemKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !reIdempotencyKey.MatchString(idemKey) {
			writeJSONError(w, http.StatusBadRequest, "invalid Idempotency-Key format")
			return
		}

		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(r.Body)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "could not read request body")
				return
			}
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		bhash := bodyHash(body)
		key := buildKey(r.Method, r.URL.Path, idemKey)

		ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
		defer cancel()

		ok, err := provisionalSet(ctx, i.rdb, key, idempEntry{InProgress: true, BodySHA256: bhash, CreatedAt: nowUTC()})
		if err != nil {
			i.logger.ErrorContext(r.Context(), "Idempotency store unavailable", slog.Any("error", err))
			writeJSONError(w, http.StatusServiceUnavailable, "idempotency store unavailable")
			return
		}
		if !ok {
			i.replay(ctx, w, r, key, bhash)
			return
		}

		rec := &respRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(r.Context()), storeTimeout)
		defer saveCancel()

		if rec.code >= http.StatusInternalServerError {
			// Let the client retry a failed request with the same key.
			if err := i.rdb.Del(saveCtx, key).Err(); err != nil {
				i.logger.WarnContext(r.Context(), "Failed to release idempotency key", slog.String("key", key), slog.Any("error", err))
			}
			return
		}

		final := idempEntry{
			Code:       rec.code,
			Body:       rec.buf.Bytes(),
			BodySHA256: bhash,
			CreatedAt:  nowUTC(),
		}
		if err := saveFinal(saveCtx, i.rdb, key, final, i.ttl); err != nil {
			i.logger.WarnContext(r.Context(), "Failed to store idempotent response", slog.String("key", key), slog.Any("error", err))
		}
	})
}

func (i *Idempotency) replay(ctx context.Context, w http.ResponseWriter, r *http.Request, key, bhash string) {
	cur, err := loadEntry(ctx, i.rdb, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			writeJSONError(w, http.StatusConflict, "request is already in progress")
			return
		}
		i.logger.ErrorContext(r.Context(), "Failed to load idempotency entry", slog.String("key", key), slog.Any("error", err))
		writeJSONError(w, http.StatusServiceUnavailable, "idempotency store unavailable")
		return
	}

	if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
		writeJSONError(w, http.StatusUnprocessableEntity, "Idempotency-Key reused with a different body")
		return
	}
	if cur.InProgress || cur.Code == 0 {
		writeJSONError(w, http.StatusConflict, "request is already in progress")
		return
	}

	i.logger.InfoContext(r.Context(), "Replaying stored response", slog.String("key", key), slog.Int("status", cur.Code))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotentReplayHeader, "true")
	w.WriteHeader(cur.Code)
	_, _ = w.Write(cur.Body)
}

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

func buildKey(method, path, idemKey string) string {
	return "idemp:credit:" + strings.ToLower(method) + ":" + path + ":" + idemKey
}

func provisionalSet(ctx context.Context, rdb redis.Cmdable, key string, entry idempEntry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb redis.Cmdable, key string) (idempEntry, error) {
	var e idempEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(v, &e); err != nil {
		return e, err
	}
	return e, nil
}

func saveFinal(ctx context.Context, rdb redis.Cmdable, key string, entry idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}
