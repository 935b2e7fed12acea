package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JoeyLyman/yaycsa/api/responses"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	pkgredis "github.com/JoeyLyman/yaycsa/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	checkoutIdempotencyTTL = 7 * 24 * time.Hour
	// A claim outlives any single request; a crashed handler frees the key
	// after this long.
	claimTTL = 2 * time.Minute
)

// idempotentRoutes lists the mutations that require an Idempotency-Key.
// Paths use path.Match syntax against the request path.
var idempotentRoutes = []struct {
	method string
	glob   string
	ttl    time.Duration
}{
	{http.MethodPost, "/api/v1/shop/orders/active/offer-items", defaultIdempotencyTTL},
	{http.MethodPatch, "/api/v1/shop/orders/active/lines/*", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/shop/checkout", checkoutIdempotencyTTL},
	{http.MethodPost, "/api/admin/v1/offers", defaultIdempotencyTTL},
	{http.MethodPost, "/api/admin/v1/offers/*/activate", defaultIdempotencyTTL},
	{http.MethodPost, "/api/admin/v1/offers/*/pause", defaultIdempotencyTTL},
	{http.MethodPost, "/api/admin/v1/offers/*/expire", defaultIdempotencyTTL},
	{http.MethodPost, "/api/admin/v1/fulfillment-options", defaultIdempotencyTTL},
}

// storedResponse is what a key resolves to once its request has finished.
// A key whose value is claimMarker is still being served.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"requestHash"`
}

const claimMarker = "in-flight"

// Idempotency claims the key before running the handler, so concurrent
// retries of one mutation never execute twice. Finished non-5xx responses
// are replayed for the route's TTL; 5xx responses release the key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := idempotencyTTL(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := requestHash(r.Method, r.URL.Path, body)
			key := store.IdempotencyKey(callerScope(ctx), clientKey)

			claimed, err := store.SetNX(ctx, key, claimMarker, claimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replay(ctx, logg, w, store, key, hash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				release(ctx, logg, store, key)
				return
			}
			record, err := json.Marshal(storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				RequestHash: hash,
			})
			if err == nil {
				err = store.Set(ctx, key, string(record), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "idempotency.store_failed", err)
			}
		})
	}
}

func replay(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store pkgredis.IdempotencyStore, key, hash string) {
	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil):
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key expired while in flight; retry"))
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	case raw == claimMarker:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress"))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if stored.RequestHash != hash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "Idempotency-Key reused with a different request"))
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(replayHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

func release(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string) {
	if err := store.Del(ctx, key); err != nil && logg != nil {
		logg.Error(ctx, "idempotency.release_failed", err)
	}
}

func idempotencyTTL(method, requestPath string) (time.Duration, bool) {
	for _, route := range idempotentRoutes {
		if route.method != method {
			continue
		}
		if ok, _ := path.Match(route.glob, requestPath); ok {
			return route.ttl, true
		}
	}
	return 0, false
}

// callerScope separates keys per caller and channel.
func callerScope(ctx context.Context) string {
	caller := UserIDFromContext(ctx)
	if caller == "" {
		caller = "session:" + SessionTokenFromContext(ctx)
	}
	if channel := ChannelFromContext(ctx); channel != nil {
		return caller + "|" + channel.ID.String()
	}
	return caller
}

// requestHash binds a key to one method, path and body.
func requestHash(method, requestPath string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method + " " + requestPath + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
