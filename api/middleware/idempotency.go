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
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	inFlightTTL          = 2 * time.Minute
	maxIdempotencyKeyLen = 255

	// DefaultIdempotencyTTL covers admin writes.
	DefaultIdempotencyTTL = 24 * time.Hour
	// CheckoutIdempotencyTTL keeps checkout replays for a week so a client
	// retrying a lost response never places a second order.
	CheckoutIdempotencyTTL = 7 * 24 * time.Hour
)

type idempotencyState string

const (
	statePending  idempotencyState = "pending"
	stateComplete idempotencyState = "complete"
)

type idempotencyRecord struct {
	State       idempotencyState `json:"state"`
	RequestHash string           `json:"request_hash"`
	Status      int              `json:"status,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
	Body        []byte           `json:"body,omitempty"`
}

var errKeyInFlight = pkgerrors.New(pkgerrors.CodeBusy, "request with this idempotency key is in progress")

// Idempotency requires an Idempotency-Key on the wrapped route and replays the
// stored response for repeats within ttl.
//
// The key is reserved as pending before the handler runs, so a concurrent
// duplicate gets RESOURCE_BUSY. Server errors, RESOURCE_BUSY and stock or
// conflict rejections drop the reservation, and the client may retry with the
// same key. Reusing a key with a different body is
// an IDEMPOTENCY_KEY_REUSED error.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger, ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey, err := idempotencyKeyFrom(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(idempotencyScope(r), clientKey)
			if logg != nil {
				ctx = logg.WithField(ctx, "idempotency_key", clientKey)
			}

			reserved, err := reserve(ctx, store, key, requestHash)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !reserved {
				replay(ctx, logg, w, store, key, requestHash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r.WithContext(ctx))

			// the client may already be gone; the record must still land
			persistCtx := context.WithoutCancel(ctx)
			if err := complete(persistCtx, store, key, requestHash, capture, ttl); err != nil && logg != nil {
				logg.Error(persistCtx, "idempotency record not persisted", err)
			}
		})
	}
}

func idempotencyKeyFrom(r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	switch {
	case key == "":
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
	case len(key) > maxIdempotencyKeyLen:
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "Idempotency-Key header longer than %d characters", maxIdempotencyKeyLen)
	}
	return key, nil
}

func reserve(ctx context.Context, store pkgredis.IdempotencyStore, key, requestHash string) (bool, error) {
	pending, err := json.Marshal(idempotencyRecord{State: statePending, RequestHash: requestHash})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency reservation")
	}
	ok, err := store.SetNX(ctx, key, string(pending), inFlightTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	return ok, nil
}

// complete swaps the pending reservation for the final response. Outcomes
// that may change on retry are not remembered.
func complete(ctx context.Context, store pkgredis.IdempotencyStore, key, requestHash string, capture *responseCapture, ttl time.Duration) error {
	status := capture.statusOrOK()
	if !rememberable(status, capture.body.Bytes()) {
		return store.Del(ctx, key)
	}
	payload, err := json.Marshal(idempotencyRecord{
		State:       stateComplete,
		RequestHash: requestHash,
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	})
	if err != nil {
		_ = store.Del(ctx, key)
		return err
	}
	return store.Set(ctx, key, string(payload), ttl)
}

// transientCodes depend on contended state (cart locks, stock) rather than
// on the request itself.
var transientCodes = map[pkgerrors.Code]bool{
	pkgerrors.CodeBusy:              true,
	pkgerrors.CodeConflict:          true,
	pkgerrors.CodeOutOfStock:        true,
	pkgerrors.CodeInsufficientStock: true,
}

// rememberable reports whether a response may be replayed for the rest of the
// key's ttl. Server errors, 429s and retryable or contention error codes are
// dropped so the client can retry with the same key.
func rememberable(status int, body []byte) bool {
	switch {
	case status >= http.StatusInternalServerError, status == http.StatusTooManyRequests:
		return false
	case status < http.StatusBadRequest:
		return true
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code == "" {
		return true
	}
	code := pkgerrors.Code(envelope.Error.Code)
	return !transientCodes[code] && !pkgerrors.MetadataFor(code).Retryable
}

func replay(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store pkgredis.IdempotencyStore, key, requestHash string) {
	stored, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, pkgredis.Nil):
		// released between SetNX and Get
		responses.WriteError(ctx, logg, w, errKeyInFlight)
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if record.State != stateComplete {
		responses.WriteError(ctx, logg, w, errKeyInFlight)
		return
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

// idempotencyScope keys records per customer and concrete route, so one
// client key can be reused across different carts.
func idempotencyScope(r *http.Request) string {
	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			route = pattern + "@" + r.URL.Path
		}
	}
	return strings.Join([]string{CustomerIDFromContext(r.Context()), r.Method, route}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
