package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/diagnosis/bnb-marketplace/internal/service"
	"github.com/diagnosis/bnb-marketplace/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	AccessCookie  = "bnb-access-token"
	RefreshCookie = "bnb-refresh-token"

	defaultMaxBodyBytes = 10 << 20
)

type Options struct {
	// SecureCookies marks session cookies Secure. Enable it in production.
	SecureCookies bool
	MaxBodyBytes  int64
}

type Handlers struct {
	authService     service.AuthService
	propertyService service.PropertyService
	bookingService  service.BookingService
	opts            Options
}

func New(authService service.AuthService, propertyService service.PropertyService, bookingService service.BookingService, opts Options) *Handlers {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handlers{
		authService:     authService,
		propertyService: propertyService,
		bookingService:  bookingService,
		opts:            opts,
	}
}

type ctxKey struct{}

// RequireAuth accepts the access token from the session cookie or an
// Authorization: Bearer header. Any failure is a 401.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(AccessCookie); err == nil {
			token = c.Value
		}
		if token == "" {
			if v := r.Header.Get("Authorization"); strings.HasPrefix(v, "Bearer ") {
				token = strings.TrimPrefix(v, "Bearer ")
			}
		}

		userID, err := h.authService.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, userID)
		ctx = logger.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user ID placed by RequireAuth.
func currentUser(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

// Helper functions for common response patterns
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors to status codes. Anything unrecognised
// is reported as a 400 carrying the error text.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	var nf *domain.NotFoundError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.ErrorContext(r.Context(), "Request timed out", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

var errBodyTooLarge = errors.New("Request body too large")

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return domain.Invalid("Request body is required")
		default:
			return domain.Invalid("Invalid JSON body: %s", strings.TrimPrefix(err.Error(), "json: "))
		}
	}
	if dec.More() {
		return domain.Invalid("Invalid JSON body: unexpected data after object")
	}
	return nil
}

// writeDecodeError reports a failed decodeJSON.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeServiceError(w, r, err)
}

// pathID returns the {id} URL parameter once it parses as a UUID.
func pathID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.Invalid("Invalid id %q", raw)
	}
	return id.String(), nil
}
