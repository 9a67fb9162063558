package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/apperr"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/models"
	"github.com/Leopold1975/juicebox/pkg/logger"
	"github.com/google/uuid"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	requestIDKey
)

const (
	requestIDHeader = "X-Request-Id"
	bearerPrefix    = "Bearer "
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func loggingMiddleware(lg logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := httptest.NewRecorder()
			reqLog := lg.With("request_id", requestID(r.Context()))

			defer func() {
				reqLog.Infof("METHOD %s URI %s STATUS %d Latency %s Client IP %s User Agent %s",
					r.Method,
					r.URL.RequestURI(),
					rr.Code,
					time.Since(start).String(),
					r.RemoteAddr,
					r.UserAgent(),
				)
			}()

			next.ServeHTTP(rr, r)

			for k, v := range rr.Header() {
				w.Header()[k] = v
			}

			w.WriteHeader(rr.Code)

			if rr.Code >= http.StatusBadRequest && rr.Body.Len() != 0 {
				reqLog.Debugf("error response: %s", rr.Body.String())
			}

			if _, err := rr.Body.WriteTo(w); err != nil {
				reqLog.Errorf("middleware write error: %s", err.Error())
			}
		})
	}
}

// authMiddleware resolves an optional bearer token to the current user.
// Requests without a token continue anonymously.
func authMiddleware(users UserService, lg logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)

				return
			}

			if !strings.HasPrefix(header, bearerPrefix) {
				handleError(w, lg, &apperr.Error{
					Kind:    apperr.KindMissingUser,
					Message: "authorization token must start with " + strings.TrimSpace(bearerPrefix),
				})

				return
			}

			id, err := users.Identify(r.Context(), strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				handleError(w, lg, err)

				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		})
	}
}

// identityFrom returns the request's actor or nil for anonymous requests.
func identityFrom(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(identityKey).(*models.Identity)

	return id
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)

	return id
}
