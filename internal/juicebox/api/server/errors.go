package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/apperr"
	"github.com/Leopold1975/juicebox/pkg/logger"
)

type Error struct {
	Name string `json:"name"`
	Err  string `json:"error"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		return []byte(`{"name":"UnknownError","error":"marshal error"}`)
	}

	return b
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindMissingCredentials:
		return http.StatusBadRequest
	case apperr.KindMissingUser, apperr.KindIncorrectCredentials:
		return http.StatusUnauthorized
	case apperr.KindUnauthorizedUser, apperr.KindInactiveUser:
		return http.StatusForbidden
	case apperr.KindPostNotFound, apperr.KindUserNotFound:
		return http.StatusNotFound
	case apperr.KindUserExists:
		return http.StatusConflict
	case apperr.KindTooManyAttempts:
		return http.StatusTooManyRequests
	case apperr.KindUnknown:
	}

	return http.StatusInternalServerError
}

// handleError writes err as {"name","error"}. Errors outside the domain set
// are logged and reported without their details.
func handleError(w http.ResponseWriter, lg logger.Logger, err error) {
	var (
		ae   *apperr.Error
		body Error
	)

	if errors.As(err, &ae) {
		body = Error{Name: ae.Kind.String(), Err: ae.Error()}
	} else {
		lg.Errorf("internal error: %s", err.Error())

		body = Error{Name: apperr.KindUnknown.String(), Err: "internal server error"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOf(apperr.KindOf(err)))
	w.Write(body.ToJSON()) //nolint:errcheck
}
