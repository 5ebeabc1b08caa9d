package httptransport

import (
	"net/http"
	"strconv"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/logging"
	"github.com/iliamunaev/order-chain/internal/model"
)

// writeError answers with the status and kind apperr assigns to err.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.Kind(err)
	if status >= http.StatusInternalServerError && kind == apperr.KindInternal {
		s.log.ErrorContext(r.Context(), "request failed",
			"request_id", logging.RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, model.ErrorResponse{
		Status: "error",
		Error:  &model.ErrorPayload{Kind: kind, Message: err.Error()},
	})
}

// intParam reads a numeric path parameter.
func intParam(raw, name string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
