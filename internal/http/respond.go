package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	domainerrors "github.com/Clark-Hu/movielists/internal/errors"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string, details any) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// respondDomainError renders err using its taxonomy code. Anything that is not a domain
// error is treated as internal and its cause is kept out of the response.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = domainerrors.Internal("internal error", err)
	}

	status := domainErr.HTTPStatus()
	message := domainErr.Message
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		message = "internal error"
	}
	s.respondError(w, status, string(domainErr.Code), message, domainErr.Details)
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	const code = string(domainerrors.CodeInvalidArgument)
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, code, "Malformed JSON payload", nil)
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, code, fmt.Sprintf("Invalid value for field %s", typeError.Field), nil)
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, code, "Request body too large", nil)
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, code, "Request body cannot be empty", nil)
	default:
		s.respondError(w, http.StatusBadRequest, code, "Unable to parse request body", nil)
	}
}

func roundToOneDecimal(value float32) float32 {
	return float32(math.Round(float64(value)*10) / 10.0)
}
