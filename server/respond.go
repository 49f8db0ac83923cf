package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"property-valuation/services"
	"property-valuation/valuation"
)

// WriteJSONError writes {"error": message} with the given status.
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondWithJSON marshals payload and writes it with the given status.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(response)
}

// statusFor maps caller errors to client statuses. Anything unrecognised is
// a server fault.
func statusFor(err error) int {
	var (
		unknownArea *valuation.UnknownAreaError
		unknownType *valuation.UnknownPropertyTypeError
		badSize     *valuation.InvalidSizeError
	)
	switch {
	case errors.As(err, &unknownArea), errors.As(err, &unknownType):
		return http.StatusUnprocessableEntity
	case errors.As(err, &badSize),
		errors.Is(err, services.ErrInvalidSubmission),
		errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// publicMessage hides internal error details from clients. Server faults
// carry the trace id so they can be found in the logs.
func publicMessage(r *http.Request, err error, status int) string {
	if status >= http.StatusInternalServerError {
		if id := traceIDFromContext(r.Context()); id != "" {
			return "Internal server error (trace " + id + ")"
		}
		return "Internal server error"
	}
	return err.Error()
}
