package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Validatable is implemented by request payloads
type Validatable interface {
	Validate() error
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteDetail writes an error in the {"detail": "..."} shape the frontend reads.
func WriteDetail(w http.ResponseWriter, statusCode int, detail string) error {
	return WriteJSON(w, statusCode, map[string]string{"detail": detail})
}

// WriteDetailf is WriteDetail with formatting.
func WriteDetailf(w http.ResponseWriter, statusCode int, format string, args ...interface{}) error {
	return WriteDetail(w, statusCode, fmt.Sprintf(format, args...))
}

// WriteInternalError writes a 500 response for a storage failure.
func WriteInternalError(w http.ResponseWriter, err error) error {
	return WriteDetail(w, http.StatusInternalServerError, "Erro interno: "+err.Error())
}

// DecodeAndValidate decodes the JSON body into payload and validates it.
// Returns false after writing a 422 response when the body is malformed or invalid.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, payload Validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		WriteDetail(w, http.StatusUnprocessableEntity, "JSON inválido: "+err.Error())
		return false
	}
	if err := payload.Validate(); err != nil {
		WriteDetail(w, http.StatusUnprocessableEntity, validationDetail(err))
		return false
	}
	return true
}

// validationDetail renders validator errors as "campo: regra" pairs
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	detail := "Dados inválidos:"
	for _, fe := range verrs {
		detail += fmt.Sprintf(" %s (%s)", fe.Field(), fe.Tag())
	}
	return detail
}

// QueryInt reads an optional integer query parameter (0 when absent).
func QueryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parâmetro '%s' inválido: %s", key, raw)
	}
	return v, nil
}
