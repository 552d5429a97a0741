// Package response writes the JSON envelope every endpoint answers with:
//
//	{"status":200,"data":{...}}
//	{"status":404,"message":"Order not found"}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// Fail maps err to its HTTP status and writes it. Internal errors are logged
// with the request logger and answered with a generic message. Field level
// validation messages go out in "errors".
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error("request failed", "error", err)
	}
	body := envelope{Status: status, Message: apperr.Message(err)}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body.Errors = fields
	}
	write(w, status, body)
}

// StatusOf returns the HTTP status for err's kind.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindTenantRequired, apperr.KindGuestInfoRequired, apperr.KindEmptyCart,
		apperr.KindInvalidQuantity, apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindTenantMismatch, apperr.KindTenantInactive, apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindProductNotFound, apperr.KindOrderNotFound, apperr.KindStageNotFound, apperr.KindStoreNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
