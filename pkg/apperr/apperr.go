// Package apperr defines the error kinds surfaced by the delivery API.
//
// Every domain failure is an *Error carrying a Kind. Handlers map the kind to
// an HTTP status through pkg/response; anything that is not an *Error is
// treated as KindInternal and its message never reaches the client.
//
//	return nil, apperr.New(apperr.KindOrderNotFound, "")
//	return nil, apperr.Wrap("orders.Place", err)
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for automated handling.
type Kind string

const (
	KindTenantRequired    Kind = "tenant required"
	KindTenantMismatch    Kind = "tenant mismatch"
	KindTenantInactive    Kind = "tenant inactive"
	KindUnauthenticated   Kind = "unauthenticated"
	KindForbidden         Kind = "forbidden"
	KindGuestInfoRequired Kind = "guest info required"
	KindEmptyCart         Kind = "empty cart"
	KindInvalidQuantity   Kind = "invalid quantity"
	KindProductNotFound   Kind = "product not found"
	KindOrderNotFound     Kind = "order not found"
	KindStageNotFound     Kind = "stage not found"
	KindStoreNotFound     Kind = "store not found"
	KindInvalid           Kind = "invalid"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal error"
)

var defaultMessages = map[Kind]string{
	KindTenantRequired:    "Store context missing",
	KindTenantMismatch:    "Not authorized for this store",
	KindTenantInactive:    "Store is not accepting orders",
	KindUnauthenticated:   "Not authorized",
	KindForbidden:         "Forbidden",
	KindGuestInfoRequired: "Please provide email and phone for guest checkout",
	KindEmptyCart:         "No order items",
	KindInvalidQuantity:   "Quantity must be at least 1",
	KindProductNotFound:   "Product not found",
	KindOrderNotFound:     "Order not found",
	KindStageNotFound:     "Order status not found",
	KindStoreNotFound:     "Store not found",
	KindInvalid:           "Invalid request",
	KindConflict:          "Conflict",
	KindInternal:          "Internal Server Error",
}

// Error is the error type of the delivery platform.
//
// Msg is safe to show to API clients. Op names the failing operation and Err
// keeps the underlying cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Op   string
	Err  error

	// Fields holds per-field messages of a KindInvalid error.
	Fields map[string]string
}

// New returns an error of the given kind. An empty msg uses the kind's
// default client-facing message.
func New(kind Kind, msg string) *Error {
	if msg == "" {
		msg = defaultMessages[kind]
	}
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Invalid is a KindInvalid error carrying per-field messages.
func Invalid(msg string, fields map[string]string) *Error {
	e := New(KindInvalid, msg)
	e.Fields = fields
	return e
}

// Wrap marks err as an internal failure of op. Errors that already carry a
// kind pass through unchanged so a domain error is never downgraded.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		fmt.Fprintf(&b, "<%s>", e.Kind)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message of err. Internal errors always
// yield the generic message.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return defaultMessages[KindInternal]
	}
	if e.Msg == "" {
		return defaultMessages[e.Kind]
	}
	return e.Msg
}

// FieldsOf returns the per-field messages of err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindInvalid {
		return e.Fields
	}
	return nil
}
