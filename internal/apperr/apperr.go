package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind классифицирует ошибку для отображения на HTTP статус или сообщение в чате
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindProcessing
	KindTransport
	KindUpstreamFetch
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindProcessing:
		return "processing"
	case KindTransport:
		return "transport"
	case KindUpstreamFetch:
		return "upstream_fetch"
	default:
		return "unknown"
	}
}

// Error оборачивает причину вместе с ее видом
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создает ошибку заданного вида без причины
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap оборачивает err. Возвращает nil, если err == nil
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(msg string) error { return New(KindValidation, msg) }

func Unauthorized(msg string) error { return New(KindUnauthorized, msg) }

func Forbidden(msg string) error { return New(KindForbidden, msg) }

func Processing(msg string, err error) error { return Wrap(KindProcessing, msg, err) }

func Transport(msg string, err error) error { return Wrap(KindTransport, msg, err) }

func UpstreamFetch(msg string, err error) error { return Wrap(KindUpstreamFetch, msg, err) }

// KindOf возвращает вид самой внешней *Error в цепочке
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is проверяет вид ошибки
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus отображает вид ошибки на HTTP статус
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindTransport, KindUpstreamFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
