package docstore

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Kind classifies a store failure for diagnostics.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindOther           Kind = "other"
)

// Hint returns an operator-facing remediation hint for the kind.
func (k Kind) Hint() string {
	switch k {
	case KindUnauthenticated:
		return "the store rejected the request as unauthenticated; check the API key or database credentials"
	case KindForbidden:
		return "the credentials lack write permission on the collection; grant create/read/update/delete"
	case KindNotFound:
		return "the database, collection or document does not exist; check the store identifiers"
	default:
		return "unexpected store failure"
	}
}

// StoreError is returned by Collection implementations.
type StoreError struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("docstore %s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("docstore %s (%s)", e.Op, e.Kind)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newStoreError(op string, err error) *StoreError {
	return &StoreError{Kind: Classify(err), Op: op, Err: err}
}

// IsNotFound reports whether err classifies as not found.
func IsNotFound(err error) bool {
	return Classify(err) == KindNotFound
}

// Classify maps an error from any driver to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) && storeErr.Kind != "" {
		return storeErr.Kind
	}

	if errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "28000", "28P01":
			return KindUnauthenticated
		case "42501":
			return KindForbidden
		case "42P01", "3D000":
			return KindNotFound
		}
		return KindOther
	}

	if storeErr != nil {
		return kindFromStatus(storeErr.Status)
	}
	return KindOther
}

func kindFromStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	}
	return KindOther
}
