// In file: internal/fema/errors.go
package fema

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch.
type Kind int

const (
	// KindTransport covers request construction, connection errors and timeouts.
	KindTransport Kind = iota + 1
	// KindStatus is a non-2xx response.
	KindStatus
	// KindDecode is a body that is not a JSON object.
	KindDecode
	// KindMissingKey is a JSON object without the records key.
	KindMissingKey
	// KindTooLarge is a body longer than the client's limit.
	KindTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindMissingKey:
		return "missing key"
	case KindTooLarge:
		return "too large"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// FetchError describes why the claims endpoint did not yield records.
type FetchError struct {
	Kind       Kind
	StatusCode int
	Key        string
	Limit      int64
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fema api returned status %d", e.StatusCode)
	case KindMissingKey:
		return fmt.Sprintf("fema api response has no %q key", e.Key)
	case KindTooLarge:
		return fmt.Sprintf("fema api response too large (over %d bytes)", e.Limit)
	default:
		return fmt.Sprintf("fema fetch failed (%s): %v", e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *FetchError of kind k.
func IsKind(err error, k Kind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == k
}
