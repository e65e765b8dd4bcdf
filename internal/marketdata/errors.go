package marketdata

import (
    "context"
    "errors"
    "fmt"
    "net"
    "strings"
)

// ErrorKind classifies why a provider could not serve a request.
type ErrorKind string

const (
    // KindAuth: missing or rejected credentials. Not worth retrying the
    // same provider within one resolve.
    KindAuth ErrorKind = "auth"
    // KindTimeout: the call exceeded its deadline.
    KindTimeout ErrorKind = "timeout"
    // KindMalformed: response arrived but lacked required fields.
    KindMalformed ErrorKind = "malformed"
    // KindUpstream: any other remote-side failure (5xx, refused, throttle page).
    KindUpstream ErrorKind = "upstream"
)

// ProviderError is the typed failure adapters return. Raw provider errors
// never cross the adapter boundary without being wrapped into one of these.
type ProviderError struct {
    Provider string
    Kind     ErrorKind
    Err      error
}

func (e *ProviderError) Error() string {
    if e.Err == nil {
        return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
    }
    return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Errf builds a ProviderError with a formatted cause.
func Errf(provider string, kind ErrorKind, format string, args ...any) *ProviderError {
    return &ProviderError{Provider: provider, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify wraps err into a ProviderError attributed to provider, inferring
// the kind when the adapter did not already decide one.
func Classify(provider string, err error) *ProviderError {
    var pe *ProviderError
    if errors.As(err, &pe) {
        if pe.Provider == "" { pe.Provider = provider }
        return pe
    }
    kind := KindUpstream
    var nerr net.Error
    switch {
    case errors.Is(err, context.DeadlineExceeded):
        kind = KindTimeout
    case errors.As(err, &nerr) && nerr.Timeout():
        kind = KindTimeout
    }
    // context.Canceled stays KindUpstream on purpose: a caller-initiated
    // cancel is not a provider timeout.
    return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// Failure is the record accumulated by the fallback walk: which provider
// failed, how, and which requested items it was covering at the time.
type Failure struct {
    Provider string    `json:"provider"`
    Kind     ErrorKind `json:"kind"`
    Symbols  []string  `json:"symbols,omitempty"`
    Message  string    `json:"message"`
}

// TotalFailure means every configured provider failed for a request.
// It is surfaced as-is; the gateway never substitutes fabricated data.
type TotalFailure struct {
    Failures []Failure
}

func (e *TotalFailure) Error() string {
    if len(e.Failures) == 0 {
        return "all providers failed"
    }
    msgs := make([]string, 0, len(e.Failures))
    for _, f := range e.Failures {
        msgs = append(msgs, fmt.Sprintf("%s(%s): %s", f.Provider, f.Kind, f.Message))
    }
    return "all providers failed: " + strings.Join(msgs, "; ")
}
