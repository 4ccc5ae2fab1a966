package model

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies integration failures independently of their message text
type ErrorKind string

const (
	KindConfiguration        ErrorKind = "configuration"
	KindReauthRequired       ErrorKind = "reauth_required"
	KindRemoteRejection      ErrorKind = "remote_rejection"
	KindTimeout              ErrorKind = "timeout"
	KindUnsupportedOperation ErrorKind = "unsupported_operation"
	KindUnsupportedPlatform  ErrorKind = "unsupported_platform"
	KindValidation           ErrorKind = "validation"
	KindTransport            ErrorKind = "transport"
	KindInternal             ErrorKind = "internal"
)

// IntegrationError is the typed error every public operation of the layer returns.
type IntegrationError struct {
	Kind     ErrorKind
	Platform Platform
	Message  string
	Err      error
}

func NewError(kind ErrorKind, platform Platform, msg string, err error) *IntegrationError {
	return &IntegrationError{Kind: kind, Platform: platform, Message: msg, Err: err}
}

func (e *IntegrationError) Error() string {
	prefix := string(e.Kind)
	if e.Platform != "" {
		prefix = fmt.Sprintf("%s %s", e.Platform, e.Kind)
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}

func (e *IntegrationError) Unwrap() error { return e.Err }

// Is matches any IntegrationError of the same kind, so errors.Is(err, ErrTimeout) works on wrapped errors.
func (e *IntegrationError) Is(target error) bool {
	t, ok := target.(*IntegrationError)
	return ok && t.Kind == e.Kind && t.Platform == "" && t.Message == ""
}

// Retryable is true for failures worth retrying with backoff.
func (e *IntegrationError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindTransport
}

var (
	ErrConfiguration        = &IntegrationError{Kind: KindConfiguration}
	ErrReauthRequired       = &IntegrationError{Kind: KindReauthRequired}
	ErrRemoteRejection      = &IntegrationError{Kind: KindRemoteRejection}
	ErrTimeout              = &IntegrationError{Kind: KindTimeout}
	ErrUnsupportedOperation = &IntegrationError{Kind: KindUnsupportedOperation}
	ErrUnsupportedPlatform  = &IntegrationError{Kind: KindUnsupportedPlatform}
	ErrValidation           = &IntegrationError{Kind: KindValidation}
	ErrTransport            = &IntegrationError{Kind: KindTransport}
)

func AsIntegrationError(err error, target **IntegrationError) bool {
	return errors.As(err, target)
}

// KindOf returns the kind of err; context deadline errors classify as timeouts.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// WithPlatform stamps the platform on an IntegrationError that lacks one.
func WithPlatform(err error, p Platform) error {
	var ie *IntegrationError
	if errors.As(err, &ie) && ie.Platform == "" {
		cp := *ie
		cp.Platform = p
		return &cp
	}
	return err
}
