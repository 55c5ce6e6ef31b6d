package out

import (
	"context"
	"errors"
)

// MailProvider is the read-only mailbox API.
type MailProvider interface {
	// ListMessageIDs returns at most max ids matching query, newest first.
	ListMessageIDs(ctx context.Context, accessToken, query string, max int64) ([]string, error)
	// GetMessage fetches the full message payload.
	GetMessage(ctx context.Context, accessToken, id string) (*MailMessage, error)
}

// MailMessage is a fetched message with its MIME tree.
type MailMessage struct {
	ID       string
	ThreadID string
	Subject  string
	Payload  *MessagePart
}

// MessagePart is one node of a message's MIME tree.
// Body data is base64url encoded as returned by the provider.
type MessagePart struct {
	MimeType string
	Filename string
	BodyData string
	Parts    []*MessagePart
}

// ProviderErrorCode represents error codes.
type ProviderErrorCode string

const (
	ProviderErrAuth         ProviderErrorCode = "auth_error"
	ProviderErrTokenExpired ProviderErrorCode = "token_expired"
	ProviderErrNotFound     ProviderErrorCode = "not_found"
	ProviderErrNetwork      ProviderErrorCode = "network_error"
	ProviderErrServer       ProviderErrorCode = "server_error"
)

// ProviderError represents a provider error.
type ProviderError struct {
	Provider string
	Code     ProviderErrorCode
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error.
func NewProviderError(provider string, code ProviderErrorCode, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}

// IsTokenExpired reports whether err is a provider 401.
func IsTokenExpired(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == ProviderErrTokenExpired
}
