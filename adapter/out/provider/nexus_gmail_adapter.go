// Package provider implements the Google mail and identity adapters.
package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nexus_server/core/port/out"
	"nexus_server/pkg/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const gmailProvider = "gmail"

// GmailConfig holds Gmail client configuration.
type GmailConfig struct {
	// Endpoint overrides the API base URL. Empty uses the public endpoint.
	Endpoint string
	// Timeout bounds a single call when the caller's context has no deadline.
	Timeout time.Duration
	// HTTPClient is the transport under the bearer token. Nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// DefaultGmailConfig returns production settings.
func DefaultGmailConfig() *GmailConfig {
	return &GmailConfig{Timeout: 30 * time.Second}
}

// GmailAdapter implements out.MailProvider with a caller-supplied access token.
// Tokens are used as-is; an expired token surfaces as ProviderErrTokenExpired.
type GmailAdapter struct {
	cfg *GmailConfig
	cb  *gobreaker.CircuitBreaker
}

var _ out.MailProvider = (*GmailAdapter)(nil)

// NewGmailAdapter creates a new Gmail adapter.
func NewGmailAdapter(cfg *GmailConfig) *GmailAdapter {
	if cfg == nil {
		cfg = DefaultGmailConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client-side failures say nothing about Gmail's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !isServerSide(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[GmailAdapter] circuit %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &GmailAdapter{
		cfg: cfg,
		cb:  gobreaker.NewCircuitBreaker(settings),
	}
}

// ListMessageIDs returns up to max ids matching query.
func (a *GmailAdapter) ListMessageIDs(ctx context.Context, accessToken, query string, max int64) ([]string, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	svc, err := a.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var resp *gmail.ListMessagesResponse
	err = a.execute(func() error {
		call := svc.Users.Messages.List("me").Q(query)
		if max > 0 {
			call = call.MaxResults(max)
		}
		var callErr error
		resp, callErr = call.Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, wrapGmailError(err, "failed to list messages")
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if m == nil || m.Id == "" {
			continue
		}
		ids = append(ids, m.Id)
		if max > 0 && int64(len(ids)) == max {
			break
		}
	}
	return ids, nil
}

// GetMessage fetches a message in full format.
func (a *GmailAdapter) GetMessage(ctx context.Context, accessToken, id string) (*out.MailMessage, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	svc, err := a.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var msg *gmail.Message
	err = a.execute(func() error {
		var callErr error
		msg, callErr = svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, wrapGmailError(err, "failed to get message")
	}

	return convertMessage(msg), nil
}

func (a *GmailAdapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

func (a *GmailAdapter) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	if a.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.cfg.HTTPClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if a.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.cfg.Endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, out.NewProviderError(gmailProvider, out.ProviderErrNetwork, "failed to create gmail client", err)
	}
	return svc, nil
}

func (a *GmailAdapter) execute(fn func() error) error {
	_, err := a.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func convertMessage(msg *gmail.Message) *out.MailMessage {
	if msg == nil {
		return &out.MailMessage{}
	}
	result := &out.MailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Payload:  convertPart(msg.Payload),
	}
	if msg.Payload != nil {
		result.Subject = header(msg.Payload.Headers, "Subject")
	}
	return result
}

func convertPart(p *gmail.MessagePart) *out.MessagePart {
	if p == nil {
		return nil
	}
	part := &out.MessagePart{
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	if p.Body != nil {
		part.BodyData = p.Body.Data
	}
	for _, child := range p.Parts {
		if c := convertPart(child); c != nil {
			part.Parts = append(part.Parts, c)
		}
	}
	return part
}

func header(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h != nil && h.Name == name {
			return h.Value
		}
	}
	return ""
}

func isServerSide(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	return !errors.Is(err, context.Canceled)
}

func wrapGmailError(err error, defaultMsg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return out.NewProviderError(gmailProvider, out.ProviderErrServer, "gmail circuit open", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return out.NewProviderError(gmailProvider, out.ProviderErrTokenExpired, "token expired", err)
		case apiErr.Code == http.StatusForbidden:
			return out.NewProviderError(gmailProvider, out.ProviderErrAuth, "access denied", err)
		case apiErr.Code == http.StatusNotFound:
			return out.NewProviderError(gmailProvider, out.ProviderErrNotFound, "not found", err)
		case apiErr.Code >= 500:
			return out.NewProviderError(gmailProvider, out.ProviderErrServer, "server error", err)
		}
	}

	return out.NewProviderError(gmailProvider, out.ProviderErrNetwork, defaultMsg, err)
}
