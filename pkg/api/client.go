package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shellkode/kodechat/pkg/chat"
)

const (
	endpointMessageStream = "/api/chat/message/stream"
	endpointStop          = "/api/chat/stop/"
	endpointSessions      = "/api/chat/sessions"
	endpointGoogleLogin   = "/api/auth/google"
)

// TokenSource supplies the bearer credential. Implemented by the auth
// package; the client treats it as opaque.
type TokenSource interface {
	Token() (string, error)
	IsValid() bool
}

// Client is the transport collaborator for the ShellKode backend. It
// knows how to open one streaming request, cancel it by request id, and
// perform the plain session/auth calls.
type Client struct {
	baseURL string
	// stream has no client-side deadline: the streaming response body
	// stays open for the whole turn. Stall detection is the reader's
	// job. plain covers the ordinary request/response calls.
	stream *http.Client
	plain  *http.Client
	tokens TokenSource
	log    zerolog.Logger
}

// NewClient creates a backend client. tokens may be nil for anonymous
// use; the backend accepts unauthenticated chat requests.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		stream:  &http.Client{Timeout: 0},
		plain:   &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// StreamRequest is the outbound body of a "start streaming turn" call.
// Code and Error carry troubleshoot-mode context only.
type StreamRequest struct {
	Content   string    `json:"content"`
	Mode      chat.Mode `json:"mode"`
	SessionID string    `json:"session_id,omitempty"`
	Code      string    `json:"code,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// OpenMessageStream posts the request and hands back the raw response
// body for the ingestion engine to consume. The caller owns the body.
func (c *Client) OpenMessageStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointMessageStream, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("stream request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp.Body, nil
}

// StopStream asks the backend to cancel an in-flight response by the
// request id captured from the start event.
func (c *Client) StopStream(ctx context.Context, requestID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointStop+requestID, nil)
	if err != nil {
		return err
	}
	c.setHeaders(httpReq)

	resp, err := c.plain.Do(httpReq)
	if err != nil {
		return fmt.Errorf("stop request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stop request failed: HTTP %d", resp.StatusCode)
	}
	return nil
}

// SessionSummary is the backend's view of one stored session.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Mode         chat.Mode `json:"mode"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	UserID       string    `json:"user_id,omitempty"`
}

// SessionMessage is one stored message as the backend returns it.
type SessionMessage struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Mode      chat.Mode       `json:"mode"`
	Sources   []chat.Source   `json:"sources,omitempty"`
	Code      *chat.CodeBlock `json:"code,omitempty"`
}

// ListSessions fetches the authenticated user's stored sessions.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	var out struct {
		Sessions []SessionSummary `json:"sessions"`
	}
	if err := c.getJSON(ctx, endpointSessions, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// SessionMessages fetches the stored transcript of one session.
func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]SessionMessage, error) {
	var out []SessionMessage
	if err := c.getJSON(ctx, endpointSessions+"/"+sessionID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSession removes a stored session on the backend.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+endpointSessions+"/"+sessionID, nil)
	if err != nil {
		return err
	}
	c.setHeaders(httpReq)

	resp, err := c.plain.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete session failed: HTTP %d", resp.StatusCode)
	}
	return nil
}

// User identifies the logged-in account.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// LoginResult is the credential bundle returned by the token exchange.
type LoginResult struct {
	User  User `json:"user"`
	Token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	} `json:"token"`
}

// Login exchanges a Google ID token for a backend bearer credential.
func (c *Client) Login(ctx context.Context, googleToken string) (*LoginResult, error) {
	body, err := json.Marshal(map[string]string{"token": googleToken})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointGoogleLogin, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.plain.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed: HTTP %d", resp.StatusCode)
	}

	var out LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(httpReq)

	resp, err := c.plain.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.tokens == nil || !c.tokens.IsValid() {
		return
	}
	if token, err := c.tokens.Token(); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
