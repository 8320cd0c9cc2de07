package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// tokenSkew is subtracted from the declared lifetime so a cached token is
// never presented right at its expiry.
const tokenSkew = 60 * time.Second

// AccessToken is a Daraja bearer token.
type AccessToken struct {
	Value     string
	ExpiresIn time.Duration
	ExpiresAt time.Time
}

// ValidAt reports whether the token can still be presented at t.
func (t *AccessToken) ValidAt(now time.Time) bool {
	return t != nil && t.Value != "" && now.Before(t.ExpiresAt)
}

// seconds accepts both "3599" and 3599; Daraja sends the former.
type seconds int64

func (s *seconds) UnmarshalJSON(b []byte) error {
	v := strings.Trim(string(b), `"`)
	if v == "" || v == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("expires_in: %w", err)
	}
	*s = seconds(n)
	return nil
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   seconds `json:"expires_in"`
}

// Authenticator exchanges consumer credentials for bearer tokens.
// Without a store every call hits the OAuth endpoint.
type Authenticator struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	store          TokenStore
	group          singleflight.Group
	logger         *zap.Logger
	now            func() time.Time
}

func NewAuthenticator(baseURL, consumerKey, consumerSecret string, httpClient *http.Client, store TokenStore, logger *zap.Logger) *Authenticator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     httpClient,
		store:          store,
		logger:         logger,
		now:            time.Now,
	}
}

// Token returns a usable access token.
func (a *Authenticator) Token(ctx context.Context) (*AccessToken, error) {
	if a.consumerKey == "" || a.consumerSecret == "" {
		return nil, ErrMissingCredentials
	}
	if a.store == nil {
		return a.fetch(ctx)
	}
	if tok, ok, err := a.store.Get(ctx); err != nil {
		a.logger.Warn("token store read failed", zap.Error(err))
	} else if ok {
		return tok, nil
	}
	v, err, _ := a.group.Do("token", func() (interface{}, error) {
		tok, err := a.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := a.store.Set(ctx, tok); err != nil {
			a.logger.Warn("token store write failed", zap.Error(err))
		}
		return tok, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AccessToken), nil
}

// Invalidate drops the cached token, if any.
func (a *Authenticator) Invalidate(ctx context.Context) {
	if a.store == nil {
		return
	}
	if err := a.store.Invalidate(ctx); err != nil {
		a.logger.Warn("token store invalidate failed", zap.Error(err))
	}
}

func (a *Authenticator) fetch(ctx context.Context) (*AccessToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	creds := base64.StdEncoding.EncodeToString([]byte(a.consumerKey + ":" + a.consumerSecret))
	req.Header.Set("Authorization", "Basic "+creds)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Err: &NetworkError{Op: "oauth", Err: err}}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{Err: &NetworkError{Op: "oauth", Err: err}}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", truncate(body, 256))}
	}
	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode token response: %w", err)}
	}
	if out.AccessToken == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("empty access_token")}
	}
	expiresIn := time.Duration(out.ExpiresIn) * time.Second
	ttl := expiresIn - tokenSkew
	if ttl < 0 {
		ttl = 0
	}
	a.logger.Debug("mpesa token acquired", zap.Duration("expires_in", expiresIn))
	return &AccessToken{
		Value:     out.AccessToken,
		ExpiresIn: expiresIn,
		ExpiresAt: a.now().Add(ttl),
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
