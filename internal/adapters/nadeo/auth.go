package nadeo

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is an immutable set of tokens for the live services.
type Credentials struct {
	ticket    string
	access    string
	refresh   string
	issuedAt  time.Time
	expiresAt time.Time
}

// NewCredentials builds Credentials. The expiry is read from the access token's
// exp claim; when that is not possible issuedAt+lifetime is used.
func NewCredentials(ticket, access, refresh string, issuedAt time.Time, lifetime time.Duration) Credentials {
	exp, ok := tokenExpiry(access)
	if !ok {
		exp = issuedAt.Add(lifetime)
	}
	return Credentials{
		ticket:    ticket,
		access:    access,
		refresh:   refresh,
		issuedAt:  issuedAt,
		expiresAt: exp,
	}
}

// Header returns the Authorization value for live service calls.
func (c Credentials) Header() string { return "nadeo_v1 t=" + c.access }

// Ticket returns the identity service ticket the tokens were issued for.
func (c Credentials) Ticket() string { return c.ticket }

// AccessToken returns the access token.
func (c Credentials) AccessToken() string { return c.access }

// RefreshToken returns the refresh token.
func (c Credentials) RefreshToken() string { return c.refresh }

// IssuedAt returns when the tokens were obtained.
func (c Credentials) IssuedAt() time.Time { return c.issuedAt }

// ExpiresAt returns when the access token stops being accepted.
func (c Credentials) ExpiresAt() time.Time { return c.expiresAt }

// Expired reports whether the access token is no longer valid at now.
func (c Credentials) Expired(now time.Time) bool {
	return c.access == "" || !now.Before(c.expiresAt)
}

// ExpiresWithin reports whether the access token expires within d of now.
func (c Credentials) ExpiresWithin(now time.Time, d time.Duration) bool {
	return c.Expired(now.Add(d))
}

// tokenExpiry reads the exp claim of a JWT without verifying it.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

type ticketResponse struct {
	Ticket string `json:"ticket"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Authenticate exchanges an account identity and secret for live service
// credentials: first a ticket from the identity service, then a token pair.
func (c *Client) Authenticate(ctx context.Context, identity, secret, clientName string) (Credentials, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(identity + ":" + secret))

	var ticket ticketResponse
	err := c.do(ctx, call{
		op:     "ticket",
		method: http.MethodPost,
		url:    c.identityURL + "/v3/profiles/sessions",
		headers: map[string]string{
			"Ubi-AppId":     c.appID,
			"Authorization": "Basic " + basic,
			"User-Agent":    fmt.Sprintf("%s/ %s", clientName, identity),
		},
		kind: ErrAuth,
	}, &ticket)
	if err != nil {
		return Credentials{}, err
	}
	if ticket.Ticket == "" {
		return Credentials{}, fmt.Errorf("%w: ticket: %w %q", ErrAuth, ErrMissingField, "ticket")
	}

	var tokens tokenResponse
	err = c.do(ctx, call{
		op:      "token",
		method:  http.MethodPost,
		url:     c.coreURL + "/v2/authentication/token/ubiservices",
		headers: map[string]string{"Authorization": "ubi_v1 t=" + ticket.Ticket},
		body:    map[string]string{"audience": c.audience},
		kind:    ErrAuth,
	}, &tokens)
	if err != nil {
		return Credentials{}, err
	}
	return c.credentials(ticket.Ticket, tokens)
}

// Refresh obtains a new token pair using the refresh token of creds.
func (c *Client) Refresh(ctx context.Context, creds Credentials) (Credentials, error) {
	if creds.refresh == "" {
		return Credentials{}, fmt.Errorf("%w: refresh: no refresh token", ErrAuth)
	}
	var tokens tokenResponse
	err := c.do(ctx, call{
		op:      "refresh",
		method:  http.MethodPost,
		url:     c.coreURL + "/v2/authentication/token/refresh",
		headers: map[string]string{"Authorization": "nadeo_v1 t=" + creds.refresh},
		kind:    ErrAuth,
	}, &tokens)
	if err != nil {
		return Credentials{}, err
	}
	return c.credentials(creds.ticket, tokens)
}

func (c *Client) credentials(ticket string, tokens tokenResponse) (Credentials, error) {
	if tokens.AccessToken == "" {
		return Credentials{}, fmt.Errorf("%w: %w %q", ErrAuth, ErrMissingField, "accessToken")
	}
	if tokens.RefreshToken == "" {
		return Credentials{}, fmt.Errorf("%w: %w %q", ErrAuth, ErrMissingField, "refreshToken")
	}
	return NewCredentials(ticket, tokens.AccessToken, tokens.RefreshToken, c.now(), c.tokenLifetime), nil
}
