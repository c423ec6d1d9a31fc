package nadeo

import (
	"context"
	"sync"
	"time"

	"github.com/okian/atdiff/pkg/metrics"
)

// DefaultSkew is how long before expiry a token is refreshed.
const DefaultSkew = time.Minute

// Session owns the current credentials and refreshes them on demand.
type Session struct {
	client *Client
	skew   time.Duration

	mu    sync.Mutex
	creds Credentials
}

// NewSession wraps creds obtained from client. A non-positive skew uses DefaultSkew.
func NewSession(client *Client, creds Credentials, skew time.Duration) *Session {
	if skew <= 0 {
		skew = DefaultSkew
	}
	return &Session{client: client, creds: creds, skew: skew}
}

// Token returns credentials valid for at least the skew window, refreshing first
// when they are about to expire.
func (s *Session) Token(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.creds.ExpiresWithin(s.client.now(), s.skew) {
		return s.creds, nil
	}
	fresh, err := s.client.Refresh(ctx, s.creds)
	if err != nil {
		return Credentials{}, err
	}
	metrics.RecordTokenRefresh()
	s.creds = fresh
	return fresh, nil
}
