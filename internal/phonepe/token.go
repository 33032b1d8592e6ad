package phonepe

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenProvider caches the gateway bearer token and refreshes it lazily once
// the TTL elapses. Refresh is single-flight so concurrent expiry triggers one
// auth call, not one per request.
type tokenProvider struct {
	ttl   time.Duration
	fetch func(ctx context.Context) (string, error)
	now   func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
	sfg    singleflight.Group
}

func newTokenProvider(ttl time.Duration, fetch func(ctx context.Context) (string, error)) *tokenProvider {
	return &tokenProvider{ttl: ttl, fetch: fetch, now: time.Now}
}

func (p *tokenProvider) Token(ctx context.Context) (string, error) {
	if tok, ok := p.cached(); ok {
		return tok, nil
	}

	v, err, _ := p.sfg.Do("token", func() (interface{}, error) {
		// Another flight may have refreshed while we queued.
		if tok, ok := p.cached(); ok {
			return tok, nil
		}
		tok, err := p.fetch(ctx)
		if err != nil {
			return "", err
		}
		p.mu.Lock()
		p.token = tok
		p.expiry = p.now().Add(p.ttl)
		p.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token, forcing re-auth on the next call. Used
// when an API call comes back 401 despite a seemingly fresh token.
func (p *tokenProvider) Invalidate() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

func (p *tokenProvider) cached() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && p.now().Before(p.expiry) {
		return p.token, true
	}
	return "", false
}
