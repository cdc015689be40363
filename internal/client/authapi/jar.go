package authapi

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// sessionCookies are the cookies the service sets on login and clears on logout.
var sessionCookies = []string{"accessToken", "refreshToken"}

// sessionJar is a cookie jar that can be emptied in one step.
type sessionJar struct {
	mu    sync.RWMutex
	inner *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &sessionJar{inner: inner}, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.inner.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

func (j *sessionJar) reset() {
	// cookiejar.New only fails on a bad PublicSuffixList, and nil is always valid.
	fresh, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.inner = fresh
	j.mu.Unlock()
}
