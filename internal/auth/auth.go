// Package auth checks the single configured operator credential.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

type Credentials struct {
	Email    string
	Password string
}

type Checker struct {
	email    [32]byte
	password [32]byte
}

func NewChecker(c Credentials) *Checker {
	return &Checker{
		email:    sha256.Sum256([]byte(normalizeEmail(c.Email))),
		password: sha256.Sum256([]byte(c.Password)),
	}
}

// Check compares in constant time. Emails are matched case-insensitively.
func (c *Checker) Check(email, password string) bool {
	e := sha256.Sum256([]byte(normalizeEmail(email)))
	p := sha256.Sum256([]byte(password))

	emailOK := subtle.ConstantTimeCompare(e[:], c.email[:])
	passOK := subtle.ConstantTimeCompare(p[:], c.password[:])
	return emailOK&passOK == 1
}

// Middleware rejects requests without valid HTTP Basic credentials.
func (c *Checker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok || !c.Check(email, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="thumbnail-studio"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
