// Package recovery holds pending password-recovery codes in a
// time-bounded in-memory cache. This is the only process-wide mutable
// state outside the database; codes expire on their own and are
// consumed on successful reset.
package recovery

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store issues and verifies one recovery code per email address.
// Issuing a new code replaces any pending one.
type Store struct {
	ttl   time.Duration
	codes *gocache.Cache
}

// New creates a Store whose codes expire after ttl.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		codes: gocache.New(ttl, 10*time.Minute),
	}
}

// Issue generates a fresh 6-digit code for the address and stores it
// with the configured TTL.
func (s *Store) Issue(correo string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	s.codes.Set(clave(correo), code, s.ttl)
	return code, nil
}

// Verify reports whether the code matches the pending one for the
// address. The code stays pending so the client can verify first and
// reset afterwards.
func (s *Store) Verify(correo, code string) bool {
	v, ok := s.codes.Get(clave(correo))
	if !ok {
		return false
	}
	pending, ok := v.(string)
	return ok && code != "" && pending == code
}

// Consume verifies the code and, if valid, removes it so it cannot be
// replayed.
func (s *Store) Consume(correo, code string) bool {
	if !s.Verify(correo, code) {
		return false
	}
	s.codes.Delete(clave(correo))
	return true
}

func clave(correo string) string {
	return strings.ToLower(strings.TrimSpace(correo))
}
