package cart

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

type entry struct {
	cart    Cart
	touched time.Time
}

// Registry holds carts in memory keyed by an opaque token.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*entry
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		carts: make(map[string]*entry),
		now:   time.Now,
	}
}

// NewToken returns a random 32-character hex cart token.
func NewToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Update runs fn against the cart for token under the registry lock,
// creating an empty cart if none exists.
func (r *Registry) Update(token string, fn func(*Cart)) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.carts[token]
	if !ok {
		e = &entry{}
		r.carts[token] = e
	}
	e.touched = r.now()
	fn(&e.cart)
	return e.cart.Summary()
}

// Get returns a summary of the cart for token. Unknown tokens yield an empty cart.
func (r *Registry) Get(token string) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.carts[token]
	if !ok {
		var empty Cart
		return empty.Summary()
	}
	e.touched = r.now()
	return e.cart.Summary()
}

func (r *Registry) Delete(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, token)
}

// Cleanup evicts carts untouched for longer than idle and returns how many
// were removed.
func (r *Registry) Cleanup(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	n := 0
	for token, e := range r.carts {
		if e.touched.Before(cutoff) {
			delete(r.carts, token)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
