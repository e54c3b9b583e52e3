package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches hashed. A malformed or
// unparseable hash never matches, and neither does input longer than
// MaxPasswordBytes: bcrypt would only compare its first 72 bytes.
func VerifyPassword(hashed, plain string) bool {
	if len(plain) > MaxPasswordBytes {
		// Same bcrypt work as a real comparison, never a match.
		_ = bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain[:MaxPasswordBytes]))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// PasswordHasher hashes and verifies passwords off the hot path.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, hash string) (bool, error)
	// DummyHash returns a valid hash of a random secret, used to keep the
	// cost of rejecting an unknown username equal to a wrong password.
	DummyHash() string
}

// HashWaitObserver receives the time spent queueing for a hashing slot.
type HashWaitObserver interface {
	ObserveHashWait(time.Duration)
}

// BcryptHasher runs bcrypt with at most workers concurrent computations.
type BcryptHasher struct {
	cost     int
	slots    *semaphore.Weighted
	observer HashWaitObserver
	dummy    string
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher builds a hasher. workers <= 0 means a single slot.
func NewBcryptHasher(cost, workers int, observer HashWaitObserver) (*BcryptHasher, error) {
	if workers <= 0 {
		workers = 1
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate dummy secret: %w", err)
	}
	dummy, err := HashPassword(hex.EncodeToString(secret)[:MaxPasswordBytes/2], cost)
	if err != nil {
		return nil, fmt.Errorf("compute dummy hash: %w", err)
	}
	return &BcryptHasher{
		cost:     cost,
		slots:    semaphore.NewWeighted(int64(workers)),
		observer: observer,
		dummy:    dummy,
	}, nil
}

// Hash computes a bcrypt hash once a slot is free.
func (h *BcryptHasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.slots.Release(1)
	return HashPassword(plain, h.cost)
}

// Verify compares plain against hash once a slot is free. The error is
// non-nil only when ctx ends before a slot is obtained.
func (h *BcryptHasher) Verify(ctx context.Context, plain, hash string) (bool, error) {
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.slots.Release(1)
	return VerifyPassword(hash, plain), nil
}

// DummyHash implements PasswordHasher.
func (h *BcryptHasher) DummyHash() string {
	return h.dummy
}

func (h *BcryptHasher) acquire(ctx context.Context) error {
	start := time.Now()
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire hashing slot: %w", err)
	}
	if h.observer != nil {
		h.observer.ObserveHashWait(time.Since(start))
	}
	return nil
}
