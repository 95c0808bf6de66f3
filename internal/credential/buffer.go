// Package credential holds the target user's secret for the short window
// between acquisition and delegation. The backing memory lives outside the
// Go heap (mmap), is locked against swap (mlock), excluded from core dumps
// (MADV_DONTDUMP), and zeroed on Close. The secret is never written to
// disk, never placed in argv or the environment, and never logged.
package credential

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var ErrNoCredential = errors.New("no credential supplied")

// Buffer is a fixed-size secret container. Close zeroes and releases it;
// every acquisition path must arrange Close via defer so the secret is
// wiped on success, failure and early return alike.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	length int
	closed bool
}

func newBuffer(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("credential: buffer size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("credential: mmap: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("credential: mlock: %w", err)
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		_ = unix.Munlock(data)
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("credential: madvise: %w", err)
	}

	return &Buffer{data: data, length: size}, nil
}

// NewFromBytes copies source into locked memory and zeroes source in
// place, so the caller's slice no longer holds the secret.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, ErrNoCredential
	}
	b, err := newBuffer(len(source))
	if err != nil {
		Zero(source)
		return nil, err
	}
	copy(b.data, source)
	Zero(source)
	return b, nil
}

// Bytes returns the secret. The slice aliases the locked region; do not
// retain it past the Buffer's lifetime. Panics after Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("credential: read from closed buffer")
	}
	return b.data[:b.length]
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}

// Close zeroes the contents and releases the mapping. Idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.data)

	var first error
	if err := unix.Munlock(b.data); err != nil {
		first = fmt.Errorf("credential: munlock: %w", err)
	}
	if err := unix.Munmap(b.data); err != nil && first == nil {
		first = fmt.Errorf("credential: munmap: %w", err)
	}
	b.data = nil
	return first
}

// Zero overwrites a byte slice.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
