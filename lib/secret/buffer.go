// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds secret bytes in an anonymous mmap region that is locked
// in memory and excluded from core dumps. A Buffer must not be copied
// after creation. Reading a closed Buffer panics.
type Buffer struct {
	mu     sync.Mutex
	region []byte
	length int
	closed bool
}

// lockedRegion maps size bytes that never reach swap or a core file.
func lockedRegion(size int) ([]byte, error) {
	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}
	if err := unix.Mlock(region); err != nil {
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}
	if err := unix.Madvise(region, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(region)
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: madvise: %w", err)
	}
	return region, nil
}

// New allocates a zeroed Buffer of size bytes.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}
	region, err := lockedRegion(size)
	if err != nil {
		return nil, err
	}
	return &Buffer{region: region, length: size}, nil
}

// NewFromBytes moves source into a new Buffer; source is zeroed.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, errors.New("secret: cannot create buffer from empty source")
	}
	buffer, err := New(len(source))
	if err != nil {
		Zero(source)
		return nil, err
	}
	copy(buffer.region, source)
	Zero(source)
	return buffer, nil
}

func (b *Buffer) view() []byte {
	if b.closed {
		panic("secret: read from closed buffer")
	}
	return b.region[:b.length]
}

// Bytes returns the secret. The slice aliases the locked region and
// must not outlive the Buffer.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view()
}

// String returns a heap copy of the secret, for APIs that only take
// strings (HTTP headers, age identities).
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.view())
}

// Len returns the size of the secret in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}

// Close zeroes and releases the region. Idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	Zero(b.region)

	err := errors.Join(unix.Munlock(b.region), unix.Munmap(b.region))
	b.region = nil
	if err != nil {
		return fmt.Errorf("secret: releasing buffer: %w", err)
	}
	return nil
}

// Zero overwrites data with zero bytes.
func Zero(data []byte) {
	clear(data)
}
