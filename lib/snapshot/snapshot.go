// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tcgref/tcgref/lib/codec"
	"github.com/tcgref/tcgref/lib/refdata"
)

const (
	magic      = "TCGS"
	version    = 1
	headerSize = 4 + 1 + 1 + 8

	// maxPayloadSize bounds the allocation a corrupt header can cause.
	maxPayloadSize = 1 << 30
)

// ErrFormat is returned (wrapped) for files that are not snapshots or
// are corrupt.
var ErrFormat = errors.New("snapshot: invalid format")

// document is the stored form: source fields plus publication metadata.
type document struct {
	Revision  uint64            `cbor:"revision"`
	UpdatedAt int64             `cbor:"updated_at"`
	Babel     refdata.Babel     `cbor:"babel"`
	Yard      refdata.Yard      `cbor:"yard"`
	Systrings refdata.Systrings `cbor:"systrings"`
	Banlists  refdata.Banlists  `cbor:"banlists"`
	BetaIDs   refdata.BetaIDs   `cbor:"beta_ids"`
	KonamiIDs refdata.KonamiIDs `cbor:"konami_ids"`
	Shortcuts refdata.Shortcuts `cbor:"shortcuts"`
	Pics      refdata.Pics      `cbor:"pics"`
}

// Encode serializes c.
func Encode(c *refdata.Context, compression Compression) ([]byte, error) {
	payload, err := codec.Marshal(document{
		Revision:  c.Revision,
		UpdatedAt: unixNano(c.UpdatedAt),
		Babel:     c.Babel,
		Yard:      c.Yard,
		Systrings: c.Systrings,
		Banlists:  c.Banlists,
		BetaIDs:   c.BetaIDs,
		KonamiIDs: c.KonamiIDs,
		Shortcuts: c.Shortcuts,
		Pics:      c.Pics,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	compressed, used, err := compress(payload, compression)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize, headerSize+len(compressed))
	copy(out, magic)
	out[4] = version
	out[5] = byte(used)
	binary.LittleEndian.PutUint64(out[6:], uint64(len(payload)))
	return append(out, compressed...), nil
}

// Decode parses a snapshot and rebuilds its derived indexes.
func Decode(data []byte) (*refdata.Context, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], []byte(magic)) {
		return nil, fmt.Errorf("%w: bad header", ErrFormat)
	}
	if data[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, data[4])
	}
	size := binary.LittleEndian.Uint64(data[6:headerSize])
	if size > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload size %d exceeds limit", ErrFormat, size)
	}
	payload, err := decompress(data[headerSize:], Compression(data[5]), int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	var doc document
	if err := codec.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	restored := refdata.Merge(refdata.Empty(), &refdata.Update{
		Babel:     &doc.Babel,
		Yard:      &doc.Yard,
		Systrings: &doc.Systrings,
		Banlists:  &doc.Banlists,
		BetaIDs:   &doc.BetaIDs,
		KonamiIDs: &doc.KonamiIDs,
		Shortcuts: &doc.Shortcuts,
		Pics:      &doc.Pics,
	})
	restored.Revision = doc.Revision
	if doc.UpdatedAt != 0 {
		restored.UpdatedAt = time.Unix(0, doc.UpdatedAt).UTC()
	}
	return restored, nil
}

// Save writes c to path atomically.
func Save(path string, c *refdata.Context, compression Compression) error {
	data, err := Encode(c, compression)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	temporary, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("installing snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot at path.
func Load(path string) (*refdata.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	restored, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return restored, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
