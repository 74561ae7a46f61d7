// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tcgref/tcgref/lib/refdata"
	"github.com/tcgref/tcgref/lib/testutil"
)

func sampleContext() *refdata.Context {
	babel := make(refdata.Babel, 200)
	for index := range babel {
		babel[index] = refdata.Card{ID: int64(index + 1), Name: fmt.Sprintf("Card %d", index+1), Description: "A repetitive description that compresses well."}
	}
	published := refdata.Merge(refdata.Empty(), &refdata.Update{
		Babel:     &babel,
		Yard:      &refdata.Yard{Constants: []refdata.Constant{{Name: "TYPE_SPELL", Enum: "type", Value: 2}}},
		Systrings: &refdata.Systrings{{Kind: "system", Value: 1000, Name: "Draw"}},
		Banlists:  &refdata.Banlists{{Name: "TCG", Cards: map[int64]int64{1: 0, 2: 1}}},
		BetaIDs:   &refdata.BetaIDs{100001: 1},
		KonamiIDs: &refdata.KonamiIDs{1: {OCG: 4001, TCG: 4002}},
		Shortcuts: &refdata.Shortcuts{"rabit": "Silhouhatte Rabbit"},
		Pics:      &refdata.Pics{Sources: map[string]string{"default": "https://pics.example/{id}.jpg"}},
	})
	published.Revision = 7
	published.UpdatedAt = time.Date(2026, 5, 4, 3, 2, 1, 123456789, time.UTC)
	return published
}

func TestEncodeDecodeEveryCompression(t *testing.T) {
	original := sampleContext()
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			data, err := Encode(original, compression)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got := Compression(data[5]); got != compression {
				t.Errorf("stored compression = %s, want %s", got, compression)
			}
			restored, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(original, restored, cmpopts.IgnoreFields(refdata.Context{}, "BitNames")); diff != "" {
				t.Errorf("context mismatch (-want +got):\n%s", diff)
			}
			if !restored.BitNames.Equal(original.BitNames) {
				t.Error("derived bit names not rebuilt")
			}
		})
	}
}

func TestIncompressiblePayloadStoredRaw(t *testing.T) {
	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		payload, used, err := compress([]byte("x"), compression)
		if err != nil {
			t.Fatalf("compress(%s): %v", compression, err)
		}
		if used != CompressionNone || string(payload) != "x" {
			t.Errorf("compress(%s) = %q as %s, want raw", compression, payload, used)
		}
	}
}

func TestDecodeRejectsCorruptData(t *testing.T) {
	valid, err := Encode(sampleContext(), CompressionLZ4)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 9
	truncated := valid[:len(valid)/2]

	for name, data := range map[string][]byte{
		"empty":       nil,
		"wrong magic": []byte("JSON{}........"),
		"bad version": badVersion,
		"truncated":   truncated,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(data); !errors.Is(err, ErrFormat) {
				t.Errorf("Decode error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "context.snap")
	if err := Save(path, sampleContext(), CompressionZstd); err != nil {
		t.Fatalf("Save: %v", err)
	}
	restored, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.Revision != 7 || len(restored.Babel) != 200 {
		t.Errorf("restored revision %d with %d cards", restored.Revision, len(restored.Babel))
	}
}

func TestParseCompression(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		compression, err := ParseCompression(name)
		if err != nil || compression.String() != name {
			t.Errorf("ParseCompression(%q) = %v, %v", name, compression, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression(gzip) succeeded")
	}
}

func TestWriterSavesLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.snap")
	saved := make(chan uint64, 8)
	writer := NewWriter(WriterConfig{
		Path:        path,
		Compression: CompressionLZ4,
		OnSaved:     func(revision uint64) { saved <- revision },
	})

	first := sampleContext()
	second := *first
	second.Revision = 8
	writer.Offer(first)
	writer.Offer(&second)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		writer.Run(ctx)
	}()

	if revision := testutil.RequireReceive(t, saved, 5*time.Second, "nothing saved"); revision != 8 {
		t.Errorf("saved revision %d, want the newest (8)", revision)
	}
	cancel()
	testutil.RequireClosed(t, stopped, 5*time.Second, "writer did not stop")

	restored, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.Revision != 8 {
		t.Errorf("file holds revision %d, want 8", restored.Revision)
	}
}
