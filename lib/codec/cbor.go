// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode(cbor.CoreDetEncOptions())
	decMode = mustDecMode(cbor.DecOptions{
		// Untyped maps decode the way encoding/json would produce them.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// A snapshot with a repeated key is corrupt, not ambiguous.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
		// The card table is the largest array in a snapshot.
		MaxArrayElements: 1 << 20,
	})
)

func mustEncMode(options cbor.EncOptions) cbor.EncMode {
	mode, err := options.EncMode()
	if err != nil {
		panic("codec: CBOR encoder options: " + err.Error())
	}
	return mode
}

func mustDecMode(options cbor.DecOptions) cbor.DecMode {
	mode, err := options.DecMode()
	if err != nil {
		panic("codec: CBOR decoder options: " + err.Error())
	}
	return mode
}

// Marshal encodes v with Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Trailing bytes after the first
// item are an error.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
