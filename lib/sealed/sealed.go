// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/tcgref/tcgref/lib/secret"
)

// Suffix marks a secret file as age-encrypted.
const Suffix = ".age"

// ErrNoIdentity is returned when an encrypted secret is read without
// an identity configured.
var ErrNoIdentity = errors.New("sealed: encrypted secret requires an age identity")

// Keypair is an x25519 keypair. PrivateKey holds the AGE-SECRET-KEY-1
// string; PublicKey the age1 recipient string.
type Keypair struct {
	PrivateKey *secret.Buffer
	PublicKey  string
}

// Close releases the private key memory.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair creates a fresh x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("protecting age identity: %w", err)
	}
	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// ReadIdentity reads an age identity file. Comment lines (starting
// with "#", as written by age-keygen) are skipped; the first
// AGE-SECRET-KEY line is returned.
func ReadIdentity(path string) (*secret.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading age identity %s: %w", path, err)
	}
	defer secret.Zero(data)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := age.ParseX25519Identity(line); err != nil {
			return nil, fmt.Errorf("parsing age identity %s: %w", path, err)
		}
		return secret.NewFromBytes([]byte(line))
	}
	return nil, fmt.Errorf("age identity file %s contains no key", path)
}

// Encrypt encrypts plaintext to the given age1 recipients and returns
// an ASCII-armored file body.
func Encrypt(plaintext []byte, recipientKeys []string) ([]byte, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("sealed: at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var output bytes.Buffer
	armorWriter := armor.NewWriter(&output)
	writer, err := age.Encrypt(armorWriter, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return output.Bytes(), nil
}

// Decrypt decrypts an age file body (armored or binary) with the
// given identity. The identity buffer is borrowed, not closed.
func Decrypt(ciphertext []byte, identity *secret.Buffer) (*secret.Buffer, error) {
	if identity == nil {
		return nil, ErrNoIdentity
	}
	parsed, err := age.ParseX25519Identity(identity.String())
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}

	var source io.Reader = bytes.NewReader(ciphertext)
	if bytes.HasPrefix(bytes.TrimSpace(ciphertext), []byte(armor.Header)) {
		source = armor.NewReader(bytes.NewReader(ciphertext))
	}

	reader, err := age.Decrypt(source, parsed)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("reading plaintext: %w", err)
	}
	return secret.FromBytes(plaintext, "decrypted payload")
}

// ReadSecretFile reads a secret from path. Paths ending in [Suffix]
// are decrypted with identity; any other path is read as plaintext and
// identity is ignored.
func ReadSecretFile(path string, identity *secret.Buffer) (*secret.Buffer, error) {
	if !strings.HasSuffix(path, Suffix) {
		return secret.ReadFile(path)
	}
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sealed secret %s: %w", path, err)
	}
	buffer, err := Decrypt(ciphertext, identity)
	if err != nil {
		return nil, fmt.Errorf("sealed secret %s: %w", path, err)
	}
	return buffer, nil
}
