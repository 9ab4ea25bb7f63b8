package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Sealed layout: magic | salt | nonce | AES-256-GCM ciphertext.
var magic = []byte("NSB1")

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

var (
	ErrNotBackup     = errors.New("not an encrypted backup")
	ErrBadPassphrase = errors.New("wrong passphrase or corrupted backup")
)

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext with a key derived from passphrase and a fresh salt.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	header := make([]byte, len(magic)+saltSize+nonceSize)
	copy(header, magic)
	if _, err := io.ReadFull(rand.Reader, header[len(magic):]); err != nil {
		return nil, fmt.Errorf("generate salt and nonce: %w", err)
	}
	salt := header[len(magic) : len(magic)+saltSize]
	nonce := header[len(magic)+saltSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(header, nonce, plaintext, magic), nil
}

// Open reverses Seal.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	headerLen := len(magic) + saltSize + nonceSize
	if len(sealed) < headerLen || !bytes.Equal(sealed[:len(magic)], magic) {
		return nil, ErrNotBackup
	}
	salt := sealed[len(magic) : len(magic)+saltSize]
	nonce := sealed[len(magic)+saltSize : headerLen]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, sealed[headerLen:], magic)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	return plaintext, nil
}
