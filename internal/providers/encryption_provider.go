package providers

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/crypto/argon2"

	"fbd/internal/structures"
)

// ErrEncryptionUnavailable is returned when no self-encryption capability
// (local secret or delegated signer) is configured.
var ErrEncryptionUnavailable = errors.New("encryption unavailable")

// ErrDecryptionFailed covers ciphertext that cannot be opened with the
// active capability.
var ErrDecryptionFailed = errors.New("decryption failed")

// EncryptionProviderInterface is the self-encryption capability: both
// operations address the caller's own identity, and for a given identity
// and backend DecryptSelf(EncryptSelf(x)) == x within a session.
type EncryptionProviderInterface interface {
	EncryptSelf(identity string, plaintext []byte) ([]byte, error)
	DecryptSelf(identity string, ciphertext []byte) ([]byte, error)
}

const (
	ModeLocal     = "local"
	ModeDelegated = "delegated"
)

func NewEncryptionProvider(conf *structures.Config, logger Logger) EncryptionProviderInterface {
	switch conf.Encryption.Mode {
	case ModeDelegated:
		if conf.Encryption.SignerURL == "" {
			logger.Warnf(TypeApp, "Delegated encryption selected but no signer URL configured")
			return &unavailableEncryption{}
		}
		logger.Infof(TypeApp, "Encryption backend: delegated signer at %s", conf.Encryption.SignerURL)
		return &delegatedEncryption{
			signerURL: conf.Encryption.SignerURL,
			client:    &http.Client{Timeout: 10 * time.Second},
		}
	default:
		secret, err := os.ReadFile(conf.Encryption.KeyFile)
		if err != nil || len(bytes.TrimSpace(secret)) == 0 {
			logger.Warnf(TypeApp, "Local encryption selected but key file is unusable: %v", err)
			return &unavailableEncryption{}
		}
		logger.Infof(TypeApp, "Encryption backend: local secret")
		return &localEncryption{secret: bytes.TrimSpace(secret)}
	}
}

// localEncryption derives a per-identity AES-256 key from the held secret
// via argon2id and seals with AES-GCM. Wire format: nonce || ciphertext.
type localEncryption struct {
	secret []byte
}

func (l *localEncryption) gcm(identity string) (cipher.AEAD, error) {
	key := argon2.IDKey(l.secret, []byte("fbd:"+identity), 1, 64*1024, 4, 32)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (l *localEncryption) EncryptSelf(identity string, plaintext []byte) ([]byte, error) {
	aesgcm, err := l.gcm(identity)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return append(nonce, aesgcm.Seal(nil, nonce, plaintext, nil)...), nil
}

func (l *localEncryption) DecryptSelf(identity string, ciphertext []byte) ([]byte, error) {
	aesgcm, err := l.gcm(identity)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: short ciphertext", ErrDecryptionFailed)
	}
	nonce, sealed := ciphertext[:aesgcm.NonceSize()], ciphertext[aesgcm.NonceSize():]
	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// delegatedEncryption forwards both operations to an external signer
// service holding the identity's key material.
type delegatedEncryption struct {
	signerURL string
	client    *http.Client
}

type signerRequest struct {
	Identity string `json:"identity"`
	Data     []byte `json:"data"`
}

type signerResponse struct {
	Data []byte `json:"data"`
}

func (d *delegatedEncryption) call(op, identity string, data []byte) ([]byte, error) {
	body, err := json.Marshal(&signerRequest{Identity: identity, Data: data})
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Post(d.signerURL+"/"+op, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: signer unreachable: %v", ErrEncryptionUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if op == "decrypt" {
			return nil, fmt.Errorf("%w: signer status %d", ErrDecryptionFailed, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: signer status %d", ErrEncryptionUnavailable, resp.StatusCode)
	}
	var sr signerResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: bad signer response: %v", ErrDecryptionFailed, err)
	}
	return sr.Data, nil
}

func (d *delegatedEncryption) EncryptSelf(identity string, plaintext []byte) ([]byte, error) {
	return d.call("encrypt", identity, plaintext)
}

func (d *delegatedEncryption) DecryptSelf(identity string, ciphertext []byte) ([]byte, error) {
	return d.call("decrypt", identity, ciphertext)
}

type unavailableEncryption struct{}

func (u *unavailableEncryption) EncryptSelf(string, []byte) ([]byte, error) {
	return nil, ErrEncryptionUnavailable
}

func (u *unavailableEncryption) DecryptSelf(string, []byte) ([]byte, error) {
	return nil, ErrEncryptionUnavailable
}
