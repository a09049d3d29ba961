// Package archive encrypts and persists the outputs of a billable attempt:
// the image pair and the extracted personal record. Everything for one
// attempt is sealed under a fresh random key; the key is returned to the
// caller and never retained here, so stored blobs are unreadable without
// the receipt handed to the external record keeper.
package archive

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"

	"docauth/internal/verify/models"
)

// BlobStore is where sealed image blobs land.
type BlobStore interface {
	Put(ctx context.Context, filename string, data []byte) error
	Get(ctx context.Context, filename string) ([]byte, error)
}

// Archiver implements ports.ImageArchiver.
type Archiver struct {
	blobs  BlobStore
	logger *slog.Logger
}

// Option configures the Archiver.
type Option func(*Archiver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) {
		a.logger = logger
	}
}

// New creates an image archiver.
func New(blobs BlobStore, opts ...Option) (*Archiver, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	a := &Archiver{blobs: blobs}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Archive seals both images, and the extracted record when one is present,
// under one fresh key and stores them. The returned receipt carries the only
// copy of the key.
func (a *Archiver) Archive(ctx context.Context, front, back *models.Image, record *models.PIIRecord) (*models.ArchivedImages, error) {
	if front == nil || back == nil {
		return nil, errors.New("both front and back images are required")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate archive key: %w", err)
	}

	pairID := uuid.NewString()
	receipt := &models.ArchivedImages{
		FrontFilename: pairID + "-front.bin",
		BackFilename:  pairID + "-back.bin",
		EncryptionKey: base64.StdEncoding.EncodeToString(key),
	}

	type pending struct {
		filename string
		bytes    []byte
	}
	blobs := []pending{
		{receipt.FrontFilename, front.Bytes},
		{receipt.BackFilename, back.Bytes},
	}
	if record != nil {
		encoded, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("encode extracted record: %w", err)
		}
		receipt.RecordFilename = pairID + "-record.bin"
		blobs = append(blobs, pending{receipt.RecordFilename, encoded})
	}

	for _, blob := range blobs {
		sealed, err := seal(key, blob.bytes)
		if err != nil {
			return nil, err
		}
		if err := a.blobs.Put(ctx, blob.filename, sealed); err != nil {
			return nil, fmt.Errorf("store archived blob: %w", err)
		}
	}

	if a.logger != nil {
		a.logger.InfoContext(ctx, "archived attempt images", "pair_id", pairID)
	}
	return receipt, nil
}

// Retrieve loads and opens one archived blob using the receipt's key.
func (a *Archiver) Retrieve(ctx context.Context, filename, encodedKey string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode archive key: %w", err)
	}
	sealed, err := a.blobs.Get(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("load archived image: %w", err)
	}
	return open(key, sealed)
}

// seal encrypts plaintext with XChaCha20-Poly1305, prepending the random
// nonce to the ciphertext.
func seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func open(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, errors.New("sealed blob too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open archived image: %w", err)
	}
	return plaintext, nil
}
