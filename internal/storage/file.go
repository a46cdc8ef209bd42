package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

var sealedMagic = []byte("MTK1")

const (
	saltSize  = 16
	nonceSize = 24
)

// ErrSealed means the file is sealed and the configured secret cannot open it.
var ErrSealed = errors.New("storage file is sealed with a different secret")

// FileStore keeps all values in one JSON document on disk. When a secret is
// configured the document is sealed with secretbox under an argon2id key.
type FileStore struct {
	mu     sync.Mutex
	path   string
	secret []byte
	values map[string]string
	closed bool
}

// NewFileStore loads (or creates on first write) the document at path.
func NewFileStore(path, secret string) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}
	if secret != "" {
		fs.secret = []byte(secret)
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Sealed reports whether values are encrypted at rest.
func (f *FileStore) Sealed() bool {
	return len(f.secret) > 0
}

func (f *FileStore) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read storage file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	if bytes.HasPrefix(raw, sealedMagic) {
		if !f.Sealed() {
			return ErrSealed
		}
		raw, err = f.open(raw)
		if err != nil {
			return err
		}
	}

	if err := json.Unmarshal(raw, &f.values); err != nil {
		return fmt.Errorf("decode storage file: %w", err)
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	return nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	val, ok := f.values[key]
	return val, ok, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.values[key] = value
	return f.flush()
}

func (f *FileStore) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(f.values, k)
	}
	return f.flush()
}

func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// flush writes the document through a temp file and rename. Caller holds mu.
func (f *FileStore) flush() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return err
	}
	if f.Sealed() {
		data, err = f.seal(data)
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".miniticker-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) deriveKey(salt []byte) *[32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey(f.secret, salt, 1, 64*1024, 2, 32))
	return &key
}

func (f *FileStore) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(sealedMagic)+saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, sealedMagic...)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, f.deriveKey(salt)), nil
}

func (f *FileStore) open(sealed []byte) ([]byte, error) {
	body := sealed[len(sealedMagic):]
	if len(body) < saltSize+nonceSize+secretbox.Overhead {
		return nil, ErrSealed
	}
	salt := body[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], body[saltSize:saltSize+nonceSize])

	plain, ok := secretbox.Open(nil, body[saltSize+nonceSize:], &nonce, f.deriveKey(salt))
	if !ok {
		return nil, ErrSealed
	}
	return plain, nil
}
