package tokenstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	nonceSize  = 24
	sealPrefix = "sealed:"
)

// ErrSealedToken is returned when a sealed token file cannot be opened with
// the configured secret.
var ErrSealedToken = errors.New("tokenstore: cannot open sealed token")

// File stores the token in a single file with 0600 permissions. When a
// secret is set the token is sealed with NaCl secretbox under
// sha256(secret).
type File struct {
	path string
	key  *[32]byte
}

// NewFile returns a file store at path. An empty secret stores the token in
// plain text.
func NewFile(path, secret string) *File {
	f := &File{path: path}
	if secret != "" {
		key := sha256.Sum256([]byte(secret))
		f.key = &key
	}
	return f
}

func (f *File) Load(context.Context) (string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return "", nil
	}
	if !strings.HasPrefix(content, sealPrefix) {
		return content, nil
	}
	if f.key == nil {
		return "", ErrSealedToken
	}
	return f.open(strings.TrimPrefix(content, sealPrefix))
}

// Save writes the token to a temp file in the same directory and renames
// it over the old one.
func (f *File) Save(_ context.Context, token string) error {
	content := token
	if f.key != nil {
		sealed, err := f.seal(token)
		if err != nil {
			return err
		}
		content = sealPrefix + sealed
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod token file: %w", err)
	}
	if _, err := tmp.WriteString(content + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename token file: %w", err)
	}
	return nil
}

func (f *File) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func (f *File) seal(token string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, f.key)
	return hex.EncodeToString(box), nil
}

func (f *File) open(encoded string) (string, error) {
	box, err := hex.DecodeString(encoded)
	if err != nil || len(box) < nonceSize {
		return "", ErrSealedToken
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, f.key)
	if !ok {
		return "", ErrSealedToken
	}
	return string(plain), nil
}
