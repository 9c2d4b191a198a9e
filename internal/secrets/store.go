// Package secrets keeps API bearer tokens out of the config file. Tokens
// are sealed with AES-GCM under a per-user key and written 0600; this keeps
// them from sitting in plain text, it is not a keychain.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const fileName = "tokens.json"

// ErrNotFound is returned when no token is stored for a server.
var ErrNotFound = errors.New("token not found")

type entry struct {
	Sealed  string    `json:"sealed"` // base64(nonce || ciphertext)
	SavedAt time.Time `json:"saved_at"`
}

type tokenFile struct {
	Servers map[string]entry `json:"servers"`
}

// Store reads and writes tokens.json inside Dir.
type Store struct {
	Dir string
	now func() time.Time
}

// Default is the store under the user config directory.
func Default() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("secrets: config dir: %w", err)
	}
	return &Store{Dir: filepath.Join(dir, "tariffdesk")}, nil
}

// Put seals token for server, replacing any previous one.
func (s *Store) Put(server, token string) error {
	key, err := serverKey(server)
	if err != nil {
		return err
	}
	f, err := s.read()
	if err != nil {
		return err
	}
	sealed, err := seal([]byte(token))
	if err != nil {
		return err
	}
	f.Servers[key] = entry{Sealed: base64.StdEncoding.EncodeToString(sealed), SavedAt: s.clock().UTC()}
	return s.write(f)
}

// Get returns the token for server or ErrNotFound.
func (s *Store) Get(server string) (string, error) {
	key, err := serverKey(server)
	if err != nil {
		return "", err
	}
	f, err := s.read()
	if err != nil {
		return "", err
	}
	e, ok := f.Servers[key]
	if !ok {
		return "", ErrNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(e.Sealed)
	if err != nil {
		return "", fmt.Errorf("secrets: decode %s: %w", key, err)
	}
	plain, err := open(raw)
	if err != nil {
		return "", fmt.Errorf("secrets: open %s: %w", key, err)
	}
	return string(plain), nil
}

// Delete forgets server. Deleting an unknown server is not an error.
func (s *Store) Delete(server string) error {
	key, err := serverKey(server)
	if err != nil {
		return err
	}
	f, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := f.Servers[key]; !ok {
		return nil
	}
	delete(f.Servers, key)
	return s.write(f)
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Store) path() string { return filepath.Join(s.Dir, fileName) }

func (s *Store) read() (tokenFile, error) {
	f := tokenFile{Servers: map[string]entry{}}
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("secrets: read: %w", err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("secrets: parse %s: %w", s.path(), err)
	}
	if f.Servers == nil {
		f.Servers = map[string]entry{}
	}
	return f, nil
}

func (s *Store) write(f tokenFile) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("secrets: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("secrets: write: %w", err)
	}
	return os.Rename(tmp, s.path())
}

// serverKey normalizes a base URL so "HTTP://Host:8080/" and
// "http://host:8080" share a token.
func serverKey(server string) (string, error) {
	s := strings.TrimSpace(server)
	if s == "" {
		return "", errors.New("secrets: server required")
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(s), "/"), nil
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + strings.TrimRight(u.Path, "/"), nil
}

// StoreToken saves token for server in the default store.
func StoreToken(server, token string) error {
	s, err := Default()
	if err != nil {
		return err
	}
	return s.Put(server, token)
}

// FetchToken reads the token for server from the default store.
func FetchToken(server string) (string, error) {
	s, err := Default()
	if err != nil {
		return "", err
	}
	return s.Get(server)
}

// DeleteToken removes server from the default store.
func DeleteToken(server string) error {
	s, err := Default()
	if err != nil {
		return err
	}
	return s.Delete(server)
}

func userKey() []byte {
	sum := sha256.Sum256([]byte("tariffdesk-" + runtime.GOOS + "-" + os.Getenv("USER")))
	return sum[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(userKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func open(sealed []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	return gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
}
