package cryptox

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// pepperSize is the entropy of a generated pepper, in bytes.
const pepperSize = 32

// The pepper is a server secret appended to every password before hashing.
var pepperState struct {
	sync.Mutex
	path  string
	value string
}

func init() {
	pepperState.path = "pepper"
}

// SetPepperPath sets the file the pepper is read from and forgets any
// pepper already loaded.
func SetPepperPath(file string) {
	pepperState.Lock()
	defer pepperState.Unlock()
	pepperState.path = file
	pepperState.value = ""
}

// GetPepper returns the pepper, loading or creating its file on first use.
// The process exits if that fails, since no stored hash could verify.
func GetPepper() string {
	pepperState.Lock()
	defer pepperState.Unlock()

	if pepperState.value == "" {
		v, err := readOrCreatePepper(pepperState.path)
		if err != nil {
			slog.Error("failed to load or generate pepper", slog.String("file", pepperState.path), slog.Any("err", err))
			os.Exit(1)
		}
		pepperState.value = v
	}
	return pepperState.value
}

func readOrCreatePepper(file string) (string, error) {
	file = filepath.Clean(file)

	b, err := os.ReadFile(file)
	switch {
	case err == nil:
		return string(b), nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return "", err
	}
	v, err := GenerateToken(pepperSize)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		// Another process created it after our read.
		b, err := os.ReadFile(file)
		return string(b), err
	}
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(v); err != nil {
		_ = f.Close()
		return "", err
	}
	return v, f.Close()
}
