// Package chartimage holds the checks shared by every surface that accepts a chart
// image from outside: path confinement, data URL decoding and bounded reads.
package chartimage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrOutsideDir = errors.New("path is outside the chart directory")
	ErrTooLarge   = errors.New("image is too large")
)

// Confine resolves p against root and rejects anything that lands outside it, both
// lexically and after following symlinks. Paths that do not exist yet are checked
// lexically only.
func Confine(root, p string) (string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	full := filepath.Clean(p)
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	if !within(root, full) {
		return "", ErrOutsideDir
	}

	realFull, err := filepath.EvalSymlinks(full)
	if errors.Is(err, fs.ErrNotExist) {
		return full, nil
	}
	if err != nil {
		return "", err
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}
	if !within(realRoot, realFull) {
		return "", ErrOutsideDir
	}
	return realFull, nil
}

func within(root, full string) bool {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// DecodeDataURL splits a base64 data URL into its declared media type and payload.
// A positive limit rejects payloads that would decode to more than limit bytes
// before decoding them.
func DecodeDataURL(raw string, limit int64) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "data:")
	if !ok {
		return "", nil, errors.New("data url must start with data:")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, errors.New("data url must be base64 encoded")
	}
	if limit > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > limit+2 {
		return "", nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data url: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", nil, ErrTooLarge
	}
	return strings.TrimSuffix(meta, ";base64"), data, nil
}

// ReadAll reads r up to limit bytes and fails with ErrTooLarge past it. A limit of
// zero or less reads everything.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// ReadFile is ReadAll over the named file.
func ReadFile(name string, limit int64) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAll(f, limit)
}
