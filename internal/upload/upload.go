// Package upload stores uploaded images on local disk and serves them back
// under a fixed URL prefix.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// URLPrefix is the path under which stored assets are served.
const URLPrefix = "/uploads"

var ErrInvalidRef = errors.New("reference is not an upload")

// Sink persists binary payloads and hands back a stable reference.
type Sink interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ref string) error
}

type Disk struct {
	dir string
	now func() time.Time
}

// NewDisk creates dir if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir, now: time.Now}, nil
}

func (d *Disk) Dir() string { return d.dir }

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitize(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, ".")
	if base == "" {
		base = "file"
	}
	return base
}

// Save writes r to <dir>/<unix-millis>-<name>. Names are created exclusively;
// a clash bumps the timestamp until a free name is found.
func (d *Disk) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	base := sanitize(filename)
	stamp := d.now().UnixMilli()

	var (
		f    *os.File
		name string
		err  error
	)
	for i := 0; i < 100; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name = fmt.Sprintf("%d-%s", stamp+int64(i), base)
		f, err = os.OpenFile(filepath.Join(d.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create upload: %w", err)
		}
	}
	if f == nil {
		return "", fmt.Errorf("create upload: no free name for %q", base)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join(URLPrefix, name), nil
}

// Remove deletes the file behind ref. Empty refs are a no-op.
func (d *Disk) Remove(ref string) error {
	if ref == "" {
		return nil
	}
	name, ok := strings.CutPrefix(ref, URLPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if err := os.Remove(filepath.Join(d.dir, name)); err != nil {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
