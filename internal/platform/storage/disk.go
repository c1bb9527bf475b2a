// Package storage persists uploaded files under a local directory.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Disk stores files beneath a root directory. Stored names combine a
// timestamp with a random suffix so concurrent uploads of the same
// file name never collide.
type Disk struct {
	root string
	now  func() time.Time
}

// NewDisk constructs a Disk sink rooted at dir.
func NewDisk(dir string) *Disk {
	return &Disk{root: dir, now: time.Now}
}

// Save writes src into subdir and returns the generated file name.
func (d *Disk) Save(subdir, suggestedName string, src io.Reader) (string, error) {
	target := filepath.Join(d.root, subdir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("platform/storage: mkdir: %w", err)
	}

	name := d.generateName(suggestedName)
	f, err := os.Create(filepath.Join(target, name))
	if err != nil {
		return "", fmt.Errorf("platform/storage: create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return "", fmt.Errorf("platform/storage: write: %w", err)
	}
	return name, nil
}

// Remove deletes a previously stored file. Missing files are not an error.
func (d *Disk) Remove(subdir, name string) error {
	err := os.Remove(filepath.Join(d.root, subdir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("platform/storage: remove: %w", err)
	}
	return nil
}

func (d *Disk) generateName(suggested string) string {
	ext := strings.ToLower(filepath.Ext(suggested))
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return d.now().Format("20060102150405") + hex.EncodeToString(buf) + ext
}
