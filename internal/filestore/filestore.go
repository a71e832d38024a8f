package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists uploaded blobs and hands back a stable URL. Implementations
// must tolerate Delete on URLs they never issued.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// DiskStore writes blobs under a base directory and serves them by relative
// URL. Good enough for single-node deployments; swap the interface for an
// object store in clustered ones.
type DiskStore struct {
	baseDir string
	baseURL string
}

func NewDiskStore(baseDir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{baseDir: baseDir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (d *DiskStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	// Uploaded names are untrusted; only the extension survives.
	ext := filepath.Ext(filepath.Base(name))
	fileName := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(d.baseDir, fileName))
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	return d.baseURL + "/" + fileName, nil
}

func (d *DiskStore) Delete(ctx context.Context, url string) error {
	fileName := filepath.Base(url)
	if fileName == "." || fileName == "/" || fileName == "" {
		return nil
	}
	err := os.Remove(filepath.Join(d.baseDir, fileName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
