package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/tidecast/tidecast/common/gerror"
)

type LocalBlobStoreDirectory string

func (l LocalBlobStoreDirectory) String() string {
	return string(l)
}

// LocalBlobStore keeps each blob as a file under a root directory. Keys use forward slashes
// regardless of platform; each key segment is escaped before being used as a file name.
type LocalBlobStore struct {
	path string
}

func NewLocalBlobStore(path LocalBlobStoreDirectory) *LocalBlobStore {
	return &LocalBlobStore{
		path: string(path),
	}
}

// PutBlob writes all data in the source reader to a blob identified by key, replacing any existing blob.
// The caller is responsible for closing the reader.
func (s *LocalBlobStore) PutBlob(ctx context.Context, key string, source io.Reader) error {
	blobPath, err := s.makeBlobPath(key)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(blobPath), 0700)
	if err != nil {
		return errors.Wrap(err, "error making blob directory")
	}
	blobFile, err := os.Create(blobPath)
	if err != nil {
		return errors.Wrapf(err, "error opening blob %s for writing", blobPath)
	}
	defer blobFile.Close()
	_, err = io.Copy(blobFile, source)
	if err != nil {
		return errors.Wrapf(err, "error writing data to blob %s", blobPath)
	}
	err = blobFile.Sync()
	if err != nil {
		return errors.Wrapf(err, "error syncing blob %s", blobPath)
	}
	return nil
}

// GetBlob returns a reader positioned at the beginning of the blob identified by key.
// The caller is responsible for closing the reader.
func (s *LocalBlobStore) GetBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	blobPath, err := s.makeBlobPath(key)
	if err != nil {
		return nil, err
	}
	blobFile, err := os.Open(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gerror.NewErrNotFound("Not Found").Wrap(err).IDetail("key", key)
		}
		return nil, errors.Wrapf(err, "error opening blob %s for reading", blobPath)
	}
	return blobFile, nil
}

// DeleteBlob deletes a blob. Returns nil if the blob does not exist.
func (s *LocalBlobStore) DeleteBlob(ctx context.Context, key string) error {
	blobPath, err := s.makeBlobPath(key)
	if err != nil {
		return err
	}
	err = os.Remove(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error deleting blob %s: %w", blobPath, err)
	}
	return nil
}

// makeBlobPath makes a path to a blob on the local filesystem.
func (s *LocalBlobStore) makeBlobPath(key string) (string, error) {
	err := ValidateKey(key)
	if err != nil {
		return "", err
	}
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.QueryEscape(part)
	}
	return filepath.Join(append([]string{s.path}, parts...)...), nil
}

// ValidateKey checks that key can name a blob in any blob store.
func ValidateKey(key string) error {
	if key == "" {
		return gerror.NewErrInvalidArgument("Blob key must be set")
	}
	if strings.HasPrefix(key, "/") {
		return gerror.NewErrInvalidArgument("Blob keys cannot begin with /").IDetail("key", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return gerror.NewErrInvalidArgument("Blob keys cannot contain ..").IDetail("key", key)
		}
	}
	return nil
}
