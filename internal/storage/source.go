package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/propertybot/internal/domain"
)

// SourceOpener opens bulk import files from the local filesystem or, for
// s3:// sources, from object storage.
type SourceOpener struct {
	s3      *S3Client
	baseDir string
}

// NewSourceOpener creates a SourceOpener. s3 may be nil, in which case s3://
// sources are rejected. Relative local paths resolve against baseDir.
func NewSourceOpener(s3 *S3Client, baseDir string) *SourceOpener {
	return &SourceOpener{s3: s3, baseDir: baseDir}
}

func (o *SourceOpener) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, domain.ErrImportSourceMissing
	}

	if strings.HasPrefix(source, "s3://") {
		return o.openS3(ctx, source)
	}
	return o.openFile(source)
}

func (o *SourceOpener) openS3(ctx context.Context, source string) (io.ReadCloser, error) {
	if o.s3 == nil {
		return nil, fmt.Errorf("object storage is not configured, cannot open %s", source)
	}

	bucket, key, err := ParseS3URI(source)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid import source", err)
	}

	meta, err := o.s3.HeadObject(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, domain.ErrImportSourceMissing.Wrap(err)
		}
		return nil, err
	}
	log.Printf("import: opening %s (%d bytes)", source, meta.ContentLength)

	body, err := o.s3.GetObject(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, domain.ErrImportSourceMissing.Wrap(err)
		}
		return nil, err
	}
	return body, nil
}

func (o *SourceOpener) openFile(source string) (io.ReadCloser, error) {
	path := source
	if !filepath.IsAbs(path) && o.baseDir != "" {
		path = filepath.Join(o.baseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrImportSourceMissing.Wrap(err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err == nil && info.IsDir() {
		f.Close()
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "import source is a directory")
	}
	return f, nil
}
