package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meridianbio/labintake/internal/core/domain"
)

const DefaultMaxDocumentBytes = 50 << 20 // 50MB

var supportedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".txt":  {},
	".doc":  {},
	".rtf":  {},
}

// IsSupportedDocument reports whether the file extension is one the pipeline
// can extract text from.
func IsSupportedDocument(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FileValidator performs cheap structural checks before any extraction work.
// Failures are domain.ErrValidation kinds and are never retried: a bad file
// does not get better.
type FileValidator struct {
	maxBytes int64
}

func NewFileValidator(maxBytes int64) *FileValidator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	return &FileValidator{maxBytes: maxBytes}
}

// Check runs the checks in order and short-circuits on the first failure:
// exists, supported extension, size bound, first 1KB readable.
func (v *FileValidator) Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.WrapError(domain.ErrValidation, "stat document", fmt.Errorf("file does not exist: %s", path))
		}
		return domain.WrapError(domain.ErrValidation, "stat document", err)
	}
	if info.IsDir() {
		return domain.WrapError(domain.ErrValidation, "stat document", fmt.Errorf("path is a directory: %s", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedExtensions[ext]; !ok {
		return domain.WrapError(domain.ErrValidation, "check extension", fmt.Errorf("unsupported file type %q", ext))
	}

	if info.Size() > v.maxBytes {
		return domain.WrapError(domain.ErrValidation, "check size",
			fmt.Errorf("file is %d bytes, maximum is %d", info.Size(), v.maxBytes))
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.WrapError(domain.ErrValidation, "open document", err)
	}
	defer f.Close()

	probe := make([]byte, 1024)
	if _, err := f.Read(probe); err != nil && err != io.EOF {
		return domain.WrapError(domain.ErrValidation, "read document head", err)
	}
	return nil
}
