package chat

import (
	"path/filepath"
	"strings"
	"time"

	"shambachat/internal/pkg/errs"
)

const (
	// MaxUploadSizeMB is the maximum allowed media file size in megabytes.
	MaxUploadSizeMB = 5

	// MaxUploadSize is the maximum allowed media file size in bytes.
	MaxUploadSize = MaxUploadSizeMB * 1024 * 1024

	// MediaURLDuration is how long presigned media download URLs stay valid.
	MediaURLDuration = 5 * time.Minute
)

// AllowedMIMETypes is the set of media types accepted for chat uploads.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their expected MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateFileSize checks the uploaded size against the limit.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.New(errs.CodeInvalidParams)
	}

	if fileSize > MaxUploadSize {
		return errs.New(errs.CodeEntityTooLarge, MaxUploadSizeMB)
	}

	return nil
}

// ValidateFileType checks that the file name extension and declared MIME
// type agree and are both allowed.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.New(errs.CodeInvalidParams)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	expectedMIME, ok := ExtToMIME[ext]
	if !ok {
		return errs.New(errs.CodeInvalidParams)
	}

	if expectedMIME != lowerMimeType {
		return errs.New(errs.CodeInvalidParams)
	}

	return nil
}
