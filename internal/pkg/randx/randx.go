/*
Package randx generates the unique identifiers used by the chat and media
subsystems.
*/
package randx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MessageID returns a UUID v4 string used as a chat message identifier.
func MessageID() string {
	return uuid.New().String()
}

// MediaID returns a UUID v4 string used as a media object identifier.
func MediaID() string {
	return uuid.New().String()
}

// ObjectKey builds the storage key for a media upload, scoped under its
// conversation thread: "<threadID>/<uuid><ext>". The extension is taken
// from fileName and lowercased.
func ObjectKey(threadID int64, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%d/%s%s", threadID, uuid.New().String(), ext)
}
