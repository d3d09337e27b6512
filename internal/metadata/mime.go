package metadata

import (
	"mime"
	"path/filepath"
	"strings"
)

// AudiobookExtension is always treated as audio, whatever the host mime
// database says about it.
const AudiobookExtension = ".m4b"

// AudiobookMimeType is the type reported for AudiobookExtension.
const AudiobookMimeType = "audio/x-m4b"

var builtinMIMETypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".wma":  "audio/x-ms-wma",
	".mka":  "audio/x-matroska",
}

// ResolveMimeType infers a MIME type from the extension of path.
func ResolveMimeType(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	if ext == AudiobookExtension {
		return AudiobookMimeType, true
	}
	if value, ok := builtinMIMETypes[ext]; ok {
		return value, true
	}
	if value := mime.TypeByExtension(ext); value != "" {
		return value, true
	}
	return "", false
}

// IsAudio reports whether path should become an episode.
func IsAudio(path string) bool {
	if strings.EqualFold(filepath.Ext(path), AudiobookExtension) {
		return true
	}
	mimeType, ok := ResolveMimeType(path)
	return ok && strings.Contains(mimeType, "audio")
}
