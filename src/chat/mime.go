package chat

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MIME lookup tables for the attachment types the engines care about.
var (
	mimeExtMap = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".mp3":  "audio/mpeg",
		".wav":  "audio/wav",
		".ogg":  "audio/ogg",
		".m4a":  "audio/mp4",
		".txt":  "text/plain",
		".log":  "text/plain",
		".md":   "text/markdown",
		".json": "application/json",
		".yaml": "application/x-yaml",
		".yml":  "application/x-yaml",
		".xml":  "application/xml",
	}

	mimeAliasMap = map[string]string{
		"image/jpg":   "image/jpeg",
		"image/pjpeg": "image/jpeg",
		"image/x-png": "image/png",
		"audio/x-wav": "audio/wav",
		"audio/mp3":   "audio/mpeg",
	}
)

// normalizeMIME fixes messy or aliased MIME declarations and falls back to
// the file extension.
func normalizeMIME(name, declared string) string {
	strip := func(s string) string {
		if i := strings.IndexByte(s, ';'); i >= 0 {
			return strings.TrimSpace(s[:i])
		}
		return strings.TrimSpace(s)
	}

	fromExt := func() string {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			return ""
		}
		if mt, ok := mimeExtMap[ext]; ok {
			return mt
		}
		if mt := mime.TypeByExtension(ext); mt != "" {
			return strip(mt)
		}
		return ""
	}

	raw := strip(strings.ToLower(declared))
	if raw == "" {
		return fromExt()
	}
	if normalized, ok := mimeAliasMap[raw]; ok {
		return normalized
	}
	// Malformed declaration: trust the extension instead.
	if !strings.Contains(raw, "/") || strings.HasSuffix(raw, "/") {
		if via := fromExt(); via != "" {
			return via
		}
	}
	return raw
}

func isImageMIME(m string) bool { return strings.HasPrefix(m, "image/") }
func isAudioMIME(m string) bool { return strings.HasPrefix(m, "audio/") }

func isTextMIME(m string) bool {
	if m == "" {
		return false
	}
	if strings.HasPrefix(m, "text/") {
		return true
	}
	switch m {
	case "application/json", "application/xml", "application/x-yaml", "application/yaml":
		return true
	default:
		return false
	}
}

// InlineTextAttachments appends the content of text attachments to a
// prompt so providers without file upload still see them. Non-text
// attachments are referenced by name only; the engines attach those
// natively.
func InlineTextAttachments(base string, attachments []Attachment) string {
	var textFiles []Attachment
	for _, a := range attachments {
		if a.IsText() && len(a.Data) > 0 {
			textFiles = append(textFiles, a)
		}
	}
	if len(textFiles) == 0 {
		return base
	}

	var b strings.Builder
	b.Grow(len(base) + 128)
	b.WriteString(base)
	b.WriteString("\n\n---\nATTACHED FILES: BEGIN\n")
	for i, a := range textFiles {
		title := strings.TrimSpace(a.Name)
		if title == "" {
			title = fmt.Sprintf("file_%d", i+1)
		}
		b.WriteString("\n<<<FILE ")
		b.WriteString(title)
		b.WriteString(">>>\n")
		b.Write(a.Data)
		b.WriteString("\n<<<END FILE ")
		b.WriteString(title)
		b.WriteString(">>>\n")
	}
	b.WriteString("ATTACHED FILES: END\n---\n")
	return b.String()
}
