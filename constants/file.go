package constants

import "strings"

// Document formats the text extractor knows how to handle.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	DOCX  = "DOCX"
)

// ContentTypeDocx is the MIME type Word sends for .docx attachments.
const ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// supportedContentTypes are the attachment MIME types worth feeding to extraction.
var supportedContentTypes = map[string]string{
	"application/pdf": PDF,
	"image/jpeg":      IMAGE,
	"image/jpg":       IMAGE,
	"image/png":       IMAGE,
	"image/tiff":      IMAGE,
	"image/bmp":       IMAGE,
	ContentTypeDocx:   DOCX,
}

// MapContentTypeToFormat returns the extraction format for a MIME type,
// or "" when the type is unsupported.
func MapContentTypeToFormat(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return supportedContentTypes[ct]
}

// extensionFormats backs MIME-type detection when providers send generic
// content types like application/octet-stream.
var extensionFormats = map[string]string{
	".pdf":  PDF,
	".jpeg": IMAGE,
	".jpg":  IMAGE,
	".png":  IMAGE,
	".tiff": IMAGE,
	".bmp":  IMAGE,
	".docx": DOCX,
}

// MapExtensionToFormat returns the extraction format for a filename, or ""
// when the extension is unsupported.
func MapExtensionToFormat(filename string) string {
	name := strings.ToLower(filename)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return extensionFormats[name[i:]]
	}
	return ""
}

// DetectFormat resolves an attachment's extraction format, by MIME type first
// and filename extension as a fallback.
func DetectFormat(filename, contentType string) string {
	if f := MapContentTypeToFormat(contentType); f != "" {
		return f
	}
	return MapExtensionToFormat(filename)
}

// IsSupportedAttachment reports whether an attachment is processable.
func IsSupportedAttachment(filename, contentType string) bool {
	return DetectFormat(filename, contentType) != ""
}
