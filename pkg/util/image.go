package util

import (
	"encoding/base64"
	"errors"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const MaxImageSize = 10 * 1024 * 1024

var (
	ErrImageEncoding     = errors.New("image must be a base64 data URI")
	ErrImageType         = errors.New("image must be jpeg, png, gif or webp")
	ErrImageTooLarge     = errors.New("image exceeds 10MB")
	ErrImageEmptyPayload = errors.New("image payload is empty")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type DecodedImage struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeBase64Image parses "data:image/<type>;base64,<payload>".
// The declared type is ignored; the content type comes from sniffing the bytes.
func DecodeBase64Image(dataURI string) (*DecodedImage, error) {
	header, payload, found := strings.Cut(dataURI, ",")
	if !found || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrImageEncoding
	}
	if payload == "" {
		return nil, ErrImageEmptyPayload
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+3 {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrImageEncoding
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	for contentType, ext := range allowedImageTypes {
		if mtype.Is(contentType) {
			return &DecodedImage{Data: data, ContentType: contentType, Extension: ext}, nil
		}
	}
	return nil, ErrImageType
}

// HasImageExtension reports whether name ends in an allowed image extension.
func HasImageExtension(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	if ext == ".jpeg" {
		return true
	}
	for _, allowed := range allowedImageTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ImageExtension returns the file extension for an allowed image content type.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := allowedImageTypes[contentType]
	return ext, ok
}
