package model

import "time"

const (
	MaxPostMediaSize   = 10 * 1024 * 1024
	PostMediaFolder    = "posts"
	MediaPresignExpiry = 15 * time.Minute
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var imageExtensions = map[string]string{
	ContentTypeJPEG: ".jpg",
	ContentTypePNG:  ".png",
	ContentTypeGIF:  ".gif",
	ContentTypeWebP: ".webp",
}

// PresignUploadRequest requests a presigned URL for uploading post media
// directly to the object store.
type PresignUploadRequest struct {
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

// PresignUploadResponse returns upload details for direct uploads.
// Client uploads bytes to UploadURL, then embeds PublicURL in post content.
type PresignUploadResponse struct {
	UploadURL  string `json:"upload_url"`
	PublicURL  string `json:"public_url"`
	Key        string `json:"key"`
	ExpiresInS int    `json:"expires_in"`
}

// ImageExtension returns the file extension for a supported content type.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageExtensions[contentType]
	return ext, ok
}

var (
	// ErrInvalidImageType is returned for unsupported upload content types
	ErrInvalidImageType = NewValidationError("content_type", "unsupported image type, allowed: jpeg, png, gif, webp")

	// ErrFileTooLarge is returned when the declared size exceeds MaxPostMediaSize
	ErrFileTooLarge = newKindError(ErrTooLarge, "media exceeds 10MB limit")

	// ErrObjectStoreDisabled is returned when no object store is configured
	ErrObjectStoreDisabled = newKindError(ErrUnavailable, "object storage is not configured")
)
