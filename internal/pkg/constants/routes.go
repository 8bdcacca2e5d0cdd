package constants

// Static route constants
const (
	// UploadsRoute serves stored photos and their thumbnails.
	UploadsRoute = "/uploads"
)
