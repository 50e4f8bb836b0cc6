package api

// API limits and constants.
const (
	// MaxUploadSize is the maximum allowed size for cover source images (10 MB).
	MaxUploadSize = 10 << 20

	// ajaxFailureMessage is the only message a failed ajax call ever carries.
	ajaxFailureMessage = "Request failed"
)

// Cache-Control header values.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheNoStore = "no-cache"
)
