// Package consts defines application-wide constants.
package consts

import "time"

const (
	// TitleMaxLen is the preview title length before truncation.
	TitleMaxLen = 45
	// TitleEllipsis is appended to truncated titles.
	TitleEllipsis = "..."
	// DefaultTitle is shown when the descriptor has no title.
	DefaultTitle = "Media"
	// DefaultAuthor is shown when the descriptor has no author.
	DefaultAuthor = "Unknown"
	// DefaultImageBase is the image filename base when the descriptor has no title.
	DefaultImageBase = "image"
	// MediaBaseName is the fixed filename base for audio and video saves.
	MediaBaseName = "media"
	// CopyRevertDelay is how long a copy button shows its copied state.
	CopyRevertDelay = 2 * time.Second
	// DefaultAnalyticsTimeout bounds a single analytics send.
	DefaultAnalyticsTimeout = 5 * time.Second
	// PreallocLimit caps the buffer reserved up front from a declared Content-Length.
	PreallocLimit = 8 << 20
	// ErrorBodyLimit caps how much of an error response body is read.
	ErrorBodyLimit = 64 << 10
	// LogTimeLayout formats log panel timestamps.
	LogTimeLayout = "15:04"
	// TempFilePattern names in-flight save files.
	TempFilePattern = ".ultradl-*.part"
	// StaleTempAge is when a leftover temp file counts as abandoned.
	StaleTempAge = time.Hour
)

// Status line texts.
const (
	StatusAnalyzing = "Analyzing..."
	StatusReady     = "Ready to download ✓"
	StatusError     = "Error"
	StatusDownload  = "Downloading..."
	StatusComplete  = "Download complete! ✅"
	// StatusItemFmt takes the 1-based index and the item count.
	StatusItemFmt = "Downloading item %d/%d..."
	// StatusImageFmt takes the 1-based index and the image count.
	StatusImageFmt = "Downloading image %d/%d..."
	StatusImage    = "Downloading image..."
)

// Alert texts.
const (
	AlertEmptyURL      = "Paste a valid link"
	AlertNoPreview     = "Preview first"
	AlertNoImage       = "No image available"
	AlertBusy          = "Please wait for the current action to finish"
	AlertPreviewFail   = "Failed: "
	AlertDownloadFail  = "Download failed: "
	AlertImageFail     = "Image download failed: "
	AlertClipboardFail = "Clipboard unavailable: "
)

// Log panel texts.
const (
	LogReady          = "Social Ultra DL ready • Thank you for using!"
	LogPreviewLoaded  = "Preview loaded"
	LogPreviewFailed  = "✗ Preview failed: "
	LogDownloadFailed = "✗ Download failed: "
	LogImageFailed    = "✗ Image download failed: "
	// LogSavedFmt takes the filename.
	LogSavedFmt = "✓ Saved: %s"
	// LogSavedItemFmt takes the filename and the 1-based index.
	LogSavedItemFmt = "✓ Saved: %s (%d)"
)

// Analytics event names.
const (
	EventPageView      = "Page View"
	EventPreview       = "Preview"
	EventDownloadVideo = "Download Video"
	EventDownloadAudio = "Download Audio"
	EventDownloadImage = "Download Image"
	EventDonateOpened  = "Donate Modal Opened"
	EventAddressCopied = "Donation Address Copied"
	// PropCoin is the coin property of EventAddressCopied.
	PropCoin = "coin"
)

// Donation button texts.
const (
	CopyLabelCopied = "Copied!"
	// CopyLabelFmt takes the coin identifier.
	CopyLabelFmt = "Copy %s Address"
)

// Service endpoints and query keys.
const (
	PathInfo     = "/info"
	PathDownload = "/download"
	QueryURL     = "url"
	QueryType    = "type"

	// ServiceInfo and ServiceDownload label service errors and metrics.
	ServiceInfo     = "info"
	ServiceDownload = "download"
	ServiceDirect   = "direct"
)

// HTTP headers.
const (
	HeaderXRequestID  = "X-Request-ID"
	HeaderUserAgent   = "User-Agent"
	HeaderContentType = "Content-Type"
)
