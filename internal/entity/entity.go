// Package entity defines the core entities used in the application.
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"ultradl/pkg/ptr"
)

// Kind is the requested media category.
type Kind string

const (
	// KindAudio is an mp3 audio extraction.
	KindAudio Kind = "audio"
	// KindVideo is an mp4 video download.
	KindVideo Kind = "video"
	// KindImage is a directly fetched image.
	KindImage Kind = "image"
	// KindThumbnail is a thumbnail fetched through the media service.
	KindThumbnail Kind = "thumbnail"
)

// ParseKind parses s into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("parse kind %q: unknown", s)
	}

	return k, nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAudio, KindVideo, KindImage, KindThumbnail:
		return true
	default:
		return false
	}
}

// Ext is the file extension saved for k.
func (k Kind) Ext() string {
	switch k {
	case KindAudio:
		return "mp3"
	case KindVideo:
		return "mp4"
	default:
		return "jpg"
	}
}

// MIME is the canonical content type for k.
func (k Kind) MIME() string {
	switch k {
	case KindAudio:
		return "audio/mp3"
	case KindVideo:
		return "video/mp4"
	default:
		return "image/jpeg"
	}
}

func (k Kind) String() string { return string(k) }

// ImageRef is an image location that arrives either as a bare URL string or as
// an object carrying a url field.
type ImageRef struct {
	URL string
}

// UnmarshalJSON accepts "https://..." as well as {"url": "https://...", ...}.
func (r *ImageRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		r.URL = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.URL)
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("image ref: %w", err)
	}

	r.URL = obj.URL

	return nil
}

// MarshalJSON writes the object form.
func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		URL string `json:"url"`
	}{URL: r.URL})
}

// Entry is one sub-item of a multi-item source.
type Entry struct {
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Thumbnail string     `json:"thumbnail,omitempty"`
	Duration  *float64   `json:"duration,omitempty"`
	URL       string     `json:"url,omitempty"`
	Type      string     `json:"type,omitempty"`
	Images    []ImageRef `json:"images,omitempty"`
}

// IsImage reports whether the entry's type marks it as an image.
func (e Entry) IsImage() bool {
	return strings.Contains(e.Type, "image")
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (e Entry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("title", e.Title),
		slog.String("url", e.URL),
		slog.String("type", e.Type),
		slog.Float64("duration", ptr.Deref(e.Duration)),
	)
}

// MediaDescriptor is what the metadata service returns for a link.
type MediaDescriptor struct {
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Thumbnail string     `json:"thumbnail,omitempty"`
	Duration  *float64   `json:"duration,omitempty"`
	Type      string     `json:"type,omitempty"`
	Images    []ImageRef `json:"images,omitempty"`
	Entries   []Entry    `json:"entries,omitempty"`
}

// HasEntries reports whether the descriptor is a multi-item source.
func (d *MediaDescriptor) HasEntries() bool {
	return d != nil && len(d.Entries) > 0
}

// IsImageCollection reports whether the descriptor type marks it as images.
func (d *MediaDescriptor) IsImageCollection() bool {
	return d != nil && strings.Contains(d.Type, "image")
}

// PreviewThumbnail is the descriptor thumbnail, else the first entry's.
func (d *MediaDescriptor) PreviewThumbnail() string {
	if d == nil {
		return ""
	}

	if d.Thumbnail != "" {
		return d.Thumbnail
	}

	if len(d.Entries) > 0 {
		return d.Entries[0].Thumbnail
	}

	return ""
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (d MediaDescriptor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("title", d.Title),
		slog.String("author", d.Author),
		slog.String("type", d.Type),
		slog.Float64("duration", ptr.Deref(d.Duration)),
		slog.Int("images", len(d.Images)),
		slog.Int("entries", len(d.Entries)),
	)
}

// Payload is a fetched binary body.
type Payload struct {
	Data []byte
	// ContentType is the type the payload is handled as.
	ContentType string
	// DeclaredType is what the server sent, before any re-labelling.
	DeclaredType string
	Size         int64
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (p Payload) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("content_type", p.ContentType),
		slog.String("declared_type", p.DeclaredType),
		slog.Int64("size", p.Size),
	)
}
