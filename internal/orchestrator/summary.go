package orchestrator

import (
	"fmt"
	"strings"

	"ultradl/internal/consts"
	"ultradl/internal/entity"
	"ultradl/pkg/maths"
	"ultradl/pkg/ptr"
)

// Summary is the rendered preview of a descriptor.
type Summary struct {
	Title     string
	Byline    string
	Thumbnail string
}

func (s *Summary) String() string {
	if s == nil {
		return ""
	}

	return s.Title + "\n" + s.Byline
}

// Summarize renders desc for display.
func Summarize(desc *entity.MediaDescriptor) *Summary {
	if desc == nil {
		desc = &entity.MediaDescriptor{}
	}

	author := desc.Author
	if author == "" {
		author = consts.DefaultAuthor
	}

	var b strings.Builder
	b.WriteString("by ")
	b.WriteString(author)
	b.WriteString(formatDuration(ptr.Deref(desc.Duration)))

	if n := len(desc.Entries); n > 0 {
		fmt.Fprintf(&b, " • Album with %d items", n)
	}

	return &Summary{
		Title:     truncateTitle(desc.Title),
		Byline:    b.String(),
		Thumbnail: desc.PreviewThumbnail(),
	}
}

func truncateTitle(title string) string {
	if title == "" {
		return consts.DefaultTitle
	}

	runes := []rune(title)
	if len(runes) <= consts.TitleMaxLen {
		return title
	}

	return string(runes[:consts.TitleMaxLen]) + consts.TitleEllipsis
}

// formatDuration is " • M:SS", or empty for a zero duration.
func formatDuration(seconds float64) string {
	if seconds == 0 {
		return ""
	}

	minutes := maths.FloorFloat64ToInt(seconds / 60)
	rest := maths.FloorFloat64ToInt(seconds - float64(minutes)*60)

	return fmt.Sprintf(" • %d:%02d", minutes, rest)
}
