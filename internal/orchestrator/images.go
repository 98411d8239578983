package orchestrator

import (
	"strings"

	"ultradl/internal/consts"
	"ultradl/internal/entity"
)

// CollectImages lists the image URLs of desc in download order:
// the images of an image collection, else one per entry, else the descriptor thumbnail.
func CollectImages(desc *entity.MediaDescriptor) []string {
	if desc == nil {
		return nil
	}

	var images []string

	switch {
	case desc.IsImageCollection() && len(desc.Images) > 0:
		for _, img := range desc.Images {
			if img.URL != "" {
				images = append(images, img.URL)
			}
		}
	case len(desc.Entries) > 0:
		for _, e := range desc.Entries {
			switch {
			case e.IsImage() && e.URL != "":
				images = append(images, e.URL)
			case e.Thumbnail != "":
				images = append(images, e.Thumbnail)
			}
		}
	case desc.Thumbnail != "":
		images = []string{desc.Thumbnail}
	}

	return images
}

// ImageBaseName turns a title into a filename base. Anything outside [A-Za-z0-9] becomes '_'.
func ImageBaseName(title string) string {
	if title == "" {
		title = consts.DefaultImageBase
	}

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, title)
}
