package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar draws the progress state as a terminal bar.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar returns a bar that writes to w.
func NewBar(w io.Writer, description string) *Bar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	return &Bar{bar: bar}
}

// Observer returns the func to register with State.Observe.
// A drop to 0 starts a new transfer or ends one, so the bar is reset.
func (b *Bar) Observer() Observer {
	return func(percent int) {
		if percent == 0 {
			b.bar.Reset()

			return
		}

		_ = b.bar.Set(percent)
	}
}

// Value is the bar's current position.
func (b *Bar) Value() int {
	return int(b.bar.State().CurrentNum)
}
