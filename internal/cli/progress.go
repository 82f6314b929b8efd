package cli

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// NewScanProgress builds the progress bar shown while a scan classifies
// messages.
func NewScanProgress(total int, writer io.Writer) *progressbar.ProgressBar {
	if writer == nil {
		writer = os.Stdout
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Analyzing emails...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
