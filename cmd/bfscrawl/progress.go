package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/storage"
)

// progressObserver shows a spinner counting visited pages on stderr.
type progressObserver struct {
	crawler.NopObserver
	bar *progressbar.ProgressBar
}

func newProgressObserver() *progressObserver {
	return &progressObserver{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("crawling"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("pages"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (o *progressObserver) VisitStarted(t storage.Target) {
	o.bar.Describe(fmt.Sprintf("depth %d", t.Depth))
	o.bar.Add(1)
}

func (o *progressObserver) Finished(s crawler.Summary) {
	o.bar.Finish()
}
