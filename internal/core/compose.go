package core

import (
	"fmt"

	"github.com/1F47E/go-photobooth/internal/job"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/progress"
	"github.com/1F47E/go-photobooth/internal/storage"
	"github.com/1F47E/go-photobooth/internal/strip"
)

// Compose builds a strip from three image files and writes it to out.
// An empty out only composes.
func (c *Core) Compose(files []string, out string) (*strip.Strip, error) {
	log := logger.Log.WithField("scope", "core compose")

	layout, err := strip.LayoutByName(c.cfg.Strip.Layout)
	if err != nil {
		return nil, err
	}
	photos, err := storage.ReadStills(files)
	if err != nil {
		return nil, err
	}
	for i, p := range photos {
		log.Debugf("still %d: %s", i+1, p.Print())
	}

	bar := progress.New(c.out, len(photos), "Decoding stills...")
	composer := strip.NewComposer(layout)
	composer.OnSettled = func(r job.JobDecRes) {
		if r.Err != nil {
			bar.Describe(fmt.Sprintf("Cell %d left blank", r.Idx+1))
		}
		bar.Add(1)
	}
	st, err := composer.Compose(c.ctx, photos, c.now())
	if err != nil {
		bar.Clear()
		return nil, err
	}
	bar.Finish()

	if len(st.Failed) > 0 {
		log.Warnf("%d of %d stills could not be decoded", len(st.Failed), len(photos))
	}
	if out == "" {
		return st, nil
	}
	if err := st.Save(out, c.cfg.Capture.Quality); err != nil {
		return nil, err
	}
	log.Infof("Strip saved to %s", out)
	return st, nil
}
