package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/1F47E/go-photobooth/internal/job"
	"github.com/1F47E/go-photobooth/internal/logger"
)

var log = logger.Log

type Worker struct {
	ctx context.Context
}

func NewWorker(ctx context.Context) *Worker {
	return &Worker{ctx: ctx}
}

// WorkerDecode rasterises stills until jobs is closed. Every job gets exactly
// one result on res, failures included, so callers can count completions.
func (w *Worker) WorkerDecode(id int, jobs <-chan job.JobDec, res chan<- job.JobDecRes) {
	name := fmt.Sprintf("WorkerDecode #%d", id)
	log.Debugf("%s started\n", name)
	defer log.Debugf("%s finished\n", name)
	for {
		select {
		case <-w.ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			log.Debugf("%s got %s\n", name, j.Print())

			now := time.Now()
			r := job.JobDecRes{Idx: j.Idx}
			if !j.Photo.Validate() {
				log.Warnf("%s !!! still #%d checksum mismatch\n", name, j.Idx)
			}
			r.Image, r.Err = j.Photo.Decode()
			log.Debugf("%s decoded #%d. Took time: %s\n", name, j.Idx, time.Since(now))

			select {
			case res <- r:
			case <-w.ctx.Done():
				return
			}
		}
	}
}
