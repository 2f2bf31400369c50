package download

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// WorkerPool downloads batches of files with bounded concurrency.
type WorkerPool struct {
	downloader  *Downloader
	concurrency int
}

// NewWorkerPool creates a pool. Concurrency is clamped to [1, 50].
func NewWorkerPool(concurrency int, timeout time.Duration, userAgent string) *WorkerPool {
	if concurrency <= 0 {
		concurrency = 5
	}
	if concurrency > 50 {
		concurrency = 50
	}
	return &WorkerPool{
		downloader:  NewDownloader(timeout, userAgent),
		concurrency: concurrency,
	}
}

// DownloadBatch fetches every URL, returning one Result per URL. With
// Options.Progress set, a single bar tracks batch completion instead
// of per-file byte bars.
func (wp *WorkerPool) DownloadBatch(ctx context.Context, urls []string, opts Options) []*Result {
	if len(urls) == 0 {
		return []*Result{}
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(len(urls)), "downloading")
		opts.Progress = false // per-file bars would fight the batch bar
	}

	jobs := make(chan string, len(urls))
	results := make(chan *Result, len(urls))

	var wg sync.WaitGroup
	for w := 1; w <= wp.concurrency; w++ {
		wg.Add(1)
		go wp.worker(ctx, w, jobs, results, opts, &wg)
	}

	go func() {
		for _, u := range urls {
			jobs <- u
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	all := make([]*Result, 0, len(urls))
	for result := range results {
		all = append(all, result)
		if bar != nil {
			bar.Add(1)
		}
	}
	return all
}

func (wp *WorkerPool) worker(ctx context.Context, id int, jobs <-chan string, results chan<- *Result, opts Options, wg *sync.WaitGroup) {
	defer wg.Done()

	for u := range jobs {
		select {
		case <-ctx.Done():
			log.Debug().Int("worker_id", id).Msg("Worker cancelled")
			return
		default:
		}

		result := wp.downloader.Download(ctx, u, opts)

		select {
		case results <- result:
		case <-ctx.Done():
			return
		}
	}
}
