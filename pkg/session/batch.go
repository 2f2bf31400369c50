package session

import (
	"context"
	"net/url"
	"runtime"
	"sync"
)

// Result pairs a fetched URL with its response or error.
type Result struct {
	URL      string
	Response *Response
	Err      error
}

// GetBatch fetches URLs concurrently. URLs are grouped by domain to
// leverage HTTP/2 multiplexing, with at most concurrency in-flight
// requests per domain. A concurrency <= 0 auto-tunes from system
// resources. The channel is closed once all URLs are accounted for.
func (s *Session) GetBatch(ctx context.Context, urls []string, opts *RequestOptions, concurrency int) <-chan Result {
	if concurrency <= 0 {
		concurrency = OptimalConcurrency()
	}

	results := make(chan Result, len(urls))
	groups := GroupByDomain(urls)

	var wg sync.WaitGroup

	go func() {
		for _, group := range groups {
			select {
			case <-ctx.Done():
				wg.Wait()
				close(results)
				return
			default:
			}

			sem := make(chan struct{}, concurrency)
			for _, u := range group {
				wg.Add(1)
				sem <- struct{}{}

				go func(target string) {
					defer wg.Done()
					defer func() { <-sem }()

					resp, err := s.Get(ctx, target, opts)
					results <- Result{URL: target, Response: resp, Err: err}
				}(u)
			}
		}

		wg.Wait()
		close(results)
	}()

	return results
}

// GroupByDomain buckets URLs by host. Unparseable URLs fall into a
// default group so they still get fetched and surface their error.
func GroupByDomain(urls []string) map[string][]string {
	groups := make(map[string][]string)
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			groups["default"] = append(groups["default"], raw)
			continue
		}
		groups[u.Host] = append(groups[u.Host], raw)
	}
	return groups
}

// OptimalConcurrency picks a fetch concurrency from CPU and memory.
func OptimalConcurrency() int {
	numCPU := runtime.NumCPU()

	// Fetching is I/O bound, so go well past the CPU count.
	optimal := numCPU * 3

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	availMB := (m.Sys - m.Alloc) / 1024 / 1024

	// Budget ~50MB per in-flight page in case rendering follows.
	maxByMemory := int(availMB / 50)

	if optimal < numCPU {
		optimal = numCPU
	}
	if optimal > 50 {
		optimal = 50
	}

	if maxByMemory > 0 && maxByMemory < optimal {
		return maxByMemory
	}
	return optimal
}
