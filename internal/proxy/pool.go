package proxy

import (
	"sync"
	"time"
)

// failureCooldown is how long a proxy stays skipped after MarkFailed.
const failureCooldown = 5 * time.Minute

// Pool manages a list of proxies with round-robin rotation and
// failure tracking.
type Pool struct {
	proxies []string
	index   int
	mu      sync.Mutex
	failed  map[string]time.Time
}

// NewPool creates a new proxy Pool
func NewPool(proxies []string) *Pool {
	return &Pool{
		proxies: proxies,
		failed:  make(map[string]time.Time),
	}
}

// Next returns the next healthy proxy from the pool, or "" when the
// pool is empty.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	start := p.index
	for {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		if failTime, ok := p.failed[proxy]; ok {
			if time.Since(failTime) < failureCooldown {
				if p.index == start {
					// Every proxy is failed; hand back the current one
					// rather than blocking.
					return proxy
				}
				continue
			}
			delete(p.failed, proxy)
		}

		return proxy
	}
}

// MarkFailed marks a proxy as failed so it will be skipped for a while
func (p *Pool) MarkFailed(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = time.Now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}

// Size returns the number of configured proxies.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}
