package network

import "sync"

// ipLimiter caps concurrent connections and streams per remote IP.
// A cap of zero or less disables that limit.
type ipLimiter struct {
	mu      sync.Mutex
	conns   capCounter
	streams capCounter
}

type capCounter struct {
	max    int
	counts map[string]int
}

func newIPLimiter(maxConns, maxStreams int) *ipLimiter {
	return &ipLimiter{
		conns:   capCounter{max: maxConns, counts: make(map[string]int)},
		streams: capCounter{max: maxStreams, counts: make(map[string]int)},
	}
}

func (c *capCounter) acquire(ip string) bool {
	if c.max <= 0 {
		return true
	}
	if c.counts[ip] >= c.max {
		return false
	}
	c.counts[ip]++
	return true
}

func (c *capCounter) release(ip string) {
	if c.max <= 0 {
		return
	}
	if c.counts[ip] <= 1 {
		delete(c.counts, ip)
		return
	}
	c.counts[ip]--
}

func (l *ipLimiter) acquireConn(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conns.acquire(ip)
}

func (l *ipLimiter) releaseConn(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns.release(ip)
}

func (l *ipLimiter) acquireStream(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.streams.acquire(ip)
}

func (l *ipLimiter) releaseStream(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.streams.release(ip)
}
