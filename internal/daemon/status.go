package daemon

import (
	"sync"
	"time"
)

// Status is a snapshot of the daemon's build state.
type Status struct {
	StartedAt    time.Time `json:"started_at"`
	Builds       int       `json:"builds"`
	Failures     int       `json:"failures"`
	Building     bool      `json:"building"`
	LastBuildAt  time.Time `json:"last_build_at,omitzero"`
	LastDuration string    `json:"last_duration,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	HasGoodBuild bool      `json:"has_good_build"`
}

// buildStatus tracks the outcome of builds for the status endpoint.
type buildStatus struct {
	mu sync.RWMutex
	s  Status
}

func (bs *buildStatus) start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.s.Building = true
}

func (bs *buildStatus) finish(d time.Duration, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.s.Building = false
	bs.s.Builds++
	bs.s.LastBuildAt = time.Now()
	bs.s.LastDuration = d.Round(time.Millisecond).String()
	if err != nil {
		bs.s.Failures++
		bs.s.LastError = err.Error()
		return
	}
	bs.s.LastError = ""
	bs.s.HasGoodBuild = true
}

func (bs *buildStatus) snapshot() Status {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.s
}
