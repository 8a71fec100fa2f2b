package status

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

type Status struct {
	CLIProxyAPI bool    `json:"cliproxyapi"`
	Uptime      float64 `json:"uptime"`
	Memory      Memory  `json:"memory"`
}

type Memory struct {
	RSS       uint64 `json:"rss"`
	HeapTotal uint64 `json:"heapTotal"`
	HeapUsed  uint64 `json:"heapUsed"`
}

// Prober reports process health and whether the upstream API answers.
type Prober struct {
	URL     string
	Match   string
	Started time.Time
	Run     Runner
}

func NewProber(url, match string) *Prober {
	return &Prober{URL: url, Match: match, Started: time.Now(), Run: execRunner}
}

// Probe shells out to curl; the upstream is considered live when the
// command succeeds and its output contains Match.
func (p *Prober) Probe(ctx context.Context) Status {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	st := Status{
		Uptime: time.Since(p.Started).Seconds(),
		Memory: Memory{
			RSS:       ms.Sys,
			HeapTotal: ms.HeapSys,
			HeapUsed:  ms.HeapAlloc,
		},
	}

	if p.URL == "" {
		return st
	}
	out, err := p.Run(ctx, "curl", "-s", p.URL)
	st.CLIProxyAPI = err == nil && strings.Contains(string(out), p.Match)
	return st
}
