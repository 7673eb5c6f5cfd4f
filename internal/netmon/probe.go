package netmon

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Prober feeds a Monitor by periodically probing a health URL. It stands in
// for the browser's online/offline events on this target: any reachable
// response (regardless of status) counts as online.
type Prober struct {
	monitor  *Monitor
	client   *http.Client
	url      string
	interval time.Duration
	log      *zap.Logger
}

// NewProber constructs a Prober. client may be nil for a default with a short
// per-probe timeout.
func NewProber(monitor *Monitor, url string, interval time.Duration, client *http.Client, log *zap.Logger) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Prober{monitor: monitor, client: client, url: url, interval: interval, log: log}
}

// Run probes until ctx is done. It probes once immediately, then on every
// tick, feeding each result into the monitor.
func (p *Prober) Run(ctx context.Context) {
	p.ProbeOnce(ctx)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.ProbeOnce(ctx)
		}
	}
}

// ProbeOnce performs a single probe and feeds the result into the monitor.
// Short-lived consumers use it to establish the initial state.
func (p *Prober) ProbeOnce(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.log.Error("probe request", zap.Error(err))
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.monitor.SetOnline(false)
		return
	}
	_ = resp.Body.Close()
	p.monitor.SetOnline(true)
}
