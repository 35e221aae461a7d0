package offline

import "time"

// SetSyncerRetryDelays overrides the transient-retry backoff for tests.
func (w *Workflow) SetSyncerRetryDelays(base, maxDelay time.Duration) {
	w.retryBaseDelay = base
	w.retryMaxDelay = maxDelay
}

var (
	RenderDownloadConfig = renderDownloadConfig
	RenderLoadConfig     = renderLoadConfig
	RenderHostsConfig    = renderHostsConfig
	SetDocumentFields    = setDocumentFields
	UnpackBundle         = unpackBundle
	LoadChart            = loadChart
)
