package aur

import (
	"context"
	"net/http"
	"time"
)

const (
	// FetchBatchLimit is the maximum number of names per metadata fetch,
	// matching the RPC endpoint's per-request argument ceiling.
	FetchBatchLimit = 100

	fetchTimeout  = 45 * time.Second
	retryAttempts = 3
	retryDelay    = 2 * time.Second
)

// Source retrieves package metadata for a batch of unique names.
// Exactly two implementations exist: [RPCSource] for the official JSON RPC
// endpoint and [MirrorSource] for the raw-file mirror fallback.
type Source interface {
	// Fetch returns the metadata records for the given names. Names not
	// known to the source are simply absent from the result; that is not
	// an error. The input must not exceed FetchBatchLimit entries.
	Fetch(ctx context.Context, names []string) ([]Package, error)
}

// newHTTPClient creates an HTTP client with the per-request timeout that
// bounds every metadata fetch.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: fetchTimeout}
}
