package aur

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/aurwrap/aurwrap/pkg/errors"
)

// DefaultRPCURL is the official AUR metadata endpoint.
const DefaultRPCURL = "https://aur.archlinux.org/rpc/"

// RPCSource fetches package metadata from the AUR JSON RPC endpoint.
// One HTTP request covers a whole batch of up to FetchBatchLimit names.
//
// Safe for concurrent use.
type RPCSource struct {
	http    *http.Client
	baseURL string
}

// NewRPCSource creates an RPC source against the official endpoint.
func NewRPCSource() *RPCSource {
	return &RPCSource{http: newHTTPClient(), baseURL: DefaultRPCURL}
}

// NewRPCSourceURL creates an RPC source against a custom endpoint URL.
// Used by tests and by deployments pointing at an RPC proxy.
func NewRPCSourceURL(baseURL string) *RPCSource {
	return &RPCSource{http: newHTTPClient(), baseURL: baseURL}
}

// rpcEnvelope is the wire shape of an info response.
type rpcEnvelope struct {
	ResultCount int       `json:"resultcount"`
	Results     []rpcInfo `json:"results"`
}

type rpcInfo struct {
	Name         string   `json:"Name"`
	PackageBase  string   `json:"PackageBase"`
	Version      string   `json:"Version"`
	Depends      []string `json:"Depends"`
	MakeDepends  []string `json:"MakeDepends"`
	CheckDepends []string `json:"CheckDepends"`
}

// Fetch issues one info query for the batch and maps the envelope onto
// Package records. An empty batch short-circuits without a network call.
func (s *RPCSource) Fetch(ctx context.Context, names []string) ([]Package, error) {
	if len(names) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("v", "5")
	q.Set("type", "info")
	for _, n := range names {
		q.Add("arg[]", n)
	}
	reqURL := s.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "building RPC request")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "querying %s", s.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.ErrCodeNetwork, "RPC info query for %s: status %d",
			strings.Join(names, ","), resp.StatusCode)
	}

	var envelope rpcEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decoding RPC envelope")
	}

	out := make([]Package, 0, len(envelope.Results))
	for _, r := range envelope.Results {
		out = append(out, Package{
			Name:         r.Name,
			PackageBase:  r.PackageBase,
			Version:      r.Version,
			Depends:      r.Depends,
			MakeDepends:  r.MakeDepends,
			CheckDepends: r.CheckDepends,
		})
	}
	return out, nil
}
