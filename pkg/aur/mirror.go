package aur

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aurwrap/aurwrap/pkg/errors"
	"github.com/aurwrap/aurwrap/pkg/httputil"
)

// defaultBranches are the conventional default branch names a mirror repo
// may keep its per-pkgbase directories under when branches are not used as
// top-level refs.
var defaultBranches = []string{"main", "master"}

// MirrorSource fetches package metadata from a raw-file GitHub mirror where
// each pkgbase is published as a branch carrying a .SRCINFO file.
//
// The source keeps a per-instance branch cache: fetched branches are never
// re-fetched, and every record's name is remembered as belonging to its
// pkgbase branch so later batches can skip redundant fetches. Create one
// MirrorSource per resolution run; it is not safe for concurrent Fetch
// calls.
type MirrorSource struct {
	http     *http.Client
	rawBase  string
	attempts int           // tries per URL on timeout
	delay    time.Duration // fixed wait between tries

	branches map[string][]Package // branch -> parsed records (nil = no records)
	branchOf map[string]string    // package name -> branch known to produce it
}

// NewMirrorSource creates a mirror source for a GitHub base URL of the form
// https://github.com/<owner>/<repo>, with an optional trailing slash or
// .git suffix. Any other shape is a CONFIG_ERROR.
func NewMirrorSource(base string) (*MirrorSource, error) {
	raw, err := rawContentBase(base)
	if err != nil {
		return nil, err
	}
	return &MirrorSource{
		http:     newHTTPClient(),
		rawBase:  raw,
		attempts: retryAttempts,
		delay:    retryDelay,
		branches: make(map[string][]Package),
		branchOf: make(map[string]string),
	}, nil
}

// rawContentBase rewrites a github.com repo URL to its raw-content base,
// e.g. https://github.com/acme/aur -> https://raw.githubusercontent.com/acme/aur.
func rawContentBase(base string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(base), "/"), ".git")
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, err, "mirror base %q", base)
	}
	if u.Scheme != "https" || u.Host != "github.com" {
		return "", errors.New(errors.ErrCodeConfig, "unsupported mirror base %q (want https://github.com/<owner>/<repo>)", base)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", errors.New(errors.ErrCodeConfig, "unsupported mirror base %q (want https://github.com/<owner>/<repo>)", base)
	}
	return "https://raw.githubusercontent.com/" + parts[0] + "/" + parts[1], nil
}

// Fetch resolves a batch of names against the mirror. Each name's pkgbase
// is treated as a candidate branch; names missed on the first pass are
// re-queued exactly once as their own branch, then dropped silently. A
// missing name is not an error - the caller treats it as "not an AUR
// package".
func (m *MirrorSource) Fetch(ctx context.Context, names []string) ([]Package, error) {
	if len(names) == 0 {
		return nil, nil
	}

	missing := names
	var out []Package
	for pass := 0; pass < 2 && len(missing) > 0; pass++ {
		var candidates []string
		for _, name := range missing {
			branch := name
			if pass == 0 {
				if b, ok := m.branchOf[name]; ok {
					branch = b
				}
			}
			candidates = append(candidates, branch)
		}
		if err := m.fetchBranches(ctx, candidates); err != nil {
			return nil, err
		}

		var still []string
		for _, name := range missing {
			if pkg, ok := m.lookup(name); ok {
				out = append(out, pkg)
			} else {
				still = append(still, name)
			}
		}
		missing = still
	}
	return out, nil
}

// lookup resolves a name through the name->branch map (falling back to the
// name itself) and scans the cached branch records for a matching output.
func (m *MirrorSource) lookup(name string) (Package, bool) {
	branch, ok := m.branchOf[name]
	if !ok {
		branch = name
	}
	for _, pkg := range m.branches[branch] {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return Package{}, false
}

// branchResult is one worker's output: the records parsed from a branch, or
// the fatal error that stopped it.
type branchResult struct {
	branch string
	pkgs   []Package
	err    error
}

// fetchBranches fetches all not-yet-cached branches concurrently, one
// worker per distinct branch. Workers share no mutable state; the cache and
// the name->branch map are populated sequentially after every worker has
// reported.
func (m *MirrorSource) fetchBranches(ctx context.Context, candidates []string) error {
	var todo []string
	seen := make(map[string]bool)
	for _, branch := range candidates {
		if seen[branch] {
			continue
		}
		seen[branch] = true
		if _, cached := m.branches[branch]; !cached {
			todo = append(todo, branch)
		}
	}
	if len(todo) == 0 {
		return nil
	}

	results := make(chan branchResult, len(todo))
	for _, branch := range todo {
		branch := branch
		go func() {
			pkgs, err := m.fetchBranch(ctx, branch)
			results <- branchResult{branch: branch, pkgs: pkgs, err: err}
		}()
	}

	var firstErr error
	for range todo {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		m.branches[r.branch] = r.pkgs
		for _, pkg := range r.pkgs {
			m.branchOf[pkg.Name] = pkg.PackageBase
		}
	}
	return firstErr
}

// fetchBranch tries the branch's candidate URLs in order: the branch as a
// top-level ref, then as a subdirectory under each conventional default
// branch. A 404 moves on to the next candidate; exhausting all candidates
// means the branch has no records (nil, nil).
func (m *MirrorSource) fetchBranch(ctx context.Context, branch string) ([]Package, error) {
	urls := []string{m.rawBase + "/" + branch + "/.SRCINFO"}
	for _, def := range defaultBranches {
		urls = append(urls, m.rawBase+"/"+def+"/"+branch+"/.SRCINFO")
	}

	for _, u := range urls {
		body, found, err := m.get(ctx, u)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		pkgs, err := ParseSRCINFO(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "branch %s (%s)", branch, u)
		}
		return pkgs, nil
	}
	return nil, nil
}

// get issues a GET with retry on timeout: up to retryAttempts tries with a
// fixed delay, per the fetcher's failure policy. Any non-timeout transport
// error fails immediately. Returns found=false on 404.
func (m *MirrorSource) get(ctx context.Context, u string) (body string, found bool, err error) {
	attempt := func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if reqErr != nil {
			return errors.Wrap(errors.ErrCodeNetwork, reqErr, "building request for %s", u)
		}
		resp, doErr := m.http.Do(req)
		if doErr != nil {
			if httputil.IsTimeout(doErr) {
				return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeTimeout, doErr, "fetching %s", u)}
			}
			return errors.Wrap(errors.ErrCodeNetwork, doErr, "fetching %s", u)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil // absent, not an error
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return errors.New(errors.ErrCodeNetwork, "fetching %s: status %d", u, resp.StatusCode)
		}

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return errors.Wrap(errors.ErrCodeNetwork, readErr, "reading %s", u)
		}
		body = string(data)
		found = true
		return nil
	}

	if err := httputil.Retry(ctx, m.attempts, m.delay, attempt); err != nil {
		// Exhausted timeout retries escalate to a plain network error.
		var re *httputil.RetryableError
		if stderrors.As(err, &re) {
			return "", false, errors.Wrap(errors.ErrCodeNetwork, re.Err, "retries exhausted for %s", u)
		}
		return "", false, err
	}
	return body, found, nil
}
