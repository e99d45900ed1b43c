package aur

import (
	"context"
	stderrors "errors"
	"sort"

	"github.com/aurwrap/aurwrap/pkg/dag"
	"github.com/aurwrap/aurwrap/pkg/errors"
)

// Resolver discovers the transitive AUR dependency closure of a set of
// root packages and orders it for building.
type Resolver struct {
	source Source
	logf   func(string, ...any)
}

// NewResolver creates a resolver over the given metadata source.
// The optional logf callback receives progress messages; pass nil to
// discard them.
func NewResolver(source Source, logf func(string, ...any)) *Resolver {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Resolver{source: source, logf: logf}
}

// Resolve returns the names of all transitively reachable AUR packages,
// ordered so that every dependency precedes all of its dependents.
//
// Discovery is breadth-first: each wave drains up to FetchBatchLimit
// unvisited names, fetches their metadata in one batch, and enqueues the
// stripped union of their dependency lists. Names the source never returns
// (system-repository packages, or nonexistent ones) are dropped silently -
// the package manager satisfies those during the build. A dependency cycle
// is a CYCLE_ERROR naming one participant; AUR graphs are expected to be
// acyclic, so this is not retried.
func (r *Resolver) Resolve(ctx context.Context, roots []string) ([]string, error) {
	state := resolutionState{
		queue:   append([]string(nil), roots...),
		visited: make(map[string]bool),
		infos:   make(map[string]Package),
	}

	for len(state.queue) > 0 {
		chunk := state.drain(FetchBatchLimit)
		if len(chunk) == 0 {
			continue
		}
		r.logf("fetching metadata for %d packages", len(chunk))
		pkgs, err := r.source.Fetch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for _, pkg := range pkgs {
			if state.visited[pkg.Name] {
				continue
			}
			state.visited[pkg.Name] = true
			state.infos[pkg.Name] = pkg
			state.queue = append(state.queue, pkg.DepNames()...)
		}
	}

	return buildOrder(state.infos)
}

// InfoMap fetches metadata for the given names in batches and returns a
// map keyed by output name. Names unknown to the source are absent.
func (r *Resolver) InfoMap(ctx context.Context, names []string) (map[string]Package, error) {
	out := make(map[string]Package, len(names))
	for start := 0; start < len(names); start += FetchBatchLimit {
		end := min(start+FetchBatchLimit, len(names))
		pkgs, err := r.source.Fetch(ctx, names[start:end])
		if err != nil {
			return nil, err
		}
		for _, pkg := range pkgs {
			out[pkg.Name] = pkg
		}
	}
	return out, nil
}

// GroupBases reduces a per-output build order to the unique pkgbase values
// in compatible order: the first output seen for a base fixes that base's
// position. Split packages sharing one source checkout are built once.
func (r *Resolver) GroupBases(ctx context.Context, order []string) ([]string, error) {
	infos, err := r.InfoMap(ctx, order)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(order))
	bases := make([]string, 0, len(order))
	for _, name := range order {
		base := name
		if pkg, ok := infos[name]; ok && pkg.PackageBase != "" {
			base = pkg.PackageBase
		}
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}
	return bases, nil
}

// resolutionState is the transient working set of one Resolve call.
type resolutionState struct {
	queue   []string
	visited map[string]bool
	infos   map[string]Package
}

// drain removes up to limit not-yet-visited names from the queue.
func (s *resolutionState) drain(limit int) []string {
	var chunk []string
	inChunk := make(map[string]bool)
	for len(s.queue) > 0 && len(chunk) < limit {
		name := s.queue[0]
		s.queue = s.queue[1:]
		if s.visited[name] || inChunk[name] {
			continue
		}
		inChunk[name] = true
		chunk = append(chunk, name)
	}
	return chunk
}

// buildOrder constructs the dependency graph over the resolved records and
// topologically sorts it. Nodes are added in sorted name order so repeated
// runs over an unchanged dataset yield identical output.
func buildOrder(infos map[string]Package) ([]string, error) {
	names := make([]string, 0, len(infos))
	for name := range infos {
		names = append(names, name)
	}
	sort.Strings(names)

	g := dag.New()
	for _, name := range names {
		if err := g.AddNode(name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "adding node %s", name)
		}
	}
	for _, name := range names {
		pkg := infos[name]
		for _, dep := range pkg.DepNames() {
			if !g.HasNode(dep) {
				continue // satisfied by the system package manager
			}
			// Edge dep -> pkg so the sort yields dependencies first.
			if err := g.AddEdge(dep, name); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "adding edge %s -> %s", dep, name)
			}
		}
	}

	order, err := g.Toposort()
	if err != nil {
		var cyc *dag.CycleError
		if stderrors.As(err, &cyc) {
			return nil, errors.Wrap(errors.ErrCodeCycle, err, "dependency cycle involving %s", cyc.Node)
		}
		return nil, err
	}

	out := make([]string, 0, len(order))
	for _, name := range order {
		if _, ok := infos[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}
