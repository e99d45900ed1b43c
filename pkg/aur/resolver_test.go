package aur

import (
	"context"
	"fmt"
	"testing"

	"github.com/aurwrap/aurwrap/pkg/errors"
)

// mockSource serves canned records by name and records every batch it sees.
type mockSource struct {
	pkgs    map[string]Package
	batches [][]string
	err     error
}

func (m *mockSource) Fetch(_ context.Context, names []string) ([]Package, error) {
	m.batches = append(m.batches, append([]string(nil), names...))
	if m.err != nil {
		return nil, m.err
	}
	var out []Package
	for _, n := range names {
		if pkg, ok := m.pkgs[n]; ok {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func sourceOf(pkgs ...Package) *mockSource {
	m := &mockSource{pkgs: make(map[string]Package)}
	for _, p := range pkgs {
		if p.PackageBase == "" {
			p.PackageBase = p.Name
		}
		m.pkgs[p.Name] = p
	}
	return m
}

func TestResolveChain(t *testing.T) {
	src := sourceOf(
		Package{Name: "a", Depends: []string{"b>=1"}},
		Package{Name: "b", Depends: []string{"c"}},
		Package{Name: "c"},
	)
	r := NewResolver(src, nil)

	order, err := r.Resolve(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"c", "b", "a"}
	if len(order) != len(want) {
		t.Fatalf("Resolve() = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestResolveDropsUnknownDependencies(t *testing.T) {
	src := sourceOf(
		Package{Name: "a", Depends: []string{"glibc", "b"}, MakeDepends: []string{"cmake"}},
		Package{Name: "b"},
	)
	r := NewResolver(src, nil)

	order, err := r.Resolve(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Errorf("Resolve() = %v, want [b a]", order)
	}
}

func TestResolveUnknownRoot(t *testing.T) {
	r := NewResolver(sourceOf(), nil)
	order, err := r.Resolve(context.Background(), []string{"ghost"})
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil (unknown names drop silently)", err)
	}
	if len(order) != 0 {
		t.Errorf("Resolve() = %v, want empty", order)
	}
}

func TestResolveCycle(t *testing.T) {
	src := sourceOf(
		Package{Name: "a", Depends: []string{"b"}},
		Package{Name: "b", Depends: []string{"a"}},
	)
	r := NewResolver(src, nil)

	_, err := r.Resolve(context.Background(), []string{"a"})
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Fatalf("error code = %v, want CYCLE_ERROR", errors.GetCode(err))
	}
}

func TestResolveSharedDependency(t *testing.T) {
	src := sourceOf(
		Package{Name: "app1", Depends: []string{"lib"}},
		Package{Name: "app2", Depends: []string{"lib"}},
		Package{Name: "lib"},
	)
	r := NewResolver(src, nil)

	order, err := r.Resolve(context.Background(), []string{"app1", "app2"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("Resolve() = %v, want 3 entries", order)
	}
	if order[0] != "lib" {
		t.Errorf("order[0] = %q, want lib (shared dependency first)", order[0])
	}
}

func TestResolveIdempotent(t *testing.T) {
	pkgs := []Package{
		{Name: "a", Depends: []string{"c", "d"}},
		{Name: "b", Depends: []string{"d"}},
		{Name: "c"},
		{Name: "d"},
	}

	first, err := NewResolver(sourceOf(pkgs...), nil).Resolve(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		// Different root order, fresh source: the dataset is unchanged, so
		// the output must be too.
		again, err := NewResolver(sourceOf(pkgs...), nil).Resolve(context.Background(), []string{"b", "a"})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: Resolve() = %v, want %v", i, again, first)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: Resolve() = %v, want %v", i, again, first)
			}
		}
	}
}

func TestResolveBatchesRespectLimit(t *testing.T) {
	var pkgs []Package
	roots := make([]string, 0, FetchBatchLimit+50)
	for i := 0; i < FetchBatchLimit+50; i++ {
		name := fmt.Sprintf("pkg%03d", i)
		pkgs = append(pkgs, Package{Name: name})
		roots = append(roots, name)
	}
	src := sourceOf(pkgs...)
	r := NewResolver(src, nil)

	order, err := r.Resolve(context.Background(), roots)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(order) != len(roots) {
		t.Fatalf("got %d entries, want %d", len(order), len(roots))
	}

	if len(src.batches) != 2 {
		t.Fatalf("got %d batches, want 2: sizes %v", len(src.batches), batchSizes(src.batches))
	}
	for i, b := range src.batches {
		if len(b) > FetchBatchLimit {
			t.Errorf("batch %d has %d names, want <= %d", i, len(b), FetchBatchLimit)
		}
	}
}

func TestResolveDeduplicatesWithinBatch(t *testing.T) {
	src := sourceOf(Package{Name: "a"})
	r := NewResolver(src, nil)

	if _, err := r.Resolve(context.Background(), []string{"a", "a", "a"}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(src.batches) != 1 || len(src.batches[0]) != 1 {
		t.Errorf("batches = %v, want one batch of one name", src.batches)
	}
}

func TestResolvePropagatesFetchError(t *testing.T) {
	src := &mockSource{err: errors.New(errors.ErrCodeNetwork, "boom")}
	r := NewResolver(src, nil)

	_, err := r.Resolve(context.Background(), []string{"a"})
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error code = %v, want NETWORK_ERROR", errors.GetCode(err))
	}
}

func TestInfoMap(t *testing.T) {
	src := sourceOf(
		Package{Name: "a", Version: "1.0-1"},
		Package{Name: "b", Version: "2.0-1"},
	)
	r := NewResolver(src, nil)

	infos, err := r.InfoMap(context.Background(), []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("InfoMap() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d entries, want 2", len(infos))
	}
	if infos["a"].Version != "1.0-1" {
		t.Errorf("infos[a].Version = %q, want 1.0-1", infos["a"].Version)
	}
	if _, ok := infos["missing"]; ok {
		t.Error("infos contains missing, want absent")
	}
}

func TestGroupBases(t *testing.T) {
	src := sourceOf(
		Package{Name: "gcc", PackageBase: "gcc-multilib"},
		Package{Name: "gcc-libs", PackageBase: "gcc-multilib"},
		Package{Name: "paru"},
	)
	r := NewResolver(src, nil)

	bases, err := r.GroupBases(context.Background(), []string{"gcc", "paru", "gcc-libs"})
	if err != nil {
		t.Fatalf("GroupBases() error = %v", err)
	}
	want := []string{"gcc-multilib", "paru"}
	if len(bases) != len(want) {
		t.Fatalf("GroupBases() = %v, want %v", bases, want)
	}
	for i := range want {
		if bases[i] != want[i] {
			t.Errorf("bases[%d] = %q, want %q", i, bases[i], want[i])
		}
	}
}

func batchSizes(batches [][]string) []int {
	out := make([]int, len(batches))
	for i, b := range batches {
		out[i] = len(b)
	}
	return out
}
