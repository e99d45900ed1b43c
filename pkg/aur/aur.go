// Package aur implements the package-resolution engine of aurwrap: metadata
// fetch from the AUR RPC endpoint or a raw-file mirror, transitive dependency
// discovery, and dependency-respecting build ordering.
package aur

import "strings"

// Package is one build output of one source package. Several packages may
// share a PackageBase ("split package"); a single source checkout produces
// all outputs of one base.
type Package struct {
	Name         string   // Unique output identifier (what others depend on)
	PackageBase  string   // Source-package identifier (unit of checkout/build)
	Version      string   // epoch:pkgver-pkgrel, or pkgver-pkgrel without epoch
	Depends      []string // Runtime dependencies (bare names, nil if none)
	MakeDepends  []string // Build-time dependencies (nil if none)
	CheckDepends []string // Test-time dependencies (nil if none)
}

// StripVersion removes a comparison-operator suffix from a dependency
// declaration, yielding the bare package name: "foo>=1.2" -> "foo".
// Declarations without an operator are returned unchanged.
func StripVersion(dep string) string {
	if i := strings.IndexAny(dep, "<>="); i >= 0 {
		return dep[:i]
	}
	return dep
}

// DepNames returns the version-stripped union of the package's dependency
// lists, in declaration order. Duplicates are preserved; callers dedupe.
func (p *Package) DepNames() []string {
	out := make([]string, 0, len(p.Depends)+len(p.MakeDepends)+len(p.CheckDepends))
	for _, list := range [][]string{p.Depends, p.MakeDepends, p.CheckDepends} {
		for _, d := range list {
			out = append(out, StripVersion(d))
		}
	}
	return out
}
