package aur

import "sort"

// Update describes an installed package whose latest known version is
// newer than the installed one.
type Update struct {
	Name      string
	Installed string
	Latest    string
}

// VersionCmp is a three-way version comparator: negative when a < b, zero
// when equal, positive when a > b. Version strings are opaque to this
// package; in production the comparator shells out to pacman's vercmp.
type VersionCmp func(a, b string) (int, error)

// Outdated returns the installed packages whose latest known version
// compares strictly newer, sorted by name. Names missing from either map
// are skipped, as are pairs the comparator cannot order. The result feeds
// [Resolver.Resolve] as upgrade roots.
func Outdated(installed map[string]string, latest map[string]Package, cmp VersionCmp) []Update {
	var out []Update
	for name, current := range installed {
		pkg, ok := latest[name]
		if !ok {
			continue
		}
		ord, err := cmp(current, pkg.Version)
		if err != nil {
			continue
		}
		if ord < 0 {
			out = append(out, Update{Name: name, Installed: current, Latest: pkg.Version})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
