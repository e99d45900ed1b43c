package aur

import (
	"bufio"
	"strings"

	"github.com/aurwrap/aurwrap/pkg/errors"
)

// srcinfoSection accumulates the dependency lists declared for one pkgname
// section (or for the shared base-level scope).
type srcinfoSection struct {
	depends      []string
	makeDepends  []string
	checkDepends []string
}

// ParseSRCINFO parses the text of a .SRCINFO file into one Package per
// build output, in declaration order.
//
// The format is line-oriented key = value; blank lines and # comments are
// skipped and unrecognized or malformed lines are ignored. Dependency keys
// may carry an architecture suffix (depends_x86_64); the suffix is
// discarded and all variants merge into one list. Each output's final
// dependency lists are the base-level lists followed by its own section's
// lists, per category.
//
// Returns a MISSING_FIELD error if pkgbase, pkgver, or pkgrel was never
// set. A file with no pkgname line yields a single output named after the
// pkgbase.
func ParseSRCINFO(text string) ([]Package, error) {
	var (
		pkgbase string
		pkgver  string
		pkgrel  string
		epoch   string

		base     srcinfoSection
		names    []string
		sections = make(map[string]*srcinfoSection)
		current  *srcinfoSection
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "pkgbase":
			pkgbase = value
			current = nil
		case "pkgver":
			pkgver = value
		case "pkgrel":
			pkgrel = value
		case "epoch":
			epoch = value
		case "pkgname":
			sec := &srcinfoSection{}
			sections[value] = sec
			names = append(names, value)
			current = sec
		default:
			category, ok := depCategory(key)
			if !ok {
				continue
			}
			sec := &base
			if current != nil {
				sec = current
			}
			switch category {
			case "depends":
				sec.depends = append(sec.depends, value)
			case "makedepends":
				sec.makeDepends = append(sec.makeDepends, value)
			case "checkdepends":
				sec.checkDepends = append(sec.checkDepends, value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "reading SRCINFO")
	}

	switch {
	case pkgbase == "":
		return nil, errors.New(errors.ErrCodeMissingField, "SRCINFO missing pkgbase")
	case pkgver == "":
		return nil, errors.New(errors.ErrCodeMissingField, "SRCINFO for %s missing pkgver", pkgbase)
	case pkgrel == "":
		return nil, errors.New(errors.ErrCodeMissingField, "SRCINFO for %s missing pkgrel", pkgbase)
	}

	version := composeVersion(epoch, pkgver, pkgrel)

	if len(names) == 0 {
		names = []string{pkgbase}
		sections[pkgbase] = &srcinfoSection{}
	}

	out := make([]Package, 0, len(names))
	for _, name := range names {
		sec := sections[name]
		out = append(out, Package{
			Name:         name,
			PackageBase:  pkgbase,
			Version:      version,
			Depends:      concat(base.depends, sec.depends),
			MakeDepends:  concat(base.makeDepends, sec.makeDepends),
			CheckDepends: concat(base.checkDepends, sec.checkDepends),
		})
	}
	return out, nil
}

// depCategory maps a SRCINFO key to its dependency category, accepting
// architecture-suffixed variants (depends_aarch64 -> depends).
func depCategory(key string) (string, bool) {
	for _, cat := range []string{"depends", "makedepends", "checkdepends"} {
		if key == cat || strings.HasPrefix(key, cat+"_") {
			return cat, true
		}
	}
	return "", false
}

// composeVersion builds the full version string. An empty or "0" epoch is
// treated as absent.
func composeVersion(epoch, pkgver, pkgrel string) string {
	if epoch != "" && epoch != "0" {
		return epoch + ":" + pkgver + "-" + pkgrel
	}
	return pkgver + "-" + pkgrel
}

// concat joins the base-level and section lists, keeping nil when both are
// empty so "no dependencies" stays distinguishable from "unknown".
func concat(base, section []string) []string {
	if len(base) == 0 && len(section) == 0 {
		return nil
	}
	out := make([]string, 0, len(base)+len(section))
	out = append(out, base...)
	return append(out, section...)
}
