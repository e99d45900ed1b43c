package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// Names are used as URL path segments (mirror branches) and as clone
// directory names, so anything that could traverse paths is rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash
		"/",    // Names never contain path separators
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// aurPackageNameRegex matches valid Arch package names: lowercase
// alphanumerics plus @ . _ + -, not starting with a hyphen or dot.
var aurPackageNameRegex = regexp.MustCompile(`^[a-z0-9@_+][a-z0-9@._+-]*$`)

// ValidateAURPackageName validates an AUR package name per the Arch
// packaging rules. It layers the repository naming convention on top of
// the generic safety checks.
func ValidateAURPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if !aurPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid AUR package name: %q", name)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeConfig, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeConfig, "URL must use http or https scheme")
	}

	return nil
}
