// Package scanner extracts the structural graph and the call graph from the
// class files on a resolved classpath.
package scanner

import "strings"

// excludedNamespaces are never recorded as call participants.
var excludedNamespaces = []string{"java.", "javax.", "jakarta.", "jdk.", "sun."}

// Filter decides which classes take part in a scan.
type Filter struct {
	acceptPackages []string
}

// NewFilter creates a filter. An empty prefix list accepts every class.
func NewFilter(acceptPackages []string) Filter {
	var prefixes []string
	for _, p := range acceptPackages {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return Filter{acceptPackages: prefixes}
}

// Accepts reports whether className starts with an accepted prefix and is
// not a test double.
func (f Filter) Accepts(className string) bool {
	if className == "" || IsMockClassName(className) {
		return false
	}
	if len(f.acceptPackages) == 0 {
		return true
	}
	for _, p := range f.acceptPackages {
		if strings.HasPrefix(className, p) {
			return true
		}
	}
	return false
}

// acceptsCall additionally drops the platform namespaces.
func (f Filter) acceptsCall(className string) bool {
	if strings.HasPrefix(className, "[") {
		return false
	}
	for _, ns := range excludedNamespaces {
		if strings.HasPrefix(className, ns) {
			return false
		}
	}
	return f.Accepts(className)
}

// IsMockClassName reports whether the innermost simple name contains "mock",
// ignoring case.
func IsMockClassName(className string) bool {
	if strings.TrimSpace(className) == "" {
		return false
	}
	simple := className
	if i := strings.LastIndexByte(simple, '.'); i >= 0 && i+1 < len(simple) {
		simple = simple[i+1:]
	}
	if i := strings.LastIndexByte(simple, '$'); i >= 0 && i+1 < len(simple) {
		simple = simple[i+1:]
	}
	return strings.Contains(strings.ToLower(simple), "mock")
}

// isAnonymous reports whether the name ends in a compiler-numbered inner class.
func isAnonymous(className string) bool {
	i := strings.LastIndexByte(className, '$')
	if i < 0 || i+1 == len(className) {
		return false
	}
	for _, r := range className[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
