package graph

import "strings"

// NormalizeType reduces a declared type to the raw class name used as a
// dependency target. Generic arguments are cut at the first '<', a leading
// descriptor marker ("Lcom/acme/Foo;") is removed, and the remainder must
// contain a package separator. It returns "" when no target can be derived.
func NormalizeType(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 1 && s[0] == 'L' && (strings.HasSuffix(s, ";") || strings.Contains(s, "/")) {
		s = s[1:]
	}
	s = strings.TrimSuffix(s, ";")
	s = strings.ReplaceAll(s, "/", ".")
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "[]") || !strings.Contains(s, ".") {
		return ""
	}
	return s
}

// PackageOf returns the package portion of a dotted class name.
func PackageOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

// SimpleName returns the class name after the package, including any
// enclosing class prefix ("Outer$Inner").
func SimpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// AppendUnique appends the values of add not already present in dst.
func AppendUnique(dst []string, add ...string) []string {
	for _, v := range add {
		if !contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
