package javasrc

import (
	"strings"
	"unicode"

	"codevision/internal/scanner"
)

// javaLang are the implicitly imported java.lang types that appear in field
// declarations.
var javaLang = map[string]bool{
	"Boolean": true, "Byte": true, "Character": true, "CharSequence": true,
	"Class": true, "Double": true, "Enum": true, "Float": true,
	"Integer": true, "Iterable": true, "Long": true, "Number": true,
	"Object": true, "Record": true, "Runnable": true, "Short": true,
	"String": true, "StringBuilder": true, "Thread": true, "Void": true,
}

// resolver qualifies simple names through a compilation unit's package and
// imports.
type resolver struct {
	pkg      string
	explicit map[string]string
	wildcard []string
}

// newResolver builds a resolver from the unit package and its non-static
// import targets ("com.acme.Foo", "jakarta.persistence.*").
func newResolver(pkg string, imports []string) *resolver {
	r := &resolver{pkg: pkg, explicit: make(map[string]string)}
	for _, imp := range imports {
		imp = strings.TrimSpace(imp)
		if strings.HasSuffix(imp, ".*") {
			r.wildcard = append(r.wildcard, strings.TrimSuffix(imp, ".*"))
			continue
		}
		if i := strings.LastIndexByte(imp, '.'); i > 0 {
			r.explicit[imp[i+1:]] = imp
		}
	}
	return r
}

// qualify returns the fully qualified name of a class declared in this unit.
func (r *resolver) qualify(simple string) string {
	if r.pkg == "" {
		return simple
	}
	return r.pkg + "." + simple
}

// annotation resolves an annotation name. Wildcard imports only resolve
// annotations the scanners know about; anything else keeps its written name.
func (r *resolver) annotation(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	if name == "" || strings.Contains(name, ".") {
		return name
	}
	if fqn, ok := r.explicit[name]; ok {
		return fqn
	}
	for _, p := range r.wildcard {
		if cand := p + "." + name; scanner.KnownAnnotation(cand) {
			return cand
		}
	}
	return name
}

// typeName resolves one identifier of a type expression.
func (r *resolver) typeName(name string) string {
	if name == "" || strings.Contains(name, ".") || !unicode.IsUpper(rune(name[0])) {
		return name
	}
	if fqn, ok := r.explicit[name]; ok {
		return fqn
	}
	if javaLang[name] {
		return "java.lang." + name
	}
	return r.qualify(name)
}

// typeText resolves every identifier of a written type and normalizes its
// spacing to "Outer<A, ? extends B>[]".
func (r *resolver) typeText(text string) string {
	var b strings.Builder
	flush := func(tok string) {
		switch tok {
		case "":
		case "extends", "super":
			b.WriteString(" " + tok + " ")
		default:
			b.WriteString(r.typeName(tok))
		}
	}

	start := -1
	for i, c := range text {
		if isIdentRune(c) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(text[start:i])
			start = -1
		}
		switch {
		case unicode.IsSpace(c):
		case c == ',':
			b.WriteString(", ")
		default:
			b.WriteRune(c)
		}
	}
	if start >= 0 {
		flush(text[start:])
	}
	return b.String()
}

func isIdentRune(c rune) bool {
	return c == '_' || c == '$' || c == '.' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

// stereotypesOf maps resolved annotations onto stereotype tags.
func stereotypesOf(annotations []string) []string {
	return scanner.Stereotypes(annotations)
}
