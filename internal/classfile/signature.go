package classfile

import "strings"

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// TypeName renders a field descriptor or generic type signature in source
// form: "Ljava/util/List<Lcom/acme/Order;>;" becomes "java.util.List<com.acme.Order>".
// Input that does not parse is returned unchanged.
func TypeName(sig string) string {
	p := sigParser{s: sig}
	out, ok := p.typeSig()
	if !ok || p.pos != len(p.s) {
		return sig
	}
	return out
}

// ClassName converts an internal class name (com/acme/Order) to dotted form.
func ClassName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

type sigParser struct {
	s   string
	pos int
}

func (p *sigParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *sigParser) typeSig() (string, bool) {
	c := p.peek()
	if name, ok := baseTypes[c]; ok {
		p.pos++
		return name, true
	}
	switch c {
	case 'L':
		return p.classSig()
	case 'T':
		end := strings.IndexByte(p.s[p.pos:], ';')
		if end < 0 {
			return "", false
		}
		name := p.s[p.pos+1 : p.pos+end]
		p.pos += end + 1
		return name, true
	case '[':
		p.pos++
		elem, ok := p.typeSig()
		if !ok {
			return "", false
		}
		return elem + "[]", true
	}
	return "", false
}

func (p *sigParser) classSig() (string, bool) {
	p.pos++ // 'L'
	var b strings.Builder
	for {
		c := p.peek()
		switch c {
		case 0:
			return "", false
		case ';':
			p.pos++
			return b.String(), true
		case '/':
			b.WriteByte('.')
			p.pos++
		case '.':
			// inner class of a parameterized outer type
			b.WriteByte('$')
			p.pos++
		case '<':
			p.pos++
			args, ok := p.typeArgs()
			if !ok {
				return "", false
			}
			b.WriteByte('<')
			b.WriteString(strings.Join(args, ", "))
			b.WriteByte('>')
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *sigParser) typeArgs() ([]string, bool) {
	var args []string
	for {
		c := p.peek()
		switch c {
		case 0:
			return nil, false
		case '>':
			p.pos++
			return args, true
		case '*':
			p.pos++
			args = append(args, "?")
		case '+', '-':
			p.pos++
			t, ok := p.typeSig()
			if !ok {
				return nil, false
			}
			if c == '+' {
				args = append(args, "? extends "+t)
			} else {
				args = append(args, "? super "+t)
			}
		default:
			t, ok := p.typeSig()
			if !ok {
				return nil, false
			}
			args = append(args, t)
		}
	}
}
