package classfile

import (
	"fmt"
	"strconv"
	"strings"
)

// Annotation is one decoded RuntimeVisible or RuntimeInvisible annotation.
// Only attributes written explicitly in source are present; defaults declared
// on the annotation type are not stored in the class file.
type Annotation struct {
	Type    string // dotted class name, e.g. org.springframework.stereotype.Service
	Visible bool
	Names   []string // attribute names in declaration order
	Values  map[string]ElementValue
}

// ElementValue is one annotation attribute value.
type ElementValue struct {
	Tag        byte // B C D F I J S Z s e c @ [
	Const      any  // string, int64, float64 or bool for constant tags
	EnumType   string
	EnumName   string
	Class      string
	Annotation *Annotation
	Array      []ElementValue
}

// Text renders a scalar value as text. Arrays and nested annotations report false.
func (v ElementValue) Text() (string, bool) {
	switch v.Tag {
	case 'e':
		return v.EnumName, true
	case 'c':
		return v.Class, true
	case '[', '@':
		return "", false
	}
	switch c := v.Const.(type) {
	case string:
		return c, true
	case int64:
		return strconv.FormatInt(c, 10), true
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(c), true
	}
	return "", false
}

// Value returns the raw value of the named attribute.
func (a Annotation) Value(name string) (ElementValue, bool) {
	if a.Values == nil {
		return ElementValue{}, false
	}
	v, ok := a.Values[name]
	return v, ok
}

// Strings flattens the named attribute into its non-blank scalar texts.
// A scalar attribute yields at most one element.
func (a Annotation) Strings(name string) []string {
	v, ok := a.Value(name)
	if !ok {
		return nil
	}
	var out []string
	collect := func(ev ElementValue) {
		if s, ok := ev.Text(); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if v.Tag == '[' {
		for _, ev := range v.Array {
			collect(ev)
		}
		return out
	}
	collect(v)
	return out
}

// String returns the first non-blank text of the named attribute.
func (a Annotation) String(name string) (string, bool) {
	vals := a.Strings(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Int returns the named attribute when it holds an integral constant.
func (a Annotation) Int(name string) (int64, bool) {
	v, ok := a.Value(name)
	if !ok {
		return 0, false
	}
	n, ok := v.Const.(int64)
	if !ok || v.Tag == 'C' {
		return 0, false
	}
	return n, true
}

func readAnnotations(r *reader, cp constPool, visible bool) ([]Annotation, error) {
	n := int(r.u2())
	out := make([]Annotation, 0, n)
	for i := 0; i < n; i++ {
		a, err := readAnnotation(r, cp, visible)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, r.err
}

func readAnnotation(r *reader, cp constPool, visible bool) (Annotation, error) {
	desc, err := cp.utf8(r.u2())
	if err != nil {
		return Annotation{}, err
	}
	a := Annotation{Type: TypeName(desc), Visible: visible}
	pairs := int(r.u2())
	if pairs > 0 {
		a.Values = make(map[string]ElementValue, pairs)
	}
	for i := 0; i < pairs; i++ {
		name, err := cp.utf8(r.u2())
		if err != nil {
			return Annotation{}, err
		}
		v, err := readElementValue(r, cp, visible)
		if err != nil {
			return Annotation{}, err
		}
		if _, dup := a.Values[name]; !dup {
			a.Names = append(a.Names, name)
		}
		a.Values[name] = v
	}
	return a, r.err
}

func readElementValue(r *reader, cp constPool, visible bool) (ElementValue, error) {
	tag := r.u1()
	if r.err != nil {
		return ElementValue{}, r.err
	}
	v := ElementValue{Tag: tag}
	switch tag {
	case 'B', 'I', 'S', 'Z', 'C':
		e, err := cp.entry(r.u2(), tagInteger)
		if err != nil {
			return v, err
		}
		switch tag {
		case 'Z':
			v.Const = e.num != 0
		case 'C':
			v.Const = string(rune(e.num))
		default:
			v.Const = e.num
		}
	case 'J':
		e, err := cp.entry(r.u2(), tagLong)
		if err != nil {
			return v, err
		}
		v.Const = e.num
	case 'F':
		e, err := cp.entry(r.u2(), tagFloat)
		if err != nil {
			return v, err
		}
		v.Const = e.fnum
	case 'D':
		e, err := cp.entry(r.u2(), tagDouble)
		if err != nil {
			return v, err
		}
		v.Const = e.fnum
	case 's':
		s, err := cp.utf8(r.u2())
		if err != nil {
			return v, err
		}
		v.Const = s
	case 'e':
		typ, err := cp.utf8(r.u2())
		if err != nil {
			return v, err
		}
		name, err := cp.utf8(r.u2())
		if err != nil {
			return v, err
		}
		v.EnumType = TypeName(typ)
		v.EnumName = name
	case 'c':
		desc, err := cp.utf8(r.u2())
		if err != nil {
			return v, err
		}
		v.Class = TypeName(desc)
	case '@':
		nested, err := readAnnotation(r, cp, visible)
		if err != nil {
			return v, err
		}
		v.Annotation = &nested
	case '[':
		n := int(r.u2())
		v.Array = make([]ElementValue, 0, n)
		for i := 0; i < n; i++ {
			ev, err := readElementValue(r, cp, visible)
			if err != nil {
				return v, err
			}
			v.Array = append(v.Array, ev)
		}
	default:
		return v, fmt.Errorf("classfile: unknown element value tag %q", tag)
	}
	return v, r.err
}
