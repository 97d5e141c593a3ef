package value

import (
	"strconv"
	"strings"
)

// Inspect renders v for display. Value objects are prefixed with '#'.
func Inspect(v Value) string {
	var b strings.Builder
	inspect(&b, v, 0, false)
	return b.String()
}

const maxInspectDepth = 6

func inspect(b *strings.Builder, v Value, depth int, nested bool) {
	switch v := v.(type) {
	case String:
		if nested {
			b.WriteString(strconv.Quote(string(v)))
		} else {
			b.WriteString(string(v))
		}
	case *Object:
		inspectObject(b, v, depth)
	default:
		b.WriteString(ToString(v))
	}
}

func inspectObject(b *strings.Builder, o *Object, depth int) {
	if o.IsCallable() {
		b.WriteString("[Function: " + ToString(o.Get("name")) + "]")
		return
	}
	if o.class == ClassError {
		b.WriteString(ToString(o))
		return
	}
	if o.tagged {
		b.WriteByte('#')
	}
	if depth >= maxInspectDepth {
		if o.class == ClassArray {
			b.WriteString("[...]")
		} else {
			b.WriteString("{...}")
		}
		return
	}
	if o.class == ClassArray {
		b.WriteByte('[')
		for i, e := range o.Elements() {
			if i > 0 {
				b.WriteString(", ")
			}
			inspect(b, e, depth+1, true)
		}
		b.WriteByte(']')
		return
	}
	keys := o.Keys()
	if len(keys) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{ ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		p, _ := o.GetOwn(k)
		inspect(b, p, depth+1, true)
	}
	b.WriteString(" }")
}
