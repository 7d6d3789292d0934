package lua

import (
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// maxRenderDepth bounds nested table rendering.
const maxRenderDepth = 8

// Render formats a Lua value for display. Strings are shown raw at the top
// level and quoted inside tables. Tables print their array part first, then
// the remaining keys in sorted order.
func Render(lv lua.LValue) string {
	if s, ok := lv.(lua.LString); ok {
		return string(s)
	}
	var b strings.Builder
	renderValue(&b, lv, make(map[*lua.LTable]bool), 0)
	return b.String()
}

func renderValue(b *strings.Builder, lv lua.LValue, visited map[*lua.LTable]bool, depth int) {
	switch v := lv.(type) {
	case nil:
		b.WriteString("nil")
	case lua.LString:
		b.WriteString(fmt.Sprintf("%q", string(v)))
	case *lua.LTable:
		if visited[v] || depth >= maxRenderDepth {
			b.WriteString("{...}")
			return
		}
		visited[v] = true
		renderTable(b, v, visited, depth)
		delete(visited, v)
	default:
		b.WriteString(lv.String())
	}
}

type tableEntry struct {
	key   string
	value lua.LValue
}

func renderTable(b *strings.Builder, t *lua.LTable, visited map[*lua.LTable]bool, depth int) {
	n := t.Len()
	var entries []tableEntry
	t.ForEach(func(k, v lua.LValue) {
		if kn, ok := k.(lua.LNumber); ok {
			i := int(kn)
			if float64(i) == float64(kn) && i >= 1 && i <= n {
				return
			}
		}
		entries = append(entries, tableEntry{key: renderKey(k), value: v})
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	b.WriteByte('{')
	first := true
	sep := func() {
		if !first {
			b.WriteString(", ")
		}
		first = false
	}
	for i := 1; i <= n; i++ {
		sep()
		renderValue(b, t.RawGetInt(i), visited, depth+1)
	}
	for _, e := range entries {
		sep()
		b.WriteString(e.key)
		b.WriteString(" = ")
		renderValue(b, e.value, visited, depth+1)
	}
	b.WriteByte('}')
}

func renderKey(k lua.LValue) string {
	if s, ok := k.(lua.LString); ok && isIdentifier(string(s)) {
		return string(s)
	}
	var b strings.Builder
	b.WriteByte('[')
	renderValue(&b, k, nil, maxRenderDepth)
	b.WriteByte(']')
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
