package lua

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are base functions that reach the file system or load
// arbitrary code.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"collectgarbage",
}

// Sandbox restricts a Lua state to side-effect free evaluation.
type Sandbox struct {
	L *lua.LState

	printed []string
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{L: L}
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Install removes the unsafe globals and redirects print into the sandbox.
func (s *Sandbox) Install() {
	for _, name := range removedGlobals {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.L.SetGlobal("print", s.L.NewFunction(s.print))
}

// print collects its arguments tab-separated, like the stock print does on
// stdout.
func (s *Sandbox) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	s.printed = append(s.printed, strings.Join(parts, "\t"))
	return 0
}

// TakePrinted returns and clears the collected print output.
func (s *Sandbox) TakePrinted() []string {
	out := s.printed
	s.printed = nil
	return out
}
