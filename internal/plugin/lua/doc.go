// Package lua evaluates expressions for the "=" command in an embedded,
// sandboxed Lua runtime.
//
// The State wraps gopher-lua with only the base, table, string and math
// libraries opened. File loading, require and the io/os libraries are not
// reachable from evaluated code. Every evaluation runs under a context so a
// runaway loop ends at the configured timeout:
//
//	state := lua.NewState(lua.WithExecutionTimeout(2 * time.Second))
//	defer state.Close()
//
//	lines, err := state.Eval(ctx, "1 + 2")
//	// lines == []string{"3"}
//
// Eval first tries the text as an expression ("return <text>"), then as a
// chunk of statements. Output of print calls comes first, followed by the
// returned values, one per line. Globals persist between evaluations, so
// "= x = 4" followed by "= x * 2" yields "8".
package lua
