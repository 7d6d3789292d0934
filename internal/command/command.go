// Package command parses prompt text into commands.
//
// Text is split into a command token and an argument remainder. The token
// selects one of a closed set of kinds; text that matches no token is a path.
package command

import (
	"strings"
	"unicode"
)

// Kind identifies a command.
type Kind uint8

const (
	// KindNone is empty input.
	KindNone Kind = iota
	// KindPath lists a directory or opens a file. Unrecognized text lands here.
	KindPath
	// KindProjectList lists every project folder.
	KindProjectList
	// KindHelp shows the command table.
	KindHelp
	// KindAddFolder adds a folder to the project.
	KindAddFolder
	// KindRemoveFolder removes a folder from the project.
	KindRemoveFolder
	// KindShell runs a shell command line.
	KindShell
	// KindEval evaluates an expression.
	KindEval
	// KindFetch fetches a URL.
	KindFetch
	// KindCloseProject clears the project.
	KindCloseProject
)

// Kinds lists every kind that does something, in help order.
var Kinds = []Kind{
	KindPath,
	KindProjectList,
	KindAddFolder,
	KindRemoveFolder,
	KindCloseProject,
	KindShell,
	KindEval,
	KindFetch,
	KindHelp,
}

// String returns the operation name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPath:
		return "path"
	case KindProjectList:
		return "project.list"
	case KindHelp:
		return "help"
	case KindAddFolder:
		return "project.add"
	case KindRemoveFolder:
		return "project.remove"
	case KindShell:
		return "shell"
	case KindEval:
		return "eval"
	case KindFetch:
		return "fetch"
	case KindCloseProject:
		return "project.close"
	default:
		return "unknown"
	}
}

// Command is parsed prompt text.
type Command struct {
	// Kind selects the operation.
	Kind Kind

	// Token is the command token as typed. Empty for KindPath.
	Token string

	// Arg is the argument remainder, trimmed.
	Arg string

	// Raw is the full trimmed input.
	Raw string
}

// token binds prompt syntax to a kind.
type token struct {
	text string
	kind Kind
	// glued tokens may be followed directly by the argument.
	glued bool
	usage string
	help  string
}

// tokens is ordered so that longer symbols win ("..." before any shorter
// prefix).
var tokens = []token{
	{text: "...", kind: KindProjectList, usage: "...", help: "list every project folder"},
	{text: "?", kind: KindHelp, usage: "?", help: "show this help"},
	{text: ":help", kind: KindHelp, usage: ":help", help: "show this help"},
	{text: "+", kind: KindAddFolder, glued: true, usage: "+ <dir>", help: "add a folder to the project"},
	{text: ":add", kind: KindAddFolder, usage: ":add <dir>", help: "add a folder to the project"},
	{text: "-", kind: KindRemoveFolder, glued: true, usage: "- <name|dir>", help: "remove a folder from the project"},
	{text: ":rm", kind: KindRemoveFolder, usage: ":rm <name|dir>", help: "remove a folder from the project"},
	{text: "!", kind: KindShell, glued: true, usage: "!<command>", help: "run a shell command in the current directory"},
	{text: ":sh", kind: KindShell, usage: ":sh <command>", help: "run a shell command in the current directory"},
	{text: "=", kind: KindEval, glued: true, usage: "=<expr>", help: "evaluate a Lua expression"},
	{text: ":eval", kind: KindEval, usage: ":eval <expr>", help: "evaluate a Lua expression"},
	{text: ":get", kind: KindFetch, usage: ":get <url>", help: "fetch a URL (http:// and https:// are fetched directly)"},
	{text: ":close", kind: KindCloseProject, usage: ":close", help: "close the project"},
}

// Parse classifies prompt text.
func Parse(text string) Command {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Command{Kind: KindNone}
	}

	for _, tok := range tokens {
		if !strings.HasPrefix(raw, tok.text) {
			continue
		}
		rest := raw[len(tok.text):]
		if !tok.glued && rest != "" && !startsWithSpace(rest) {
			continue
		}
		if tok.kind == KindProjectList && rest != "" {
			// "..." followed by more text is a path like ".../x".
			continue
		}
		return Command{
			Kind:  tok.kind,
			Token: tok.text,
			Arg:   strings.TrimSpace(rest),
			Raw:   raw,
		}
	}

	if isURL(raw) {
		return Command{Kind: KindFetch, Arg: raw, Raw: raw}
	}

	return Command{Kind: KindPath, Arg: raw, Raw: raw}
}

// Usage describes one prompt form.
type Usage struct {
	Syntax      string
	Description string
}

// Usages returns the prompt forms, in table order, for help output.
func Usages() []Usage {
	out := make([]Usage, 0, len(tokens)+2)
	out = append(out, Usage{Syntax: "<dir>", Description: "list a directory and make it current"})
	out = append(out, Usage{Syntax: "<file>", Description: "open a file, creating it when missing"})
	for _, tok := range tokens {
		out = append(out, Usage{Syntax: tok.usage, Description: tok.help})
	}
	out = append(out, Usage{Syntax: "http(s)://...", Description: "fetch a URL"})
	return out
}

// Usage returns the first prompt form of k, or "" for kinds without a token.
func (k Kind) Usage() string {
	switch k {
	case KindPath:
		return "<dir|file>"
	case KindFetch:
		return ":get <url>"
	}
	for _, tok := range tokens {
		if tok.kind == k {
			return tok.usage
		}
	}
	return ""
}

func startsWithSpace(s string) bool {
	for _, r := range s {
		return unicode.IsSpace(r)
	}
	return false
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
