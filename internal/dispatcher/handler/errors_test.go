package handler_test

import (
	"errors"
	"testing"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
)

func TestUsageError(t *testing.T) {
	err := handler.MissingArgument(command.KindShell)

	if !errors.Is(err, handler.ErrMissingArgument) {
		t.Error("expected ErrMissingArgument in chain")
	}
	if err.Kind() != "UsageError" {
		t.Errorf("Kind() = %q", err.Kind())
	}
	want := "shell: missing argument (usage: !<command>)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &handler.UsageError{Command: command.KindNone, Err: errors.New("nothing")}
	if bare.Error() != "none: nothing" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
