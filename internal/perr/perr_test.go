package perr

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestError_IsMatchesKindAndCause(t *testing.T) {
	cause := errors.New("no display")
	err := fmt.Errorf("failed to create window: %w", Platform("window.Create", cause))

	if !errors.Is(err, ErrPlatform) {
		t.Fatalf("expected ErrPlatform, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable, got %v", err)
	}
	if errors.Is(err, ErrStaleHandle) {
		t.Fatalf("did not expect ErrStaleHandle")
	}
}

func TestError_MessageIncludesOpAndSubject(t *testing.T) {
	err := Stale("window.SetState", "window 7")
	msg := err.Error()
	if !strings.Contains(msg, "window.SetState") || !strings.Contains(msg, "window 7") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{Stale("op", ""), ErrStaleHandle},
		{Invalid("op", "bad %s", "x"), ErrInvalidArgument},
		{New("op", ErrContextBusy, "", nil), ErrContextBusy},
		{errors.New("plain"), nil},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestViolate_Panics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	defer func() {
		r := recover()
		pe, ok := r.(*PreconditionError)
		if !ok {
			t.Fatalf("expected *PreconditionError panic, got %#v", r)
		}
		if pe.Op != "glctx.Destroy" {
			t.Fatalf("unexpected op %q", pe.Op)
		}
	}()
	Violate(logger, "glctx.Destroy", "context %d still current", 3)
}
