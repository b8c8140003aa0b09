package native

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/platlayer/internal/perr"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandle_DestroyRunsOnce(t *testing.T) {
	calls := 0
	h := New(KindWindow, 0x42, func(raw uintptr) error {
		calls++
		if raw != 0x42 {
			t.Fatalf("destroy got raw %#x", raw)
		}
		return nil
	}, quietLogger())

	if err := h.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := h.Destroy(); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected destroy to run once, ran %d times", calls)
	}
	if h.Alive() {
		t.Fatalf("expected handle to be dead")
	}
}

func TestHandle_DestroyErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	h := New(KindContext, 1, func(uintptr) error { return boom }, quietLogger())
	err := h.Destroy()
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestHandle_RawAfterForgetPanics(t *testing.T) {
	h := New(KindDevice, 9, nil, quietLogger())
	if got := h.Raw(); got != 9 {
		t.Fatalf("Raw = %d, want 9", got)
	}
	h.Forget()

	defer func() {
		if _, ok := recover().(*perr.PreconditionError); !ok {
			t.Fatalf("expected precondition panic")
		}
	}()
	h.Raw()
}

func TestHandle_Matches(t *testing.T) {
	h := New(KindWindow, 5, nil, quietLogger())
	if !h.Matches(5) || h.Matches(6) {
		t.Fatalf("unexpected Matches result")
	}
	h.Forget()
	if h.Matches(5) {
		t.Fatalf("dead handle must not match")
	}
}
