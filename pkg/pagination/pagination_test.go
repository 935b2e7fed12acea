package pagination

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorEncodeParse(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 123, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("cursor mismatch: got %+v want %+v", got, want)
	}
}

func TestParseCursorBlankAndInvalid(t *testing.T) {
	if c, err := ParseCursor("  "); c != nil || err != nil {
		t.Fatalf("blank cursor should be nil, got %v %v", c, err)
	}
	for _, raw := range []string{"%%%", "bm90LWEtY3Vyc29y", EncodeCursor(Cursor{})[:6]} {
		if _, err := ParseCursor(raw); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("%q: expected ErrInvalidCursor, got %v", raw, err)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	for in, want := range map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, 500: MaxLimit} {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTrim(t *testing.T) {
	key := func(i int) Cursor { return Cursor{ID: uuid.NewSHA1(uuid.Nil, []byte{byte(i)})} }

	rows, next := Trim([]int{1, 2, 3}, 3, key)
	if len(rows) != 3 || next != nil {
		t.Fatalf("exact page must not report a next cursor: %v %v", rows, next)
	}

	rows, next = Trim([]int{1, 2, 3, 4}, 3, key)
	if len(rows) != 3 || next == nil || next.ID != key(3).ID {
		t.Fatalf("expected trimmed page with cursor at the last kept row, got %v %v", rows, next)
	}
}
