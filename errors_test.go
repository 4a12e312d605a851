package formbd

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewError(t *testing.T) {
	t.Run("no detail returns the bare sentinel", func(t *testing.T) {
		err := newError(ErrDocNotFound, nil)
		if err != ErrDocNotFound {
			t.Errorf("newError(kind, nil) = %v, want the sentinel itself", err)
		}
	})

	t.Run("detail wraps the sentinel", func(t *testing.T) {
		err := newError(ErrSchemaViolation, []byte("field 'age' must be an integer"))
		if !errors.Is(err, ErrSchemaViolation) {
			t.Errorf("errors.Is() = false, want match on ErrSchemaViolation")
		}
		if got := Detail(err); string(got) != "field 'age' must be an integer" {
			t.Errorf("Detail() = %q, want the diagnostic bytes", got)
		}
	})

	t.Run("nil kind is nil", func(t *testing.T) {
		if err := newError(nil, []byte("ignored")); err != nil {
			t.Errorf("newError(nil, detail) = %v, want nil", err)
		}
	})
}

func TestError_Rendering(t *testing.T) {
	err := newError(ErrSchemaViolation, []byte("missing required field"))
	want := "formbd: schema violation: missing required field"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDetail(t *testing.T) {
	t.Run("bare sentinel has no detail", func(t *testing.T) {
		if got := Detail(ErrDocNotFound); got != nil {
			t.Errorf("Detail(sentinel) = %v, want nil", got)
		}
	})

	t.Run("wrapped errors still expose detail", func(t *testing.T) {
		inner := newError(ErrInvalidArgument, []byte("bad selector"))
		outer := fmt.Errorf("running batch: %w", inner)
		if got := Detail(outer); string(got) != "bad selector" {
			t.Errorf("Detail() = %q, want %q", got, "bad selector")
		}
	})

	t.Run("foreign errors have no detail", func(t *testing.T) {
		if got := Detail(errors.New("unrelated")); got != nil {
			t.Errorf("Detail(foreign) = %v, want nil", got)
		}
	})
}
