package fault

import (
	"errors"
	"testing"
)

func TestError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "module not found")
		if err.Error() != "[NOT_FOUND] module not found" {
			t.Errorf("expected [NOT_FOUND] module not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeParse, "parse failure")
		expected := "[PARSE_ERROR] parse failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeConfig, "invalid key")
		if !IsCode(err, CodeConfig) {
			t.Error("expected IsCode to return true for CodeConfig")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeStorage, "snapshot write failed")
		if !IsCode(err, CodeStorage) {
			t.Error("expected IsCode to return true for wrapped CodeStorage")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := New(CodeNotFound, "module not found")
		err = AddContext(err, CtxModule, "foo.bar")
		var fe *Error
		if !errors.As(err, &fe) {
			t.Fatal("expected *Error after AddContext")
		}
		if fe.Context[CtxModule] != "foo.bar" {
			t.Errorf("expected context module foo.bar, got %v", fe.Context[CtxModule])
		}
	})
}
