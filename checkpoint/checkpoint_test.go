package checkpoint

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

var (
	errOuter = errors.New("outer")
	errInner = errors.New("inner")
)

type codeError struct{ code int }

func (c codeError) Error() string { return "code" }

func TestFrom(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantNil bool
		wantRaw bool
	}{
		{name: "nil stays nil", err: nil, wantNil: true},
		{name: "io.EOF is passed through", err: io.EOF, wantRaw: true},
		{name: "io.ErrUnexpectedEOF is passed through", err: io.ErrUnexpectedEOF, wantRaw: true},
		{name: "other errors get a checkpoint", err: errInner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("From() = %v, want nil", got)
				}
				return
			}
			if tt.wantRaw && got != tt.err {
				t.Fatalf("From() = %v, want the unchanged error %v", got, tt.err)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("errors.Is(From(), %v) = false", tt.err)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if got := Wrap(nil, errOuter); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}
	if got := Wrap(io.EOF, errOuter); got != io.EOF {
		t.Errorf("Wrap(io.EOF) = %v, want io.EOF", got)
	}

	err := Wrap(errInner, errOuter)
	if !errors.Is(err, errInner) {
		t.Error("wrapped error is not matched")
	}
	if !errors.Is(err, errOuter) {
		t.Error("describing error is not matched")
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Error("unrelated error matched")
	}
	if !strings.Contains(err.Error(), "checkpoint_test.go") {
		t.Errorf("Error() = %q, want the caller file", err.Error())
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errInner, "%w: cluster %d", errOuter, 7)
	if !errors.Is(err, errOuter) || !errors.Is(err, errInner) {
		t.Fatalf("Wrapf() = %v, want both errors matchable", err)
	}
	if !strings.Contains(err.Error(), "cluster 7") {
		t.Errorf("Error() = %q, want the formatted message", err.Error())
	}
}

func TestAs(t *testing.T) {
	err := Wrap(From(errInner), codeError{code: 3})

	var target codeError
	if !errors.As(err, &target) {
		t.Fatal("errors.As() = false, want true")
	}
	if target.code != 3 {
		t.Errorf("code = %d, want 3", target.code)
	}
}
