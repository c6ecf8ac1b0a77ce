package taskerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorf_FormatsAndCarriesCode(t *testing.T) {
	err := Errorf(NotFound, "task %d does not exist", 42)
	if err.Error() != "[not_found] task 42 does not exist" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !IsCode(err, NotFound) {
		t.Error("IsCode should match NotFound")
	}
	if IsCode(err, Conflict) {
		t.Error("IsCode should not match Conflict")
	}
}

func TestNew_WrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(IO, "writing store file", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
	if CodeOf(err) != IO {
		t.Errorf("CodeOf = %v, want IO", CodeOf(err))
	}
}

func TestIsCode_ThroughWrapping(t *testing.T) {
	inner := Errorf(Validation, "bad reference")
	outer := fmt.Errorf("checking dependencies: %w", inner)

	if !IsCode(outer, Validation) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
}

func TestCodeOf_UncodedError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != Internal {
		t.Errorf("CodeOf(plain) = %v, want Internal", got)
	}
}

func TestExpected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", Errorf(Validation, "x"), true},
		{"not found", Errorf(NotFound, "x"), true},
		{"conflict", Errorf(Conflict, "x"), true},
		{"io", Errorf(IO, "x"), true},
		{"normalization", Errorf(Normalization, "x"), true},
		{"internal", Errorf(Internal, "x"), false},
		{"uncoded", errors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expected(tt.err); got != tt.want {
				t.Errorf("Expected(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
