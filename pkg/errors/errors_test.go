package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(ErrCodeMissingProgram, "no program for node type %d", 3)
	if err.Code != ErrCodeMissingProgram {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMissingProgram)
	}
	if want := "MISSING_PROGRAM: no program for node type 3"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeInvalidGraph, cause, "load %s", "graph.json")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.Message != "load graph.json" {
		t.Errorf("Message = %q, want %q", err.Message, "load graph.json")
	}
}

// chain covers the shapes errors take by the time they reach a caller.
var chain = []struct {
	name string
	err  error
	code Code
}{
	{"direct", New(ErrCodeInvalidContainer, "width 0"), ErrCodeInvalidContainer},
	{"outer code wins", Wrap(ErrCodeInvalidGraph, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeInvalidGraph},
	{"through fmt", fmt.Errorf("render: %w", New(ErrCodeKilled, "renderer killed")), ErrCodeKilled},
	{"plain", errors.New("plain"), ""},
	{"nil", nil, ""},
}

func TestGetCode(t *testing.T) {
	for _, tt := range chain {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestIs(t *testing.T) {
	for _, tt := range chain {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%v, %s) = false, want true", tt.err, tt.code)
			}
			if Is(tt.err, ErrCodeTimeout) {
				t.Errorf("Is(%v, TIMEOUT) = true, want false", tt.err)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrCodeInvalidSetting, "label_density must be >= 0, got -1"), "label_density must be >= 0, got -1"},
		{fmt.Errorf("invalid options: %w", New(ErrCodeInvalidInput, "input is required")), "input is required"},
		{errors.New("connection refused"), "connection refused"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestIsConfiguration(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"missing program", New(ErrCodeMissingProgram, "node type 3"), true},
		{"invalid container", New(ErrCodeInvalidContainer, "width 0"), true},
		{"invalid setting", Wrap(ErrCodeInvalidSetting, errors.New("bad"), "label_density"), true},
		{"invalid graph", New(ErrCodeInvalidGraph, "edge 2"), false},
		{"plain", errors.New("plain"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfiguration(tt.err); got != tt.want {
				t.Errorf("IsConfiguration() = %v, want %v", got, tt.want)
			}
		})
	}
}
