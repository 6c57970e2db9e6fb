package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		message  string
	}{
		{"R001", CategoryScope, "Lifecycle hook called outside component setup"},
		{"R003", CategoryScope, "No parent context"},
		{"R004", CategoryRender, "Component render failed"},
		{"R007", CategoryStructure, "Node is not mounted"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code)
			if err.Code != tt.code {
				t.Errorf("Code = %v, want %v", err.Code, tt.code)
			}
			if err.Category != tt.category {
				t.Errorf("Category = %v, want %v", err.Category, tt.category)
			}
			if err.Message != tt.message {
				t.Errorf("Message = %v, want %v", err.Message, tt.message)
			}
		})
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("R999")
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q, want %q", err.Message, "Unknown error")
	}
}

func TestError_Error(t *testing.T) {
	err := New("R003").WithDetail("theme")
	want := "R003: No parent context (theme)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := New("R004").Wrap(fmt.Errorf("boom"))
	if !strings.HasSuffix(wrapped.Error(), ": boom") {
		t.Errorf("Error() = %q, want suffix %q", wrapped.Error(), ": boom")
	}
}

func TestErrorIsByCode(t *testing.T) {
	sentinel := New("R001")
	err := fmt.Errorf("setup: %w", New("R001").WithDetail("OnMount"))

	if !stdErrors.Is(err, sentinel) {
		t.Error("errors.Is should match by code")
	}
	if stdErrors.Is(err, New("R002")) {
		t.Error("errors.Is should not match a different code")
	}
	if stdErrors.Is(Newf(CategoryCLI, "x"), Newf(CategoryCLI, "x")) {
		t.Error("codeless errors should not match by code")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stdErrors.New("cause")
	err := New("R005").Wrap(cause)
	if !stdErrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "R004") != nil {
		t.Error("FromError(nil) should be nil")
	}

	re := New("R003")
	if got := FromError(re, "R004"); got != re {
		t.Error("FromError should return *Error unchanged")
	}

	got := FromError(stdErrors.New("plain"), "R004")
	if got.Code != "R004" || got.Wrapped == nil {
		t.Errorf("FromError = %+v, want R004 wrapping plain", got)
	}
}

func TestFromPanic(t *testing.T) {
	tests := []struct {
		name  string
		value any
		code  string
	}{
		{"error", stdErrors.New("bad"), "R004"},
		{"string", "bad", "R004"},
		{"coded", New("R001"), "R001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromPanic(tt.value, "R004")
			if err.Code != tt.code {
				t.Errorf("Code = %v, want %v", err.Code, tt.code)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("R001").WithDetail("OnMount called from render").Format()
	for _, want := range []string{"ERROR R001", "OnMount called from render", "Hint:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	got := New("R008").FormatCompact()
	if got != "R008: Incompatible patch" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) != len(registry) {
		t.Errorf("len(codes) = %d, want %d", len(codes), len(registry))
	}
	for _, code := range codes {
		if _, ok := GetTemplate(code); !ok {
			t.Errorf("GetTemplate(%q) not found", code)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText of empty text should be nil")
	}
}
