package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E103",
			wantMsg: "Unknown store backend",
			wantCat: CategoryConfig,
		},
		{
			name:    "store error",
			code:    "E202",
			wantMsg: "Email already registered",
			wantCat: CategoryStore,
		},
		{
			name:    "remote error",
			code:    "E300",
			wantMsg: "Server unreachable",
			wantCat: CategoryRemote,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown flag %q", "--fast")
	if err.Message != `unknown flag "--fast"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
	if err.Error() != `unknown flag "--fast"` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := New("E300").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if got := err.Error(); got != "E300: Server unreachable: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E200") != nil {
		t.Error("FromError(nil) should be nil")
	}

	inner := New("E201")
	wrapped := fmt.Errorf("vote: %w", inner)
	if got := FromError(wrapped, "E200"); got != inner {
		t.Error("FromError should return the *Error already in the chain")
	}

	plain := stderrors.New("disk full")
	got := FromError(plain, "E200")
	if got.Code != "E200" || !stderrors.Is(got, plain) {
		t.Errorf("FromError(plain) = %+v", got)
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("load: %w", New("E104"))
	if !Is(err, "E104") {
		t.Error("Is should match the code in the chain")
	}
	if Is(err, "E103") {
		t.Error("Is should not match other codes")
	}
	if Is(stderrors.New("x"), "E104") {
		t.Error("Is should not match plain errors")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E400").
		WithMessages("Title must be at least 5 characters long.", "Please provide your name.").
		WithSuggestion("Edit the draft and share it again.").
		Wrap(stderrors.New("rejected by server"))

	out := err.Format()
	for _, want := range []string{
		"ERROR E400: Invalid input",
		"Fix the problems below and try again.",
		"✗ Title must be at least 5 characters long.",
		"✗ Please provide your name.",
		"Cause: rejected by server",
		"Hint: Edit the draft and share it again.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E400").WithMessages("a", "b")
	if got := err.FormatCompact(); got != "E400: Invalid input (a; b)" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E104").WithSuggestion("Set OPINIONS_S3_BUCKET.")

	var got map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", jerr)
	}
	if got["code"] != "E104" || got["category"] != "config" || got["suggestion"] != "Set OPINIONS_S3_BUCKET." {
		t.Errorf("FormatJSON() = %v", got)
	}
	if _, ok := got["cause"]; ok {
		t.Error("cause should be omitted without a wrapped error")
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, fmt.Errorf("run: %w", New("E501")))
	if !strings.Contains(buf.String(), "ERROR E501: No server configured") {
		t.Errorf("PrintError structured = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, stderrors.New("boom"))
	if !strings.Contains(buf.String(), "ERROR: boom") {
		t.Errorf("PrintError plain = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, line := range lines {
		if len(line) > 10 {
			t.Errorf("line %q longer than 10", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("no codes registered")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Errorf("codes not sorted: %v", codes)
			break
		}
	}
	for _, code := range codes {
		tmpl, _ := GetTemplate(code)
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s has an incomplete template", code)
		}
	}

	Register("E599", ErrorTemplate{Category: CategoryCLI, Message: "Test only"})
	defer delete(registry, "E599")
	if New("E599").Message != "Test only" {
		t.Error("Register did not take effect")
	}
}
