package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func TestSiteError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SiteError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "playbook invalid"),
			expected: "config (fatal): playbook invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryUI, SeverityFatal, "failed to load bundle"),
			expected: "ui (fatal): failed to load bundle: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.err.Error(); got != test.expected {
				t.Errorf("Error() = %q, want %q", got, test.expected)
			}
		})
	}
}

func TestSiteError_WithContext(t *testing.T) {
	err := New(CategoryGit, SeverityWarning, "fetch failed").
		WithContext("url", "https://example.test/repo.git").
		WithContext("ref", "main")

	if err.Context["url"] != "https://example.test/repo.git" {
		t.Errorf("Context[url] = %v", err.Context["url"])
	}
	if err.Context["ref"] != "main" {
		t.Errorf("Context[ref] = %v", err.Context["ref"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	wrapped := fmt.Errorf("outer: %w", New(CategoryPublish, SeverityFatal, "disk full"))
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match git category", configErr, CategoryGit, false},
		{"wrapped publish error is found through the chain", wrapped, CategoryPublish, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCategory(test.err, test.category); got != test.expected {
				t.Errorf("IsCategory() = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := ConversionFailed("modules/ROOT/pages/index.md", cause)
	if !stdErrors.Is(err, cause) {
		t.Fatal("errors.Is should find the wrapped cause")
	}
	if GetCategory(err) != CategoryConversion {
		t.Errorf("GetCategory() = %s", GetCategory(err))
	}
	if GetCategory(cause) != CategoryInternal {
		t.Errorf("plain errors should classify as internal")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(GitFetchError("u", stdErrors.New("timeout"))) {
		t.Error("git fetch errors should be retryable")
	}
	if IsRetryable(GitAuthError("u", stdErrors.New("denied"))) {
		t.Error("git auth errors should not be retryable")
	}
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{stdErrors.New("plain"), 1},
		{ValidationFailed("site.url", "must be absolute"), 2},
		{ConfigNotFound("site.yml"), 7},
		{UILoadFailed("ui.zip", stdErrors.New("missing")), 8},
		{CompositionFailed("index.html", stdErrors.New("bad template")), 11},
		{PublishFailed("fs", stdErrors.New("EACCES")), 12},
		{InternalError("oops", nil), 10},
	}
	for _, tc := range tests {
		if got := a.ExitCodeFor(tc.err); got != tc.code {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", tc.err, got, tc.code)
		}
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	a.stderr = &stderr

	code := a.HandleError(ConfigRequired("playbook"))
	if code != 7 {
		t.Fatalf("HandleError() = %d, want 7", code)
	}
	if got := stderr.String(); got != "required playbook setting missing\n" {
		t.Errorf("stderr = %q", got)
	}
	if !bytes.Contains(logs.Bytes(), []byte("field=playbook")) {
		t.Errorf("expected context fields in log output, got %q", logs.String())
	}
}
