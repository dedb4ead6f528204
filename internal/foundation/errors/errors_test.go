package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid recipe").
			WithSeverity(SeverityFatal).
			WithContext("file", "recipe.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "recipe.yaml" {
			t.Errorf("expected context file=recipe.yaml, got %v", file)
		}
	})

	t.Run("Recipe failure kinds", func(t *testing.T) {
		fetch := FetchError("clone failed").Build()
		build := BuildError("npm test failed").Build()
		warn := PackagingWarning("no files matched").Build()

		if !IsFetchError(fetch) || IsBuildError(fetch) {
			t.Error("fetch error misclassified")
		}
		if !IsBuildError(build) || !build.IsFatal() {
			t.Error("build error should be fatal build category")
		}
		if !IsPackagingWarning(warn) || warn.IsFatal() {
			t.Error("packaging warning should be non-fatal")
		}
		if IsPackagingWarning(PackagingError("strict").Build()) {
			t.Error("fatal packaging error is not a warning")
		}
	})

	t.Run("Wrapped chain", func(t *testing.T) {
		original := errors.New("exit status 1")
		err := fmt.Errorf("phase build: %w", WrapError(original, CategoryBuild, "command failed").Fatal().Build())

		if !IsBuildError(err) {
			t.Error("expected classified error to be found through wrapping")
		}
		if !errors.Is(err, original) {
			t.Error("expected chain to reach original error")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("plain errors default to internal")
		}
	})
}

func TestErrorContextMerge(t *testing.T) {
	base := ErrorContext{"a": 1, "b": 2}
	merged := base.Merge(ErrorContext{"b": 3})

	if merged["a"] != 1 || merged["b"] != 3 {
		t.Fatalf("unexpected merge result: %v", merged)
	}
	if base["b"] != 2 {
		t.Fatal("merge must not mutate receiver")
	}
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad build type").Build(), expected: 2},
		{name: "config", err: ConfigError("bad recipe").Build(), expected: 7},
		{name: "fetch", err: FetchError("clone failed").Build(), expected: 8},
		{name: "build", err: BuildError("npm test failed").Build(), expected: 11},
		{name: "packaging", err: PackagingError("strict").Build(), expected: 11},
		{name: "journal", err: JournalError("db locked").Build(), expected: 12},
		{name: "unclassified", err: errors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	err := BuildError("command failed").
		WithCause(errors.New("exit status 2")).
		WithContext("command", "npm test").
		Build()

	got := quiet.FormatError(err)
	for _, want := range []string{"Error: command failed", "exit status 2", "command: npm test"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatError() = %q, missing %q", got, want)
		}
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	if got := verbose.FormatError(err); got != err.Error() {
		t.Errorf("verbose FormatError() = %q, want %q", got, err.Error())
	}
	if got := quiet.FormatError(errors.New("plain")); got != "Error: plain" {
		t.Errorf("FormatError(plain) = %q", got)
	}
}
