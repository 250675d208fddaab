package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cutroom/internal/artifact"
	"cutroom/internal/logging"
	"cutroom/internal/services"
)

type chainFixture struct {
	paths    artifact.Paths
	original string
	final    string
	chain    *artifact.Chain
}

func newChainFixture(t *testing.T) chainFixture {
	t.Helper()
	base := t.TempDir()
	paths := artifact.Paths{
		Originals: filepath.Join(base, "originals"),
		Processed: filepath.Join(base, "processed"),
		Temp:      filepath.Join(base, "tmp"),
	}
	for _, dir := range []string{paths.Originals, paths.Processed, paths.Temp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	original := filepath.Join(paths.Originals, "clip.mp4")
	if err := os.WriteFile(original, []byte("src"), 0o644); err != nil {
		t.Fatalf("write original: %v", err)
	}
	return chainFixture{
		paths:    paths,
		original: original,
		final:    paths.FinalOutput(original),
		chain:    artifact.NewChain(paths, artifact.LocalStorage{}, logging.NewNop()),
	}
}

func appendStep(tag string, seen *[]string) artifact.Step {
	return artifact.Step{
		Name: tag,
		Apply: func(_ context.Context, input, output string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			if seen != nil {
				*seen = append(*seen, output)
			}
			return os.WriteFile(output, append(data, "+"+tag...), 0o644)
		},
	}
}

func tempEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestChainRunAppliesStepsInOrder(t *testing.T) {
	fx := newChainFixture(t)
	var outputs []string

	steps := []artifact.Step{
		appendStep("a", &outputs),
		appendStep("b", &outputs),
		{
			Name: "c",
			Apply: func(ctx context.Context, input, output string) error {
				if _, err := os.Stat(outputs[0]); !os.IsNotExist(err) {
					t.Errorf("first intermediate should be gone before step three, stat err=%v", err)
				}
				return appendStep("c", &outputs).Apply(ctx, input, output)
			},
		},
	}

	if err := fx.chain.Run(context.Background(), fx.original, fx.final, steps); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(fx.final)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if string(got) != "src+a+b+c" {
		t.Fatalf("final content = %q, want %q", got, "src+a+b+c")
	}
	if data, err := os.ReadFile(fx.original); err != nil || string(data) != "src" {
		t.Fatalf("original changed: %q, %v", data, err)
	}
	if left := tempEntries(t, fx.paths.Temp); len(left) != 0 {
		t.Fatalf("temp dir not empty: %v", left)
	}
}

func TestChainRunSingleStepNeverRemovesOriginal(t *testing.T) {
	fx := newChainFixture(t)
	if err := fx.chain.Run(context.Background(), fx.original, fx.final, []artifact.Step{appendStep("only", nil)}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(fx.original); err != nil {
		t.Fatalf("original missing: %v", err)
	}
	if _, err := os.Stat(fx.final); err != nil {
		t.Fatalf("final missing: %v", err)
	}
}

func TestChainRunFailureCleansUp(t *testing.T) {
	fx := newChainFixture(t)
	boom := errors.New("engine exploded")
	thirdCalled := false

	steps := []artifact.Step{
		appendStep("a", nil),
		{
			Name: "b",
			Apply: func(_ context.Context, _ string, output string) error {
				if err := os.WriteFile(output, []byte("partial"), 0o644); err != nil {
					return err
				}
				return services.Wrap(services.ErrTranscode, "transcode", "trim", "ffmpeg failed", boom)
			},
		},
		{
			Name: "c",
			Apply: func(context.Context, string, string) error {
				thirdCalled = true
				return nil
			},
		},
	}

	err := fx.chain.Run(context.Background(), fx.original, fx.final, steps)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, services.ErrTranscode) || !errors.Is(err, boom) {
		t.Fatalf("error lost its cause: %v", err)
	}
	if thirdCalled {
		t.Fatal("steps after a failure must not run")
	}
	if left := tempEntries(t, fx.paths.Temp); len(left) != 0 {
		t.Fatalf("temp dir not empty after failure: %v", left)
	}
	if _, err := os.Stat(fx.final); !os.IsNotExist(err) {
		t.Fatalf("final should not exist, stat err=%v", err)
	}
	if _, err := os.Stat(fx.original); err != nil {
		t.Fatalf("original missing after failure: %v", err)
	}
}

func TestChainRunRejectsInvalidInput(t *testing.T) {
	fx := newChainFixture(t)

	if err := fx.chain.Run(context.Background(), fx.original, fx.final, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty steps, got %v", err)
	}
	steps := []artifact.Step{appendStep("a", nil)}
	if err := fx.chain.Run(context.Background(), fx.original, fx.original, steps); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for final == original, got %v", err)
	}
}

func TestChainRunStopsOnCancelledContext(t *testing.T) {
	fx := newChainFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	steps := []artifact.Step{
		{
			Name: "a",
			Apply: func(ctx context.Context, input, output string) error {
				cancel()
				return appendStep("a", nil).Apply(ctx, input, output)
			},
		},
		appendStep("b", nil),
	}

	err := fx.chain.Run(ctx, fx.original, fx.final, steps)
	if !errors.Is(err, services.ErrTranscode) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected interrupted transcode error, got %v", err)
	}
	if left := tempEntries(t, fx.paths.Temp); len(left) != 0 {
		t.Fatalf("temp dir not empty after cancel: %v", left)
	}
}

func TestChainRunProtectsIntermediatesFromSweep(t *testing.T) {
	fx := newChainFixture(t)

	var swept []string
	steps := []artifact.Step{
		appendStep("a", nil),
		{
			Name: "b",
			Apply: func(ctx context.Context, input, output string) error {
				if !fx.chain.InFlight.Held(input) {
					t.Errorf("expected %s held during step", input)
				}
				result := artifact.SweepStaleExcept(ctx, fx.paths.Temp, 0, nil, fx.chain.InFlight)
				swept = append(swept, result.Removed...)
				return appendStep("b", nil).Apply(ctx, input, output)
			},
		},
	}

	if err := fx.chain.Run(context.Background(), fx.original, fx.final, steps); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(swept) != 0 {
		t.Fatalf("sweep removed live intermediates: %v", swept)
	}
	data, err := os.ReadFile(fx.final)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if string(data) != "src+a+b" {
		t.Fatalf("unexpected final content %q", data)
	}
}
