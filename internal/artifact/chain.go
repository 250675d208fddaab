package artifact

import (
	"context"
	"fmt"
	"log/slog"

	"cutroom/internal/logging"
	"cutroom/internal/services"
)

// Step transforms input into output. It must write output and leave input untouched.
type Step struct {
	Name  string
	Apply func(ctx context.Context, input, output string) error
}

// Chain sequences steps through temp files.
type Chain struct {
	Storage Storage
	Logger  *slog.Logger
	// TempPath returns a fresh intermediate path for source.
	TempPath func(source string) string
	// InFlight receives every intermediate while Run owns it.
	InFlight *InFlight
}

// NewChain builds a Chain writing intermediates into paths.Temp.
func NewChain(paths Paths, storage Storage, logger *slog.Logger) *Chain {
	if storage == nil {
		storage = LocalStorage{}
	}
	return &Chain{
		Storage:  storage,
		Logger:   logging.NewComponentLogger(logger, "artifact"),
		TempPath: paths.TempOutput,
		InFlight: NewInFlight(),
	}
}

// Run applies steps to original and moves the last output to final. On
// success exactly final remains; on failure no intermediate remains. The
// original is never removed.
func (c *Chain) Run(ctx context.Context, original, final string, steps []Step) error {
	if len(steps) == 0 {
		return services.Wrap(services.ErrValidation, "artifact", "chain", "no steps to apply", nil)
	}
	if original == final {
		return services.Wrap(services.ErrValidation, "artifact", "chain", "final path would overwrite the original", nil)
	}
	logger := logging.WithContext(ctx, c.Logger)

	var holds []func()
	defer func() {
		for _, release := range holds {
			release()
		}
	}()

	current := original
	used := map[string]struct{}{original: {}, final: {}}
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			c.discard(logger, current, original)
			return services.Wrap(services.ErrTranscode, "artifact", "chain", "interrupted before step "+step.Name, err)
		}

		output, err := c.freshPath(original, used)
		if err != nil {
			c.discard(logger, current, original)
			return err
		}
		used[output] = struct{}{}
		holds = append(holds, c.InFlight.Hold(output))

		logger.Debug("chain step starting",
			logging.Int("step", i+1),
			logging.Int("steps", len(steps)),
			logging.String("name", step.Name),
			logging.String("input", current),
			logging.String("output", output),
		)
		if err := step.Apply(ctx, current, output); err != nil {
			c.discard(logger, output, original)
			c.discard(logger, current, original)
			return fmt.Errorf("step %d of %d (%s): %w", i+1, len(steps), step.Name, err)
		}

		c.discard(logger, current, original)
		current = output
	}

	if err := c.Storage.Move(current, final); err != nil {
		c.discard(logger, current, original)
		return services.Wrap(services.ErrTranscode, "artifact", "chain", "promote final artifact", err)
	}
	return nil
}

func (c *Chain) freshPath(source string, used map[string]struct{}) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		candidate := c.TempPath(source)
		if _, taken := used[candidate]; taken {
			continue
		}
		exists, err := c.Storage.Exists(candidate)
		if err != nil {
			return "", services.Wrap(services.ErrTranscode, "artifact", "chain", "check temp path", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrTranscode, "artifact", "chain", "could not allocate a unique temp path", nil)
}

// discard removes path unless it is the original.
func (c *Chain) discard(logger *slog.Logger, path, original string) {
	if path == "" || path == original {
		return
	}
	if err := c.Storage.Remove(path); err != nil {
		logging.WarnWithContext(logger, "intermediate artifact cleanup failed", "artifact_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run cutroom sweep or remove the file manually"),
			logging.String(logging.FieldImpact, "temp file remains on disk"),
		)
	}
}
