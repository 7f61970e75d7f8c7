package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/younwookim/sceneflow/internal/application/frame"
	"github.com/younwookim/sceneflow/internal/domain/scene"
	"github.com/younwookim/sceneflow/internal/infrastructure/config"
)

// defaultScript exercises every transition kind against the shipped config
const defaultScript = "load:Level1,additive:Level2,reload:Level1,unload:Level2,reloadActive,load:Menu"

// step is one scripted transition
type step struct {
	op    string
	scene string
}

func (s step) String() string {
	if s.scene == "" {
		return s.op
	}
	return s.op + ":" + s.scene
}

// parseScript reads a comma separated list of op[:scene] steps
func parseScript(script string) ([]step, error) {
	var steps []step
	for _, field := range strings.Split(script, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		op, name, _ := strings.Cut(field, ":")
		s := step{op: op, scene: name}

		switch op {
		case "load", "additive", "unload", "reload":
			if name == "" {
				return nil, fmt.Errorf("step %q needs a scene", field)
			}
		case "reloadActive":
			if name != "" {
				return nil, fmt.Errorf("step %q takes no scene", field)
			}
		default:
			return nil, fmt.Errorf("unknown step %q", field)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func (s *session) run(ctx context.Context, st step) error {
	switch st.op {
	case "load":
		return s.engine.Load(ctx, st.scene, s.loadOptions(scene.Single))
	case "additive":
		return s.engine.Load(ctx, st.scene, s.loadOptions(scene.Additive))
	case "unload":
		return s.engine.Unload(ctx, st.scene, s.unloadOptions())
	case "reload":
		return s.engine.Reload(ctx, st.scene, s.loadOptions(scene.Single))
	case "reloadActive":
		return s.engine.ReloadActive(ctx, s.loadOptions(scene.Single))
	}
	return fmt.Errorf("unknown step %q", st.op)
}

// headlessResult summarizes a scripted run
type headlessResult struct {
	Frames   uint64
	Resident []scene.Name
	Active   scene.Name
	Record   *config.Record
}

// runHeadless plays steps without a window. Frames advance whenever the
// loader waits, so the run takes exactly as many frames as the transitions
// need.
func runHeadless(ctx context.Context, cfg *config.GameConfig, steps []step, journalPath string, logger *slog.Logger) (*headlessResult, error) {
	progress := &meter{}
	host, err := newHost(cfg, progress)
	if err != nil {
		return nil, err
	}
	stepper := frame.NewStepper(host.Step)
	s := newSession(cfg, host, progress, stepper, stepper.Frame, logger)
	defer s.Close()

	if initial := cfg.Config.InitialScene; initial != "" {
		if err := s.engine.Load(ctx, initial, s.initialOptions()); err != nil {
			return nil, fmt.Errorf("initial scene: %w", err)
		}
	}

	for _, st := range steps {
		if err := s.run(ctx, st); err != nil {
			return nil, fmt.Errorf("step %s: %w", st, err)
		}
		logger.Info("step done", "step", st.String(), "frame", stepper.Frame(), "resident", host.Resident())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if journalPath != "" {
		if err := s.journal.Save(journalPath); err != nil {
			return nil, err
		}
		logger.Info("journal saved", "path", journalPath, "entries", s.journal.Len())
	}

	return &headlessResult{
		Frames:   stepper.Frame(),
		Resident: host.Resident(),
		Active:   host.ActiveScene(),
		Record:   s.registry.Snapshot(),
	}, nil
}
