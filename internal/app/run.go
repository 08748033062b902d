package app

import (
	"context"
	"fmt"

	"github.com/vk/proformagrid/internal/constraint"
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/engine"
	"github.com/vk/proformagrid/internal/hcl"
	"github.com/vk/proformagrid/internal/matrix"
	"github.com/vk/proformagrid/internal/store"
)

// ConstraintFailureError is returned by Run when -check finds failing
// constraints. The matrix has already been written when it is returned.
type ConstraintFailureError struct {
	Failed []constraint.Result
	Total  int
}

func (e *ConstraintFailureError) Error() string {
	return fmt.Sprintf("%d of %d constraint checks failed", len(e.Failed), e.Total)
}

// Run executes the main application logic based on the app configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	model, err := a.LoadModel(ctx)
	if err != nil {
		return err
	}
	if a.config.Output == OutputHCL {
		return hcl.Write(a.outW, model)
	}

	eng, err := engine.New(ctx, model, a.registry)
	if err != nil {
		return err
	}

	if a.config.Deps != "" {
		tree, err := eng.DependencyTree(a.config.Deps)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(a.outW, tree)
		return err
	}

	if err := eng.Validate(); err != nil {
		return err
	}
	if a.config.Validate {
		a.logger.Info("Model is valid.")
		return nil
	}

	m, err := eng.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if err := a.writeMatrix(m); err != nil {
		return err
	}

	if a.config.StoreDSN != "" {
		if err := a.saveSnapshot(ctx, m); err != nil {
			return err
		}
	}

	if a.config.Check {
		return a.checkConstraints(eng, m)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) writeMatrix(m matrix.Matrix) error {
	var (
		data []byte
		err  error
	)
	switch a.config.Output {
	case OutputYAML:
		data, err = matrix.EncodeYAML(m)
	default:
		data, err = matrix.EncodeJSON(m)
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode matrix: %w", err)
	}
	_, err = a.outW.Write(data)
	return err
}

func (a *App) saveSnapshot(ctx context.Context, m matrix.Matrix) error {
	s, err := store.Open(ctx, a.config.StoreDSN)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer s.Close()

	info, err := s.Save(ctx, a.config.SnapshotName, m)
	if err != nil {
		return err
	}
	a.logger.Info("Snapshot saved.", "id", info.ID, "name", info.Name)
	return nil
}

func (a *App) checkConstraints(eng *engine.Engine, m matrix.Matrix) error {
	results, err := eng.CheckConstraints(m)
	if err != nil {
		return err
	}
	failed := constraint.Failures(results)
	for _, r := range failed {
		a.logger.Warn("Constraint failed.",
			"constraint", r.Constraint,
			"line_item", r.Quantity,
			"year", r.Year,
			"actual", r.Actual,
			"operator", string(r.Operator),
			"target", r.Target,
		)
	}
	if len(failed) > 0 {
		return &ConstraintFailureError{Failed: failed, Total: len(results)}
	}
	a.logger.Info("All constraints passed.", "checks", len(results))
	return nil
}
