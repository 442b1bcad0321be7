package history

import (
	"context"
	"fmt"

	"github.com/wonny/macrowatch/internal/report"
	"github.com/wonny/macrowatch/pkg/database"
	"github.com/wonny/macrowatch/pkg/logger"
)

// Archive persists completed runs to Postgres for audit. It is
// write-only from the pipeline's point of view: a run never reads
// earlier runs back, so recomputing from the same inputs stays
// deterministic.
type Archive struct {
	db     *database.DB
	logger *logger.Logger
}

// New creates a run archive and ensures its schema exists.
func New(ctx context.Context, db *database.DB, log *logger.Logger) (*Archive, error) {
	a := &Archive{db: db, logger: log.WithField("component", "history")}
	if err := a.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("history: ensuring schema: %w", err)
	}
	return a, nil
}

func (a *Archive) ensureSchema(ctx context.Context) error {
	_, err := a.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id              BIGSERIAL PRIMARY KEY,
			generated_at    TIMESTAMPTZ NOT NULL,
			catalog_id      TEXT NOT NULL,
			catalog_version TEXT NOT NULL,
			catalog_hash    TEXT NOT NULL,
			triggered       INT NOT NULL,
			evaluable       INT NOT NULL,
			percentage      INT NOT NULL,
			tier            TEXT NOT NULL,
			summary         TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS run_signals (
			run_id        BIGINT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			indicator_id  TEXT NOT NULL,
			metric        TEXT NOT NULL,
			comparator    TEXT NOT NULL,
			threshold_key TEXT NOT NULL,
			skipped       BOOLEAN NOT NULL,
			triggered     BOOLEAN NOT NULL,
			value         DOUBLE PRECISION,
			threshold     DOUBLE PRECISION
		);
		CREATE INDEX IF NOT EXISTS idx_run_signals_run_id ON run_signals(run_id);
	`)
	return err
}

// SaveRun stores the run header and every rule outcome in one
// transaction.
func (a *Archive) SaveRun(ctx context.Context, rep *report.Report) error {
	tx, err := a.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO runs (generated_at, catalog_id, catalog_version, catalog_hash,
			triggered, evaluable, percentage, tier, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		rep.GeneratedAt, rep.CatalogID, rep.CatalogVersion, rep.CatalogHash,
		rep.Score.Triggered, rep.Score.Evaluable, rep.Score.Percentage,
		string(rep.Score.Tier), rep.Summary,
	).Scan(&runID)
	if err != nil {
		return fmt.Errorf("history: inserting run: %w", err)
	}

	for _, o := range rep.Outcomes {
		var value, threshold *float64
		if !o.Skipped {
			value, threshold = &o.Value, &o.Threshold
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO run_signals (run_id, indicator_id, metric, comparator,
				threshold_key, skipped, triggered, value, threshold)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, o.Rule.Indicator, string(o.Rule.Metric), string(o.Rule.Comparator),
			o.Rule.ThresholdKey, o.Skipped, o.Triggered, value, threshold,
		)
		if err != nil {
			return fmt.Errorf("history: inserting outcome for %s: %w", o.Rule.Indicator, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}

	a.logger.WithFields(map[string]interface{}{
		"run_id":   runID,
		"outcomes": len(rep.Outcomes),
	}).Info("run archived")
	return nil
}
