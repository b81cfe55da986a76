package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"BiasEngine/internal/domain/models"
	"BiasEngine/internal/domain/repository"
)

// ClickHouseArchive implements ScoreArchive on ClickHouse. Append-only
// audit history; nothing here is ever read back into scoring.
type ClickHouseArchive struct {
	db             *sql.DB
	scoreTable     string
	rejectionTable string
}

// NewClickHouseArchive creates ClickHouse-backed score history.
func NewClickHouseArchive(db *sql.DB, scoreTable, rejectionTable string) repository.ScoreArchive {
	return &ClickHouseArchive{db: db, scoreTable: scoreTable, rejectionTable: rejectionTable}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime,
			asset LowCardinality(String),
			economic Float64,
			sentiment Float64,
			cot Float64,
			technical Float64,
			central_bank Float64,
			total Float64,
			normalized Float64,
			signal LowCardinality(String),
			confidence Float64,
			registry_revision UInt64,
			processing_ms Float64,
			bullish String,
			bearish String
		) ENGINE = MergeTree ORDER BY (asset, ts)`, a.scoreTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime,
			source LowCardinality(String),
			rule String
		) ENGINE = MergeTree ORDER BY ts`, a.rejectionTable),
	}
	for _, stmt := range stmts {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("archive init: %w", err)
		}
	}
	return nil
}

func (a *ClickHouseArchive) AppendScore(ctx context.Context, s *models.AssetScore) error {
	bullish, _ := json.Marshal(s.BullishFactors)
	bearish, _ := json.Marshal(s.BearishFactors)
	q := fmt.Sprintf(`INSERT INTO %s
		(ts, asset, economic, sentiment, cot, technical, central_bank, total, normalized, signal, confidence, registry_revision, processing_ms, bullish, bearish)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, a.scoreTable)
	_, err := a.db.ExecContext(ctx, q,
		s.CalculatedAt,
		string(s.Asset),
		s.Scores.Economic,
		s.Scores.Sentiment,
		s.Scores.COT,
		s.Scores.Technical,
		s.Scores.CentralBank,
		s.TotalScore,
		s.NormalizedScore,
		string(s.Signal),
		s.Confidence,
		s.RegistryRevision,
		float64(s.ProcessingTime)/float64(time.Millisecond),
		string(bullish),
		string(bearish),
	)
	return err
}

func (a *ClickHouseArchive) AppendRejection(ctx context.Context, source, rule string, at time.Time) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, source, rule) VALUES (?, ?, ?)", a.rejectionTable)
	_, err := a.db.ExecContext(ctx, q, at, source, rule)
	return err
}

func (a *ClickHouseArchive) History(ctx context.Context, asset models.Asset, from, to time.Time, limit int) ([]*models.AssetScore, error) {
	q := fmt.Sprintf(`SELECT ts, asset, economic, sentiment, cot, technical, central_bank, total, normalized, signal, confidence, registry_revision
		FROM %s WHERE asset = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?`, a.scoreTable)
	rows, err := a.db.QueryContext(ctx, q, string(asset), from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AssetScore
	for rows.Next() {
		var s models.AssetScore
		var code, sig string
		if err := rows.Scan(&s.CalculatedAt, &code,
			&s.Scores.Economic, &s.Scores.Sentiment, &s.Scores.COT,
			&s.Scores.Technical, &s.Scores.CentralBank,
			&s.TotalScore, &s.NormalizedScore, &sig, &s.Confidence,
			&s.RegistryRevision); err != nil {
			return nil, err
		}
		s.Asset = models.Asset(code)
		s.Signal = models.Signal(sig)
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // connection owned by pkg client
}
