package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

// Store persists game sessions and the completed-game history in SQLite.
// Scenario, evidence and deduction are stored as JSON documents; fields
// used in lookups get their own columns.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, sess *gumshoe.GameSession) error {
	scenario, evidence, deduction, err := marshalDocs(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (
			id, player_id, difficulty, status, start_lat, start_lng,
			scenario, evidence, deduction,
			discovery_bonus, hint_penalty, hints_used, questions_asked, score,
			created_at, updated_at, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID, sess.PlayerID, string(sess.Difficulty), string(sess.Status),
		sess.StartLocation.Lat, sess.StartLocation.Lng,
		scenario, evidence, deduction,
		sess.DiscoveryBonus, sess.HintPenalty, sess.HintsUsed, sess.QuestionsAsked, sess.Score,
		formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt), formatTimePtr(sess.CompletedAt),
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, gameID string) (*gumshoe.GameSession, error) {
	var (
		sess                 gumshoe.GameSession
		difficulty, status   string
		scenario, evidence   []byte
		deduction            []byte
		createdAt, updatedAt string
		completedAt          sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, player_id, difficulty, status, start_lat, start_lng,
			scenario, evidence, deduction,
			discovery_bonus, hint_penalty, hints_used, questions_asked, score,
			created_at, updated_at, completed_at
		FROM game_sessions
		WHERE id = ?
	`, gameID).Scan(
		&sess.ID, &sess.PlayerID, &difficulty, &status,
		&sess.StartLocation.Lat, &sess.StartLocation.Lng,
		&scenario, &evidence, &deduction,
		&sess.DiscoveryBonus, &sess.HintPenalty, &sess.HintsUsed, &sess.QuestionsAsked, &sess.Score,
		&createdAt, &updatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gumshoe.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}

	sess.Difficulty = gumshoe.Difficulty(difficulty)
	sess.Status = gumshoe.Status(status)
	if err := json.Unmarshal(scenario, &sess.Scenario); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if err := json.Unmarshal(evidence, &sess.Evidence); err != nil {
		return nil, fmt.Errorf("decoding evidence: %w", err)
	}
	if len(deduction) > 0 {
		sess.Deduction = &gumshoe.DeductionAttempt{}
		if err := json.Unmarshal(deduction, sess.Deduction); err != nil {
			return nil, fmt.Errorf("decoding deduction: %w", err)
		}
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sess.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		sess.CompletedAt = &t
	}
	return &sess, nil
}

// Save writes the full session state back. The caller serializes access per
// game, so a plain row replace is sufficient.
func (s *Store) Save(ctx context.Context, sess *gumshoe.GameSession) error {
	scenario, evidence, deduction, err := marshalDocs(sess)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE game_sessions SET
			status = ?, scenario = ?, evidence = ?, deduction = ?,
			discovery_bonus = ?, hint_penalty = ?, hints_used = ?,
			questions_asked = ?, score = ?, updated_at = ?, completed_at = ?
		WHERE id = ?
	`,
		string(sess.Status), scenario, evidence, deduction,
		sess.DiscoveryBonus, sess.HintPenalty, sess.HintsUsed,
		sess.QuestionsAsked, sess.Score,
		formatTime(sess.UpdatedAt), formatTimePtr(sess.CompletedAt),
		sess.ID,
	)
	if err != nil {
		return unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return gumshoe.ErrNotFound
	}
	return nil
}

func (s *Store) CountActive(ctx context.Context, playerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM game_sessions
		WHERE player_id = ? AND status = 'active'
	`, playerID).Scan(&count)
	if err != nil {
		return 0, unavailable(err)
	}
	return count, nil
}

func (s *Store) AppendHistory(ctx context.Context, e gumshoe.HistoryEntry) error {
	correct := 0
	if e.Correct {
		correct = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_history (
			game_id, player_id, title, difficulty, score, correct,
			evidence_rate, duration_sec, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.GameID, e.PlayerID, e.Title, string(e.Difficulty), e.Score, correct,
		e.EvidenceRate, e.DurationSec, formatTime(e.CompletedAt),
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, playerID string, limit int) ([]gumshoe.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, player_id, title, difficulty, score, correct,
			evidence_rate, duration_sec, completed_at
		FROM game_history
		WHERE player_id = ?
		ORDER BY completed_at DESC
		LIMIT ?
	`, playerID, limit)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	entries := []gumshoe.HistoryEntry{}
	for rows.Next() {
		var (
			e           gumshoe.HistoryEntry
			difficulty  string
			correct     int
			completedAt string
		)
		if err := rows.Scan(
			&e.GameID, &e.PlayerID, &e.Title, &difficulty, &e.Score, &correct,
			&e.EvidenceRate, &e.DurationSec, &completedAt,
		); err != nil {
			return nil, unavailable(err)
		}
		e.Difficulty = gumshoe.Difficulty(difficulty)
		e.Correct = correct == 1
		if e.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return entries, nil
}

func marshalDocs(sess *gumshoe.GameSession) (scenario, evidence, deduction []byte, err error) {
	if scenario, err = json.Marshal(sess.Scenario); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding scenario: %w", err)
	}
	if evidence, err = json.Marshal(sess.Evidence); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding evidence: %w", err)
	}
	if sess.Deduction != nil {
		if deduction, err = json.Marshal(sess.Deduction); err != nil {
			return nil, nil, nil, fmt.Errorf("encoding deduction: %w", err)
		}
	}
	return scenario, evidence, deduction, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", gumshoe.ErrStoreUnavailable, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}
