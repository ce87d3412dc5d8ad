package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/negotiation-sim/server/internal/agent/model"
)

const defaultHistoryLimit = 20

// SQLiteHistoryStore persists finished conversations per user and aggregates
// the statistics achievements are evaluated against.
type SQLiteHistoryStore struct {
	db *sql.DB
}

var _ model.HistorySink = (*SQLiteHistoryStore)(nil)

func NewSQLiteHistoryStore(dbPath string) (*SQLiteHistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &SQLiteHistoryStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteHistoryStore) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS finished_conversations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			scenario_id TEXT NOT NULL,
			scenario_title TEXT NOT NULL,
			category TEXT NOT NULL,
			final_score INTEGER NOT NULL,
			star_rating INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			message_count INTEGER NOT NULL,
			max_rapport INTEGER NOT NULL,
			happy_turns INTEGER NOT NULL,
			had_comeback INTEGER NOT NULL DEFAULT 0,
			messages TEXT NOT NULL,
			analysis TEXT NOT NULL,
			emotion_state TEXT NOT NULL,
			session TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_finished_conversations_user ON finished_conversations(user_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteHistoryStore) SaveConversation(ctx context.Context, userID string, rec model.ConversationRecord) error {
	messages, err := json.Marshal(rec.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	analysis, err := json.Marshal(rec.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	emotion, err := json.Marshal(rec.EmotionState)
	if err != nil {
		return fmt.Errorf("failed to marshal emotion state: %w", err)
	}
	session, err := json.Marshal(rec.Session)
	if err != nil {
		return fmt.Errorf("failed to marshal session stats: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `INSERT OR REPLACE INTO finished_conversations (
			id, user_id, scenario_id, scenario_title, category,
			final_score, star_rating, turns, message_count,
			max_rapport, happy_turns, had_comeback,
			messages, analysis, emotion_state, session,
			duration_ns, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		rec.ConversationID, userID, rec.ScenarioID, rec.ScenarioTitle, rec.Category,
		rec.FinalScore, rec.StarRating, rec.Turns, len(rec.Messages),
		max(rec.Session.MaxRapport, rec.EmotionState.Rapport), rec.Session.HappyTurns, rec.Session.HadComeback,
		string(messages), string(analysis), string(emotion), string(session),
		int64(rec.Duration), createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// ListConversations returns the user's finished conversations, newest first.
func (s *SQLiteHistoryStore) ListConversations(ctx context.Context, userID string, limit int) ([]model.ConversationRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `SELECT id, scenario_id, scenario_title, category, final_score, star_rating, turns,
			messages, analysis, emotion_state, session, duration_ns, created_at
		FROM finished_conversations WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	out := []model.ConversationRecord{}
	for rows.Next() {
		var (
			rec                                  model.ConversationRecord
			messages, analysis, emotion, session string
			durationNS, createdAt                int64
		)
		if err := rows.Scan(
			&rec.ConversationID, &rec.ScenarioID, &rec.ScenarioTitle, &rec.Category,
			&rec.FinalScore, &rec.StarRating, &rec.Turns,
			&messages, &analysis, &emotion, &session, &durationNS, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if err := decodeColumns(
			column{messages, &rec.Messages},
			column{analysis, &rec.Analysis},
			column{emotion, &rec.EmotionState},
			column{session, &rec.Session},
		); err != nil {
			return nil, fmt.Errorf("conversation %s: %w", rec.ConversationID, err)
		}
		rec.Duration = time.Duration(durationNS)
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteHistoryStore) Stats(ctx context.Context, userID string) (model.UserStats, error) {
	stats := model.UserStats{CategoryCompletions: map[string]int{}}

	var (
		avg          float64
		maxStars     int
		hadComeback  int
		lastActivity sql.NullInt64
	)
	query := `SELECT COUNT(*), COALESCE(SUM(message_count), 0), COALESCE(AVG(final_score), 0),
			COALESCE(MAX(turns), 0), COALESCE(MAX(star_rating), 0), COALESCE(MAX(max_rapport), 0),
			COALESCE(SUM(happy_turns), 0), COALESCE(MAX(had_comeback), 0), MAX(created_at)
		FROM finished_conversations WHERE user_id = ?`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalConversations, &stats.TotalMessages, &avg,
		&stats.MaxTurns, &maxStars, &stats.MaxRapport,
		&stats.HappyTurns, &hadComeback, &lastActivity,
	)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	stats.AverageScore = int(math.Round(avg))
	stats.HasFiveStar = maxStars >= 5
	stats.HadComeback = hadComeback != 0
	if lastActivity.Valid {
		t := time.Unix(0, lastActivity.Int64).UTC()
		stats.LastActivity = &t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM finished_conversations WHERE user_id = ? GROUP BY category`, userID)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return model.UserStats{}, fmt.Errorf("failed to scan category: %w", err)
		}
		stats.CategoryCompletions[category] = n
	}
	return stats, rows.Err()
}

func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}

type column struct {
	raw string
	dst any
}

func decodeColumns(columns ...column) error {
	for _, c := range columns {
		if err := json.Unmarshal([]byte(c.raw), c.dst); err != nil {
			return fmt.Errorf("failed to unmarshal column: %w", err)
		}
	}
	return nil
}
