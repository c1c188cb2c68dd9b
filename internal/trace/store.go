package trace

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const maxConversations = 200

// Store persists conversation trace data to PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to the trace database at connStr and applies migrations.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("trace open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	if err = db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`).Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateConversation inserts a new conversation row and prunes old ones.
func (s *Store) CreateConversation(id string) error {
	_, err := s.db.Exec(
		`INSERT INTO conversations (id, started_at) VALUES ($1, $2)`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM conversations WHERE id NOT IN (SELECT id FROM conversations ORDER BY started_at DESC LIMIT $1)`,
		maxConversations,
	)
	return err
}

// EndConversation records the terminal status and turn count.
func (s *Store) EndConversation(id string, turns int, status string) error {
	_, err := s.db.Exec(
		`UPDATE conversations SET ended_at = $1, turns = $2, status = $3 WHERE id = $4`,
		time.Now().UTC(), turns, status, id,
	)
	return err
}

// CreateTurn inserts a turn timing row.
func (s *Store) CreateTurn(t TurnRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (id, conversation_id, entity, generation_ms, synthesis_ms, audio_bytes, outcome, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.ConversationID, t.Entity, t.GenerationMs, t.SynthesisMs,
		t.AudioBytes, t.Outcome, t.Status, t.StartedAt.UTC(),
	)
	return err
}

// ListConversations returns conversations ordered newest first.
func (s *Store) ListConversations(limit, offset int) ([]Conversation, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT id, started_at, ended_at, turns, status
		FROM conversations
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		var endedAt sql.NullTime
		if err = rows.Scan(&c.ID, &c.StartedAt, &endedAt, &c.Turns, &c.Status); err != nil {
			return nil, 0, err
		}
		if endedAt.Valid {
			c.EndedAt = &endedAt.Time
		}
		convs = append(convs, c)
	}
	return convs, total, rows.Err()
}

// GetConversation returns a single conversation with its turns.
func (s *Store) GetConversation(id string) (*Conversation, []TurnRecord, error) {
	var c Conversation
	var endedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, started_at, ended_at, turns, status FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.StartedAt, &endedAt, &c.Turns, &c.Status)
	if err != nil {
		return nil, nil, err
	}
	if endedAt.Valid {
		c.EndedAt = &endedAt.Time
	}

	rows, err := s.db.Query(
		`SELECT id, conversation_id, entity, generation_ms, synthesis_ms, audio_bytes, outcome, status, started_at
		 FROM turns WHERE conversation_id = $1 ORDER BY started_at ASC`,
		id,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var turns []TurnRecord
	for rows.Next() {
		var t TurnRecord
		if err = rows.Scan(&t.ID, &t.ConversationID, &t.Entity, &t.GenerationMs, &t.SynthesisMs, &t.AudioBytes, &t.Outcome, &t.Status, &t.StartedAt); err != nil {
			return nil, nil, err
		}
		turns = append(turns, t)
	}
	return &c, turns, rows.Err()
}
