package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/repo"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		channel_id INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS channels (
		name TEXT PRIMARY KEY,
		chat_id INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		message_id INTEGER PRIMARY KEY,
		origin_chat_id INTEGER NOT NULL
	)`,
}

// sqliteSettingsRepo implements the settings repository on SQLite
type sqliteSettingsRepo struct {
	db *sql.DB
}

// NewSQLiteSettingsRepo creates a new SQLite settings repository
func NewSQLiteSettingsRepo(dbPath string) (repo.SettingsRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer; Save runs in a transaction
	db.SetMaxOpenConns(1)

	// Create tables
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &sqliteSettingsRepo{db: db}, nil
}

// Load reads all three mappings
func (r *sqliteSettingsRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	rows, err := r.db.QueryContext(ctx, `SELECT user_id, channel_id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	for rows.Next() {
		var userID, channelID int64
		if err := rows.Scan(&userID, &channelID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		snap.Users[userID] = channelID
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT name, chat_id FROM channels`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	for rows.Next() {
		var name string
		var chatID int64
		if err := rows.Scan(&name, &chatID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		snap.Channels[name] = chatID
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT message_id, origin_chat_id FROM messages`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	for rows.Next() {
		var messageID int
		var originChatID int64
		if err := rows.Scan(&messageID, &originChatID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		snap.Messages[messageID] = originChatID
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return snap, nil
}

// Save replaces every row in a single transaction
func (r *sqliteSettingsRepo) Save(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"users", "channels", "messages"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for userID, channelID := range snap.Users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (user_id, channel_id) VALUES (?, ?)`, userID, channelID); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
	}
	for name, chatID := range snap.Channels {
		if _, err := tx.ExecContext(ctx, `INSERT INTO channels (name, chat_id) VALUES (?, ?)`, name, chatID); err != nil {
			return fmt.Errorf("failed to save channel: %w", err)
		}
	}
	for messageID, originChatID := range snap.Messages {
		if _, err := tx.ExecContext(ctx, `INSERT INTO messages (message_id, origin_chat_id) VALUES (?, ?)`, messageID, originChatID); err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *sqliteSettingsRepo) Close() error {
	return r.db.Close()
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate rows: %w", err)
	}
	return rows.Close()
}
