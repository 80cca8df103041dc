package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"document-chat/internal/config"
	"document-chat/internal/models"
)

// Document is one registry entry for an uploaded file. Vector records for the
// file are tagged with its ID; the two stores share no transaction.
type Document struct {
	bun.BaseModel `bun:"table:document_store,alias:d"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	Filename        string    `bun:"filename,notnull" json:"filename"`
	UploadTimestamp time.Time `bun:"upload_timestamp,notnull" json:"upload_timestamp"`
}

// ConversationTurn is one question/answer pair of a chat session. Append-only.
type ConversationTurn struct {
	bun.BaseModel `bun:"table:application_logs,alias:l"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	SessionID     string    `bun:"session_id,notnull" json:"session_id"`
	UserQuery     string    `bun:"user_query,notnull" json:"user_query"`
	ModelResponse string    `bun:"model_response,notnull" json:"model_response"`
	ModelName     string    `bun:"model_name,notnull" json:"model_name"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Connect opens the relational store for the configured driver.
func Connect(cfg *config.DatabaseConfig) (*bun.DB, error) {
	var db *bun.DB
	switch cfg.Driver {
	case "postgres":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		db = bun.NewDB(sqldb, pgdialect.New())
	case "", "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// sqlite handles one writer at a time
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

// InitDB creates the registry and conversation log tables if missing.
func InitDB(ctx context.Context, db *bun.DB) error {
	for _, model := range []interface{}{(*Document)(nil), (*ConversationTurn)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// InsertDocumentRecord registers an uploaded file and returns its new id.
func InsertDocumentRecord(ctx context.Context, db *bun.DB, filename string) (int64, error) {
	doc := &Document{
		Filename:        filename,
		UploadTimestamp: time.Now().UTC(),
	}
	if _, err := db.NewInsert().Model(doc).Exec(ctx); err != nil {
		return 0, err
	}
	return doc.ID, nil
}

// ListDocuments returns all registered documents, newest first.
func ListDocuments(ctx context.Context, db *bun.DB) ([]Document, error) {
	var docs []Document
	err := db.NewSelect().
		Model(&docs).
		Order("upload_timestamp DESC", "id DESC").
		Scan(ctx)
	return docs, err
}

// DeleteDocumentRecord removes a registry entry. Unknown ids are a no-op.
func DeleteDocumentRecord(ctx context.Context, db *bun.DB, id int64) error {
	_, err := db.NewDelete().
		Model((*Document)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// InsertConversationTurn appends one turn to a session's log.
func InsertConversationTurn(ctx context.Context, db *bun.DB, sessionID, userQuery, modelResponse, modelName string) error {
	turn := &ConversationTurn{
		SessionID:     sessionID,
		UserQuery:     userQuery,
		ModelResponse: modelResponse,
		ModelName:     modelName,
		CreatedAt:     time.Now().UTC(),
	}
	_, err := db.NewInsert().Model(turn).Exec(ctx)
	return err
}

// GetChatHistory reconstructs a session's history as alternating human/ai
// messages in insertion order: two messages per recorded turn.
func GetChatHistory(ctx context.Context, db *bun.DB, sessionID string) ([]models.ChatMessage, error) {
	var turns []ConversationTurn
	err := db.NewSelect().
		Model(&turns).
		Where("session_id = ?", sessionID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	messages := make([]models.ChatMessage, 0, len(turns)*2)
	for _, turn := range turns {
		messages = append(messages,
			models.ChatMessage{Role: models.RoleHuman, Content: turn.UserQuery},
			models.ChatMessage{Role: models.RoleAI, Content: turn.ModelResponse},
		)
	}
	return messages, nil
}
