package memory

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ExchangeLog persists every chat exchange to SQLite for later inspection.
// Recall still goes through the Store backends; this log is an audit trail,
// not a durability guarantee for memory.
type ExchangeLog struct {
	db *sql.DB
}

type Exchange struct {
	ID        int64     `json:"id" db:"id"`
	Request   string    `json:"request" db:"request"`
	Response  string    `json:"response" db:"response"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func NewExchangeLog(dbPath string) (*ExchangeLog, error) {
	if dbPath == "" {
		projectDir, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(projectDir, "data", "exchanges.db")
		log.Printf("📂 DB_PATH not set, using default: %s", dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS exchanges (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            request TEXT NOT NULL,
            response TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );
    `)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ExchangeLog{db: db}, nil
}

func (l *ExchangeLog) SaveExchange(ctx context.Context, ex Exchange) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO exchanges (request, response, created_at) VALUES (?, ?, datetime(?))`,
		ex.Request, ex.Response, time.Now().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		log.Printf("⚠️ Error saving exchange: %v", err)
	}
	return err
}

func (l *ExchangeLog) RecentExchanges(ctx context.Context, limit int) ([]Exchange, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, request, response, created_at
		 FROM exchanges
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var createdAt string
		if err = rows.Scan(&ex.ID, &ex.Request, &ex.Response, &createdAt); err != nil {
			log.Printf("⚠️ Error scanning exchange row: %v", err)
			continue
		}
		ex.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *ExchangeLog) Close() error {
	return l.db.Close()
}
