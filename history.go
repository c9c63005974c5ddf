package pgsh

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryEntry is one completed job recorded to history: the full command
// line, when it was launched and when every member finished, and the exit
// status of its last stage. Job control itself never consults this table;
// it exists purely as a record a user can inspect later.
type HistoryEntry struct {
	CommandText string
	StartTime   time.Time
	EndTime     time.Time
	ExitStatus  int
}

// HistoryManager persists HistoryEntry rows to SQLite. No per-argument
// frequency modelling: that machinery belongs to completion/alias features
// this shell doesn't implement.
type HistoryManager struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	command_text TEXT NOT NULL,
	start_time   DATETIME NOT NULL,
	end_time     DATETIME NOT NULL,
	exit_status  INTEGER NOT NULL
);`

// NewHistoryManager opens (creating if necessary) the history database at
// dbPath, or at ~/.pgsh_history.sqlite if dbPath is empty.
func NewHistoryManager(dbPath string) (*HistoryManager, error) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(homeDir, ".pgsh_history.sqlite")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, err
	}
	return &HistoryManager{db: db}, nil
}

// Close releases the underlying database handle.
func (h *HistoryManager) Close() error {
	return h.db.Close()
}

// Insert records a completed job.
func (h *HistoryManager) Insert(e HistoryEntry) error {
	_, err := h.db.Exec(
		"INSERT INTO history (command_text, start_time, end_time, exit_status) VALUES (?, ?, ?, ?)",
		e.CommandText, e.StartTime, e.EndTime, e.ExitStatus,
	)
	return err
}

// Dump returns every recorded command line, oldest first.
func (h *HistoryManager) Dump() ([]string, error) {
	rows, err := h.db.Query("SELECT command_text FROM history ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, rows.Err()
}
