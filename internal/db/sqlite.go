package db

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT,
		content TEXT,
		tags TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME
	);`,

	`CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes (user_id, created_at);`,
}
