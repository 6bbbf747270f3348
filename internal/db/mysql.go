package db

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB;`,

	`CREATE TABLE IF NOT EXISTS notes (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		title TEXT,
		content TEXT,
		tags TEXT,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NULL,
		INDEX idx_notes_user_created (user_id, created_at)
	) ENGINE=InnoDB;`,
}
