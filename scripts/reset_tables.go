package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Drops and recreates the application tables for the configured environment.
// Run with: go run scripts/reset_tables.go
func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Read environment to determine table prefix
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	prefix := os.Getenv("TABLE_PREFIX")
	if prefix == "" {
		prefix = env + "_"
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	dropSQL := fmt.Sprintf(`
		DROP TABLE IF EXISTS %[1]smessages CASCADE;
		DROP TABLE IF EXISTS %[1]smessage_threads CASCADE;
		DROP TABLE IF EXISTS %[1]scontacts CASCADE;
		DROP TABLE IF EXISTS %[1]stask_watchers CASCADE;
		DROP TABLE IF EXISTS %[1]stask_assignment_history CASCADE;
		DROP TABLE IF EXISTS %[1]stask_status_history CASCADE;
		DROP TABLE IF EXISTS %[1]scollaboration_tasks CASCADE;
		DROP TABLE IF EXISTS %[1]sdocument_versions CASCADE;
		DROP TABLE IF EXISTS %[1]sdocuments CASCADE;
	`, prefix)

	if _, err := db.Exec(dropSQL); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	createSQL := fmt.Sprintf(`
		CREATE TABLE %[1]sdocuments (
			id UUID PRIMARY KEY,
			company_id UUID NOT NULL,
			type TEXT NOT NULL,
			file_path TEXT,
			ocr_text TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX %[1]sdocuments_company_idx ON %[1]sdocuments (company_id, created_at DESC);

		CREATE TABLE %[1]sdocument_versions (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES %[1]sdocuments(id),
			content TEXT NOT NULL,
			version INTEGER NOT NULL,
			tag TEXT,
			change_description TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (document_id, version)
		);

		CREATE TABLE %[1]scollaboration_tasks (
			id UUID PRIMARY KEY,
			company_id UUID NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			assigned_to TEXT,
			due_date TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			completed_by TEXT,
			created_by TEXT NOT NULL,
			updated_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX %[1]stasks_company_idx ON %[1]scollaboration_tasks (company_id, created_at DESC);

		CREATE TABLE %[1]stask_status_history (
			id UUID PRIMARY KEY,
			task_id UUID NOT NULL REFERENCES %[1]scollaboration_tasks(id),
			company_id UUID NOT NULL,
			status TEXT NOT NULL,
			previous_status TEXT,
			changed_by TEXT NOT NULL,
			comments TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE %[1]stask_assignment_history (
			id UUID PRIMARY KEY,
			task_id UUID NOT NULL REFERENCES %[1]scollaboration_tasks(id),
			company_id UUID NOT NULL,
			assigned_to TEXT NOT NULL,
			assigned_from TEXT,
			assigned_by TEXT NOT NULL,
			comments TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE %[1]stask_watchers (
			task_id UUID NOT NULL REFERENCES %[1]scollaboration_tasks(id),
			company_id UUID NOT NULL,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (task_id, user_id)
		);

		CREATE TABLE %[1]scontacts (
			id UUID PRIMARY KEY,
			company_id UUID NOT NULL,
			first_name TEXT,
			last_name TEXT,
			display_name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			social_profiles JSONB NOT NULL DEFAULT '{}',
			communication_preferences JSONB NOT NULL DEFAULT '{}',
			metadata JSONB NOT NULL DEFAULT '{}',
			opt_out BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX %[1]scontacts_company_idx ON %[1]scontacts (company_id, display_name);

		CREATE TABLE %[1]smessage_threads (
			id UUID PRIMARY KEY,
			company_id UUID NOT NULL,
			contact_id UUID REFERENCES %[1]scontacts(id),
			subject TEXT NOT NULL,
			channel TEXT NOT NULL,
			status TEXT NOT NULL,
			last_message_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE %[1]smessages (
			id UUID PRIMARY KEY,
			thread_id UUID NOT NULL REFERENCES %[1]smessage_threads(id),
			company_id UUID NOT NULL,
			direction TEXT NOT NULL,
			body TEXT NOT NULL,
			sent_by TEXT,
			sent_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX %[1]smessages_thread_idx ON %[1]smessages (thread_id, sent_at);
	`, prefix)

	if _, err := db.Exec(createSQL); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	fmt.Printf("Tables recreated successfully (prefix: %s)\n", prefix)
}
