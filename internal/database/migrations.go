package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// AddIndexes adds the composite and lookup indexes that struct tags do not
// declare. Existing indexes are left alone.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Activity history is always read per task, newest first
		{"task_activities", "idx_task_activities_task_time", "task_id, activity_time_stamp"},

		// Visible tasks of a user
		{"task_assignments", "idx_task_assignments_user_id", "user_id"},

		{"tasks", "idx_tasks_due_date", "due_date"},

		// Session lookup by owner
		{"sessions", "idx_sessions_user_status", "user_id, status"},

		// User search
		{"users", "idx_users_name", "name"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			slog.Debug("Index already exists, skipping", slog.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("Created index", slog.String("index", idx.name), slog.String("table", idx.table), slog.String("columns", idx.columns))
	}

	return nil
}
