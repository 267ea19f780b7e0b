package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/secure-task-api/internal/config"
	"github.com/yukikurage/secure-task-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestMigrate_CreatesTablesAndIndexes(t *testing.T) {
	db := setupTestDB(t)
	SetDB(db)
	t.Cleanup(func() { SetDB(nil) })

	require.NoError(t, Migrate())

	for _, table := range []string{"users", "permissions", "sessions", "otp_challenges", "tasks", "task_activities", "task_assignments"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("task_activities", "idx_task_activities_task_time"))

	// Running twice must not fail on existing indexes.
	require.NoError(t, Migrate())
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBPath: ":memory:"})
		require.NoError(t, err)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	db := setupTestDB(t)
	type row struct {
		ID uint
	}
	require.NoError(t, db.AutoMigrate(&row{}))
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&row{}).Error)
	}

	var rows []row
	err := db.Scopes(Paginate(utils.PaginationParams{Page: 2, Limit: 2, Offset: 2})).Order("id").Find(&rows).Error
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(3), rows[0].ID)
}

func TestContains(t *testing.T) {
	db := setupTestDB(t)
	type contact struct {
		ID    uint
		Name  string
		Email string
	}
	require.NoError(t, db.AutoMigrate(&contact{}))
	require.NoError(t, db.Create(&[]contact{
		{Name: "alice", Email: "a@example.com"},
		{Name: "bob", Email: "alice.b@example.com"},
		{Name: "carol", Email: "c@example.com"},
	}).Error)

	var rows []contact
	require.NoError(t, db.Scopes(Contains("alice", "name", "email")).Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[1].Name)

	rows = nil
	require.NoError(t, db.Scopes(Contains("alice", "name")).Find(&rows).Error)
	assert.Len(t, rows, 1)
}
