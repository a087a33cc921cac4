package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/config"
	"github.com/yuriirask-bit/compliance-gin/internal/database"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TestBuildDSN 测试 DSN 构建
func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		DBName:   "compliance",
		SSLMode:  "disable",
	})
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=compliance sslmode=disable", dsn)
}

// TestGetPoolConfig 测试连接池默认配置
func TestGetPoolConfig(t *testing.T) {
	pool := database.GetPoolConfig()
	assert.Equal(t, 10, pool.MaxIdleConns)
	assert.Equal(t, 100, pool.MaxOpenConns)
	assert.Equal(t, 3600, pool.ConnMaxLifetime)
	assert.Equal(t, 600, pool.ConnMaxIdleTime)
}

// TestMigrateSQLite 测试 SQLite 迁移创建全部表
func TestMigrateSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	// 迁移后所有表可写
	tables := []interface{}{
		&model.CustomerModel{ID: "c1", Name: "n", Category: "c", Country: "NL", ApprovalStatus: model.CustomerPending},
		&model.SubstanceModel{Code: "S1", Name: "n", Classification: model.ClassUnscheduled},
		&model.AuditLogModel{ID: "a1", UserID: "u", Action: "create", ResourceType: "transaction", ResourceID: "t1"},
	}
	for _, record := range tables {
		assert.NoError(t, db.Create(record).Error)
	}

	// 迁移可重复执行
	require.NoError(t, database.Migrate(db))
}

// TestCheckHealth 测试数据库健康检查
func TestCheckHealth(t *testing.T) {
	assert.False(t, database.CheckHealth(nil))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.True(t, database.CheckHealth(db))
}
