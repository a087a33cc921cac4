package service_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/database"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupRetentionService 创建留存导出服务测试环境
func setupRetentionService(t *testing.T) (*gorm.DB, *service.RetentionService, string) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	dir := t.TempDir()
	return db, service.NewRetentionService(db, dir, logger), dir
}

// TestCreateExportAndList 测试归档导出与列表
func TestCreateExportAndList(t *testing.T) {
	db, svc, _ := setupRetentionService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.AuditLogModel{
		ID: "audit-1", UserID: "user-a", Action: "validate",
		ResourceType: "transaction", ResourceID: "txn-1",
		Details: []byte(`{"to_status":"valid"}`), CreatedAt: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&model.TransactionViolationModel{
		ID: "vio-1", TransactionID: "txn-1", Code: model.ViolationMissingLicence,
		Severity: model.SeverityViolation, Message: "no licence", CreatedAt: time.Now(),
	}).Error)

	path, err := svc.CreateExport(ctx)
	require.NoError(t, err)
	assert.FileExists(t, path)

	// 归档内容为 gzip JSON,包含审计日志与违规记录
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	gz, err := gzip.NewReader(file)
	require.NoError(t, err)
	defer gz.Close()

	var archive struct {
		AuditLogs  []map[string]interface{} `json:"audit_logs"`
		Violations []map[string]interface{} `json:"violations"`
	}
	require.NoError(t, json.NewDecoder(gz).Decode(&archive))
	assert.Len(t, archive.AuditLogs, 1)
	assert.Len(t, archive.Violations, 1)

	exports, err := svc.ListExports()
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, path, exports[0].Path)
	assert.Greater(t, exports[0].Size, int64(0))
}

// TestCleanupExports 测试过期归档清理
func TestCleanupExports(t *testing.T) {
	_, svc, _ := setupRetentionService(t)
	ctx := context.Background()

	_, err := svc.CreateExport(ctx)
	require.NoError(t, err)

	// 新归档未过保留期,不被清理
	removed, err := svc.CleanupExports(30)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	exports, err := svc.ListExports()
	require.NoError(t, err)
	assert.Len(t, exports, 1)

	// 保留期为零时不清理
	removed, err = svc.CleanupExports(0)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
