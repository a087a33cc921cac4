package service

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/gorm"
)

// RetentionService 留存导出服务
// 监管要求审计轨迹与违规记录长期可取证,
// 定期将全量审计数据导出为压缩 JSON 归档,归档文件按保留期清理
type RetentionService struct {
	db        *gorm.DB
	exportDir string
	logger    *logrus.Logger
}

// ExportInfo 归档文件信息
type ExportInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// retentionArchive 归档文件内容
type retentionArchive struct {
	ExportedAt time.Time                          `json:"exported_at"`
	AuditLogs  []*model.AuditLogModel             `json:"audit_logs"`
	Violations []*model.TransactionViolationModel `json:"violations"`
	Usages     []*model.TransactionLicenceUsageModel `json:"licence_usages"`
}

// NewRetentionService 创建留存导出服务
func NewRetentionService(db *gorm.DB, exportDir string, logger *logrus.Logger) *RetentionService {
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		// 目录创建失败时退回临时目录
		exportDir = os.TempDir()
	}
	return &RetentionService{
		db:        db,
		exportDir: exportDir,
		logger:    logger,
	}
}

// CreateExport 导出审计轨迹归档
func (s *RetentionService) CreateExport(ctx context.Context) (string, error) {
	archive := &retentionArchive{ExportedAt: time.Now()}

	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&archive.AuditLogs).Error; err != nil {
		return "", fmt.Errorf("failed to load audit logs: %w", err)
	}
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&archive.Violations).Error; err != nil {
		return "", fmt.Errorf("failed to load violations: %w", err)
	}
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&archive.Usages).Error; err != nil {
		return "", fmt.Errorf("failed to load licence usages: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("compliance_export_%s.json.gz", timestamp)
	exportPath := filepath.Join(s.exportDir, filename)

	file, err := os.Create(exportPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	if err := encoder.Encode(archive); err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":       exportPath,
		"audit_logs": len(archive.AuditLogs),
		"violations": len(archive.Violations),
	}).Info("Compliance retention export created")

	return exportPath, nil
}

// ListExports 列出归档文件
func (s *RetentionService) ListExports() ([]*ExportInfo, error) {
	entries, err := os.ReadDir(s.exportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	var exports []*ExportInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "compliance_export_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		exports = append(exports, &ExportInfo{
			Filename:  entry.Name(),
			Path:      filepath.Join(s.exportDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].CreatedAt.After(exports[j].CreatedAt)
	})
	return exports, nil
}

// CleanupExports 清理超过保留期的归档文件
func (s *RetentionService) CleanupExports(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	exports, err := s.ListExports()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, export := range exports {
		if export.CreatedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(export.Path); err != nil {
			s.logger.WithError(err).WithField("path", export.Path).Warn("Failed to remove expired export")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Expired retention exports cleaned up")
	}
	return removed, nil
}
