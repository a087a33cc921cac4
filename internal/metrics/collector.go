package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Collector 后台指标收集器
// 定期刷新数据库连接池与交易状态分布指标
type Collector struct {
	db       *gorm.DB
	interval time.Duration
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Collector{db: db, interval: interval}
}

// Run 周期性收集指标,阻塞直到 ctx 取消
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.collectStatusDistribution(ctx)
		}
	}
}

func (c *Collector) collectStatusDistribution(ctx context.Context) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := c.db.WithContext(ctx).
		Table("transactions").
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return
	}
	for _, row := range rows {
		UpdateTransactionsByStatus(row.Status, float64(row.Count))
	}
}
