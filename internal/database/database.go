package database

import (
	"context"
	"fmt"
	"time"

	"github.com/yuriirask-bit/compliance-gin/internal/config"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	poolConfig := poolConfigFrom(cfg)
	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// poolConfigFrom 从配置读取连接池参数,未设置的项使用默认值
func poolConfigFrom(cfg config.DatabaseConfig) *PoolConfig {
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}
	return poolConfig
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试,等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb,需要手动创建表
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.CustomerModel{},
			&model.SubstanceModel{},
			&model.ThresholdModel{},
			&model.LicenceModel{},
			&model.LicenceSubstanceMappingModel{},
			&model.TransactionModel{},
			&model.TransactionLineModel{},
			&model.TransactionViolationModel{},
			&model.TransactionLicenceUsageModel{},
			&model.GDPSiteModel{},
			&model.GDPCredentialModel{},
			&model.GDPInspectionModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表(使用 TEXT 替代 jsonb)
func createSQLiteTables(db *gorm.DB) error {
	statements := map[string]string{
		"customers": `
			CREATE TABLE IF NOT EXISTS customers (
				id VARCHAR(64) PRIMARY KEY,
				external_id VARCHAR(64),
				name VARCHAR(255) NOT NULL,
				category VARCHAR(64) NOT NULL,
				country VARCHAR(2) NOT NULL,
				approval_status VARCHAR(16) NOT NULL DEFAULT 'pending',
				override_allowed BOOLEAN NOT NULL DEFAULT 0,
				row_version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		"substances": `
			CREATE TABLE IF NOT EXISTS substances (
				code VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				classification VARCHAR(32) NOT NULL,
				under_reclassification BOOLEAN NOT NULL DEFAULT 0,
				reclassified_at DATETIME,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		"thresholds": `
			CREATE TABLE IF NOT EXISTS thresholds (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				kind VARCHAR(16) NOT NULL,
				substance_code VARCHAR(64) NOT NULL,
				customer_id VARCHAR(64),
				customer_category VARCHAR(64),
				licence_type VARCHAR(32),
				period VARCHAR(16) NOT NULL,
				limit_value DECIMAL(20,6) NOT NULL,
				warning_percent INTEGER NOT NULL DEFAULT 80,
				allow_override BOOLEAN NOT NULL DEFAULT 0,
				active BOOLEAN NOT NULL DEFAULT 1,
				row_version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				created_by VARCHAR(64)
			)`,
		"licences": `
			CREATE TABLE IF NOT EXISTS licences (
				id VARCHAR(64) PRIMARY KEY,
				holder_type VARCHAR(16) NOT NULL,
				holder_id VARCHAR(64) NOT NULL,
				licence_type VARCHAR(32) NOT NULL,
				number VARCHAR(64) NOT NULL,
				effective_date DATETIME NOT NULL,
				expiry_date DATETIME NOT NULL,
				permitted_activities BIGINT NOT NULL,
				scope TEXT,
				status VARCHAR(16) NOT NULL DEFAULT 'active',
				row_version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				created_by VARCHAR(64)
			)`,
		"licence_substance_mappings": `
			CREATE TABLE IF NOT EXISTS licence_substance_mappings (
				id VARCHAR(64) PRIMARY KEY,
				licence_id VARCHAR(64) NOT NULL,
				substance_code VARCHAR(64) NOT NULL,
				effective_date DATETIME NOT NULL,
				expiry_date DATETIME NOT NULL,
				max_quantity_per_transaction DECIMAL(20,6),
				max_quantity_per_period DECIMAL(20,6),
				period VARCHAR(16),
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		"transactions": `
			CREATE TABLE IF NOT EXISTS transactions (
				id VARCHAR(64) PRIMARY KEY,
				external_id VARCHAR(64),
				type VARCHAR(32) NOT NULL,
				direction VARCHAR(32) NOT NULL,
				customer_id VARCHAR(64) NOT NULL,
				origin_country VARCHAR(2) NOT NULL,
				destination_country VARCHAR(2) NOT NULL,
				transaction_date DATETIME NOT NULL,
				status VARCHAR(32) NOT NULL,
				override_approver VARCHAR(64),
				override_justification TEXT,
				override_at DATETIME,
				row_version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				created_by VARCHAR(64)
			)`,
		"transaction_lines": `
			CREATE TABLE IF NOT EXISTS transaction_lines (
				id VARCHAR(64) PRIMARY KEY,
				transaction_id VARCHAR(64) NOT NULL,
				substance_code VARCHAR(64) NOT NULL,
				quantity DECIMAL(20,6) NOT NULL,
				unit VARCHAR(8) NOT NULL,
				base_quantity DECIMAL(20,6) NOT NULL,
				created_at DATETIME NOT NULL
			)`,
		"transaction_violations": `
			CREATE TABLE IF NOT EXISTS transaction_violations (
				id VARCHAR(64) PRIMARY KEY,
				transaction_id VARCHAR(64) NOT NULL,
				code VARCHAR(64) NOT NULL,
				severity VARCHAR(16) NOT NULL,
				message TEXT NOT NULL,
				substance_code VARCHAR(64),
				created_at DATETIME NOT NULL
			)`,
		"transaction_licence_usages": `
			CREATE TABLE IF NOT EXISTS transaction_licence_usages (
				id VARCHAR(64) PRIMARY KEY,
				transaction_id VARCHAR(64) NOT NULL,
				transaction_line_id VARCHAR(64) NOT NULL,
				licence_id VARCHAR(64) NOT NULL,
				mapping_id VARCHAR(64) NOT NULL,
				substance_code VARCHAR(64) NOT NULL,
				quantity DECIMAL(20,6) NOT NULL,
				created_at DATETIME NOT NULL
			)`,
		"gdp_sites": `
			CREATE TABLE IF NOT EXISTS gdp_sites (
				id VARCHAR(64) PRIMARY KEY,
				customer_id VARCHAR(64),
				name VARCHAR(255) NOT NULL,
				address TEXT NOT NULL,
				country VARCHAR(2) NOT NULL,
				activities BIGINT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT 1,
				row_version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		"gdp_credentials": `
			CREATE TABLE IF NOT EXISTS gdp_credentials (
				id VARCHAR(64) PRIMARY KEY,
				site_id VARCHAR(64) NOT NULL,
				kind VARCHAR(32) NOT NULL,
				number_encrypted TEXT NOT NULL,
				issued_by VARCHAR(255) NOT NULL,
				effective_date DATETIME NOT NULL,
				expiry_date DATETIME NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		"gdp_inspections": `
			CREATE TABLE IF NOT EXISTS gdp_inspections (
				id VARCHAR(64) PRIMARY KEY,
				site_id VARCHAR(64) NOT NULL,
				inspected_at DATETIME NOT NULL,
				inspector VARCHAR(255) NOT NULL,
				outcome VARCHAR(16) NOT NULL,
				findings TEXT,
				capa_required BOOLEAN NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL
			)`,
		"audit_logs": `
			CREATE TABLE IF NOT EXISTS audit_logs (
				id VARCHAR(64) PRIMARY KEY,
				user_id VARCHAR(64) NOT NULL,
				action VARCHAR(64) NOT NULL,
				resource_type VARCHAR(32) NOT NULL,
				resource_id VARCHAR(64) NOT NULL,
				request_id VARCHAR(64),
				ip VARCHAR(45),
				user_agent TEXT,
				details TEXT,
				created_at DATETIME NOT NULL
			)`,
	}

	// 表之间无外键约束,创建顺序不敏感
	for table, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create %s table: %w", table, err)
		}
	}
	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	indexes := []string{
		// customers 表索引
		"CREATE INDEX IF NOT EXISTS idx_customers_external_id ON customers(external_id)",
		"CREATE INDEX IF NOT EXISTS idx_customers_category ON customers(category)",
		"CREATE INDEX IF NOT EXISTS idx_customers_approval_status ON customers(approval_status)",

		// substances 表索引
		"CREATE INDEX IF NOT EXISTS idx_substances_classification ON substances(classification)",
		"CREATE INDEX IF NOT EXISTS idx_substances_reclassified_at ON substances(reclassified_at)",

		// thresholds 表索引
		"CREATE INDEX IF NOT EXISTS idx_thresholds_substance_code ON thresholds(substance_code)",
		"CREATE INDEX IF NOT EXISTS idx_thresholds_customer_id ON thresholds(customer_id)",
		"CREATE INDEX IF NOT EXISTS idx_thresholds_customer_category ON thresholds(customer_category)",
		"CREATE INDEX IF NOT EXISTS idx_thresholds_active ON thresholds(active)",

		// licences 表索引
		"CREATE INDEX IF NOT EXISTS idx_licences_holder ON licences(holder_type, holder_id)",
		"CREATE INDEX IF NOT EXISTS idx_licences_status ON licences(status)",
		"CREATE INDEX IF NOT EXISTS idx_licences_expiry_date ON licences(expiry_date)",

		// licence_substance_mappings 表索引
		"CREATE INDEX IF NOT EXISTS idx_mappings_licence_id ON licence_substance_mappings(licence_id)",
		"CREATE INDEX IF NOT EXISTS idx_mappings_substance_code ON licence_substance_mappings(substance_code)",
		"CREATE INDEX IF NOT EXISTS idx_mappings_expiry_date ON licence_substance_mappings(expiry_date)",

		// transactions 表索引
		"CREATE INDEX IF NOT EXISTS idx_transactions_customer_status ON transactions(customer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_transaction_date ON transactions(transaction_date)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_external_id ON transactions(external_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_created_by ON transactions(created_by)",

		// transaction_lines 表索引
		"CREATE INDEX IF NOT EXISTS idx_lines_transaction_id ON transaction_lines(transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_lines_substance_code ON transaction_lines(substance_code)",

		// transaction_violations 表索引
		"CREATE INDEX IF NOT EXISTS idx_violations_transaction_id ON transaction_violations(transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_violations_code ON transaction_violations(code)",

		// transaction_licence_usages 表索引
		"CREATE INDEX IF NOT EXISTS idx_usages_transaction_id ON transaction_licence_usages(transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_usages_licence_id ON transaction_licence_usages(licence_id)",
		"CREATE INDEX IF NOT EXISTS idx_usages_mapping_id ON transaction_licence_usages(mapping_id)",

		// gdp 表索引
		"CREATE INDEX IF NOT EXISTS idx_gdp_sites_customer_id ON gdp_sites(customer_id)",
		"CREATE INDEX IF NOT EXISTS idx_gdp_credentials_site_id ON gdp_credentials(site_id)",
		"CREATE INDEX IF NOT EXISTS idx_gdp_credentials_expiry_date ON gdp_credentials(expiry_date)",
		"CREATE INDEX IF NOT EXISTS idx_gdp_inspections_site_id ON gdp_inspections(site_id)",

		// audit_logs 表索引
		"CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// PostgreSQL 特定的 GIN 索引
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_details_gin ON audit_logs USING GIN (details)").Error; err != nil {
			return fmt.Errorf("failed to create idx_audit_details_gin: %w", err)
		}
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}
