package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/database"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/repository"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

// setupGDPService 创建 GDP 服务测试环境
func setupGDPService(t *testing.T) service.GDPService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return service.NewGDPService(
		repository.NewGDPRepository(db),
		service.NewAuditLogService(repository.NewAuditLogRepository(db)),
		testEncryptionKey,
		logger,
	)
}

func testSite() *model.GDPSiteModel {
	return &model.GDPSiteModel{
		Name:       "Central Warehouse",
		Address:    "Industrieweg 1, Utrecht",
		Country:    "NL",
		Activities: model.SiteStorage | model.SiteDistribution,
	}
}

// TestGDPSiteSaveAndGet 测试站点保存与查询
func TestGDPSiteSaveAndGet(t *testing.T) {
	svc := setupGDPService(t)
	ctx := context.Background()

	site := testSite()
	require.NoError(t, svc.SaveSite(ctx, site))
	assert.NotEmpty(t, site.ID)
	assert.True(t, site.Active)

	found, err := svc.GetSite(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, "Central Warehouse", found.Name)
	assert.True(t, found.Activities.Has(model.SiteStorage))
	assert.False(t, found.Activities.Has(model.SiteTransport))

	// 无活动的站点被拒绝
	invalid := testSite()
	invalid.Activities = 0
	assert.Error(t, svc.SaveSite(ctx, invalid))
}

// TestGDPCredentialEncryption 测试凭证编号加密落库与解密读取
func TestGDPCredentialEncryption(t *testing.T) {
	svc := setupGDPService(t)
	ctx := context.Background()

	site := testSite()
	require.NoError(t, svc.SaveSite(ctx, site))

	credential := &model.GDPCredentialModel{
		SiteID:        site.ID,
		Kind:          "wda",
		IssuedBy:      "IGJ",
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:    time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, svc.AddCredential(ctx, credential, "WDA-NL-12345"))

	credentials, err := svc.ListCredentials(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, credentials, 1)

	// 密文不等于明文
	assert.NotEqual(t, "WDA-NL-12345", credentials[0].NumberEncrypted)
	assert.NotEmpty(t, credentials[0].NumberEncrypted)

	number, err := svc.DecryptCredentialNumber(credentials[0])
	require.NoError(t, err)
	assert.Equal(t, "WDA-NL-12345", number)

	// 站点不存在时拒绝登记
	orphan := &model.GDPCredentialModel{
		SiteID:        "site-missing",
		Kind:          "wda",
		IssuedBy:      "IGJ",
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:    time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	err = svc.AddCredential(ctx, orphan, "WDA-NL-99999")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestListExpiringCredentials 测试凭证到期预警
func TestListExpiringCredentials(t *testing.T) {
	svc := setupGDPService(t)
	ctx := context.Background()

	site := testSite()
	require.NoError(t, svc.SaveSite(ctx, site))

	// 30 天内到期
	soon := &model.GDPCredentialModel{
		SiteID:        site.ID,
		Kind:          "gdp_certificate",
		IssuedBy:      "IGJ",
		EffectiveDate: time.Now().AddDate(-1, 0, 0),
		ExpiryDate:    time.Now().AddDate(0, 0, 30),
	}
	require.NoError(t, svc.AddCredential(ctx, soon, "GDP-001"))

	// 两年后到期
	later := &model.GDPCredentialModel{
		SiteID:        site.ID,
		Kind:          "wda",
		IssuedBy:      "IGJ",
		EffectiveDate: time.Now().AddDate(-1, 0, 0),
		ExpiryDate:    time.Now().AddDate(2, 0, 0),
	}
	require.NoError(t, svc.AddCredential(ctx, later, "WDA-001"))

	expiring, err := svc.ListExpiringCredentials(ctx, 90)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, soon.ID, expiring[0].ID)
}

// TestRecordInspection 测试检查记录
func TestRecordInspection(t *testing.T) {
	svc := setupGDPService(t)
	ctx := context.Background()

	site := testSite()
	require.NoError(t, svc.SaveSite(ctx, site))

	inspection := &model.GDPInspectionModel{
		SiteID:       site.ID,
		InspectedAt:  time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		Inspector:    "IGJ inspector",
		Outcome:      model.InspectionConditional,
		Findings:     "temperature logging gaps in cold storage",
		CAPARequired: true,
	}
	require.NoError(t, svc.RecordInspection(ctx, inspection))

	inspections, err := svc.ListInspections(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, inspections, 1)
	assert.Equal(t, model.InspectionConditional, inspections[0].Outcome)
	assert.True(t, inspections[0].CAPARequired)

	// 无效结论被拒绝
	bad := &model.GDPInspectionModel{
		SiteID:      site.ID,
		InspectedAt: time.Now(),
		Inspector:   "IGJ inspector",
		Outcome:     "excellent",
	}
	assert.Error(t, svc.RecordInspection(ctx, bad))
}
