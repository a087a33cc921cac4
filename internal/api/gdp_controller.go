package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// GDPController GDP 站点/凭证/检查控制器
type GDPController struct {
	gdpService service.GDPService
}

// NewGDPController 创建 GDP 控制器
func NewGDPController(gdpService service.GDPService) *GDPController {
	return &GDPController{
		gdpService: gdpService,
	}
}

// GDPSiteRequest GDP 站点请求
// @Description 创建或更新 GDP 站点的请求参数
type GDPSiteRequest struct {
	ID         string   `json:"id,omitempty" example:"site-001"`                       // 站点 ID(更新时必填)
	CustomerID string   `json:"customer_id,omitempty" example:"cust-001"`              // 所属客户,空为本公司站点
	Name       string   `json:"name" example:"Warehouse Utrecht" binding:"required"`   // 站点名称
	Address    string   `json:"address" example:"Atoomweg 50, Utrecht" binding:"required"` // 站点地址
	Country    string   `json:"country" example:"NL" binding:"required"`               // 国家代码
	Activities []string `json:"activities" example:"storage,distribution" binding:"required"` // 站点活动
	Active     bool     `json:"active" example:"true"`                                 // 是否启用
	RowVersion int      `json:"row_version,omitempty" example:"1"`                     // 行版本(更新时必填)
}

// GDPCredentialRequest GDP 凭证请求
// @Description 登记 GDP 凭证的请求参数,编号加密落库
type GDPCredentialRequest struct {
	Kind          string    `json:"kind" example:"gdp_certificate" binding:"required"`   // 凭证类型
	Number        string    `json:"number" example:"GDP-NL-2024-001" binding:"required"` // 凭证编号(明文,仅传输)
	IssuedBy      string    `json:"issued_by" example:"IGJ" binding:"required"`          // 颁发机构
	EffectiveDate time.Time `json:"effective_date" example:"2024-01-01T00:00:00Z" binding:"required"` // 生效日期
	ExpiryDate    time.Time `json:"expiry_date" example:"2027-01-01T00:00:00Z" binding:"required"`    // 失效日期
}

// GDPInspectionRequest GDP 检查记录请求
// @Description 记录 GDP 检查的请求参数
type GDPInspectionRequest struct {
	InspectedAt  time.Time `json:"inspected_at" example:"2024-05-15T00:00:00Z" binding:"required"` // 检查日期
	Inspector    string    `json:"inspector" example:"IGJ" binding:"required"`                     // 检查方
	Outcome      string    `json:"outcome" example:"passed" binding:"required"`                    // 结论: passed, conditional, failed
	Findings     string    `json:"findings,omitempty" example:"minor documentation gaps"`          // 检查发现
	CAPARequired bool      `json:"capa_required" example:"false"`                                  // 是否需要 CAPA
}

// parseSiteActivities 解析站点活动名称列表为位掩码
func parseSiteActivities(names []string) (model.GDPSiteActivity, bool) {
	var activities model.GDPSiteActivity
	lookup := map[string]model.GDPSiteActivity{
		"storage":         model.SiteStorage,
		"distribution":    model.SiteDistribution,
		"transport":       model.SiteTransport,
		"repackaging":     model.SiteRepackaging,
		"quality_control": model.SiteQualityControl,
	}
	for _, name := range names {
		activity, ok := lookup[name]
		if !ok {
			return 0, false
		}
		activities |= activity
	}
	return activities, true
}

// SaveSite 保存站点
// @Summary      保存 GDP 站点
// @Description  创建或更新仓储/分销站点
// @Tags         GDP 管理
// @Accept       json
// @Produce      json
// @Param        request body GDPSiteRequest true "站点信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /gdp/sites [put]
// @Security     BearerAuth
func (c *GDPController) SaveSite(ctx *gin.Context) {
	var req GDPSiteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}
	if err := utils.ValidateCountryCode(req.Country); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid country code", err.Error())
		return
	}

	activities, ok := parseSiteActivities(req.Activities)
	if !ok {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "unknown site activity")
		return
	}

	site := &model.GDPSiteModel{
		ID:         req.ID,
		CustomerID: req.CustomerID,
		Name:       utils.SanitizeString(req.Name),
		Address:    utils.SanitizeString(req.Address),
		Country:    req.Country,
		Activities: activities,
		Active:     req.Active,
		RowVersion: req.RowVersion,
	}

	if err := c.gdpService.SaveSite(ctx.Request.Context(), site); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, site)
}

// GetSite 获取站点详情
// @Summary      获取 GDP 站点详情
// @Tags         GDP 管理
// @Produce      json
// @Param        id path string true "站点 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /gdp/sites/{id} [get]
// @Security     BearerAuth
func (c *GDPController) GetSite(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid site ID", err.Error())
		return
	}

	site, err := c.gdpService.GetSite(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, site)
}

// ListSites 查询站点列表
// @Summary      查询 GDP 站点列表
// @Tags         GDP 管理
// @Produce      json
// @Success      200  {object}  Response
// @Router       /gdp/sites [get]
// @Security     BearerAuth
func (c *GDPController) ListSites(ctx *gin.Context) {
	sites, err := c.gdpService.ListSites(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, sites)
}

// AddCredential 登记凭证
// @Summary      登记 GDP 凭证
// @Description  为站点登记资质凭证,编号加密存储
// @Tags         GDP 管理
// @Accept       json
// @Produce      json
// @Param        id path string true "站点 ID"
// @Param        request body GDPCredentialRequest true "凭证信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /gdp/sites/{id}/credentials [post]
// @Security     BearerAuth
func (c *GDPController) AddCredential(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid site ID", err.Error())
		return
	}

	var req GDPCredentialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	credential := &model.GDPCredentialModel{
		SiteID:        id,
		Kind:          req.Kind,
		IssuedBy:      utils.SanitizeString(req.IssuedBy),
		EffectiveDate: req.EffectiveDate,
		ExpiryDate:    req.ExpiryDate,
	}

	if err := c.gdpService.AddCredential(ctx.Request.Context(), credential, req.Number); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Created(ctx, credential)
}

// ListCredentials 查询站点凭证
// @Summary      查询站点的 GDP 凭证
// @Tags         GDP 管理
// @Produce      json
// @Param        id path string true "站点 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /gdp/sites/{id}/credentials [get]
// @Security     BearerAuth
func (c *GDPController) ListCredentials(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid site ID", err.Error())
		return
	}

	credentials, err := c.gdpService.ListCredentials(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, credentials)
}

// ListExpiringCredentials 查询即将到期的凭证
// @Summary      查询即将到期的 GDP 凭证
// @Description  返回给定天数内到期的凭证,默认 90 天
// @Tags         GDP 管理
// @Produce      json
// @Param        within_days query int false "天数"
// @Success      200  {object}  Response
// @Router       /gdp/credentials/expiring [get]
// @Security     BearerAuth
func (c *GDPController) ListExpiringCredentials(ctx *gin.Context) {
	withinDays := queryInt(ctx, "within_days", 90)

	credentials, err := c.gdpService.ListExpiringCredentials(ctx.Request.Context(), withinDays)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, credentials)
}

// RecordInspection 记录检查
// @Summary      记录 GDP 检查
// @Description  记录站点检查结果,失败结论触发告警日志
// @Tags         GDP 管理
// @Accept       json
// @Produce      json
// @Param        id path string true "站点 ID"
// @Param        request body GDPInspectionRequest true "检查信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /gdp/sites/{id}/inspections [post]
// @Security     BearerAuth
func (c *GDPController) RecordInspection(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid site ID", err.Error())
		return
	}

	var req GDPInspectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	inspection := &model.GDPInspectionModel{
		SiteID:       id,
		InspectedAt:  req.InspectedAt,
		Inspector:    utils.SanitizeString(req.Inspector),
		Outcome:      model.GDPInspectionOutcome(req.Outcome),
		Findings:     utils.SanitizeString(req.Findings),
		CAPARequired: req.CAPARequired,
	}

	if err := c.gdpService.RecordInspection(ctx.Request.Context(), inspection); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Created(ctx, inspection)
}

// ListInspections 查询站点检查记录
// @Summary      查询站点的 GDP 检查记录
// @Tags         GDP 管理
// @Produce      json
// @Param        id path string true "站点 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /gdp/sites/{id}/inspections [get]
// @Security     BearerAuth
func (c *GDPController) ListInspections(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid site ID", err.Error())
		return
	}

	inspections, err := c.gdpService.ListInspections(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, inspections)
}
