package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// LicenceController 许可证控制器
type LicenceController struct {
	licenceService service.LicenceService
}

// NewLicenceController 创建许可证控制器
func NewLicenceController(licenceService service.LicenceService) *LicenceController {
	return &LicenceController{
		licenceService: licenceService,
	}
}

// LicenceRequest 许可证请求
// @Description 创建或更新许可证的请求参数
type LicenceRequest struct {
	HolderType    string    `json:"holder_type" example:"customer" binding:"required"`             // 持有方类型: customer, company
	HolderID      string    `json:"holder_id" example:"cust-001" binding:"required"`               // 持有方 ID
	LicenceType   string    `json:"licence_type" example:"WDA" binding:"required"`                 // 许可证类型
	Number        string    `json:"number" example:"NL-WDA-2024-0042" binding:"required"`          // 许可证编号
	EffectiveDate time.Time `json:"effective_date" example:"2024-01-01T00:00:00Z" binding:"required"` // 生效日期
	ExpiryDate    time.Time `json:"expiry_date" example:"2026-01-01T00:00:00Z" binding:"required"` // 失效日期
	Activities    []string  `json:"activities" example:"wholesale,export" binding:"required"`      // 许可活动
	Scope         string    `json:"scope,omitempty" example:"Schedule II opioids"`                 // 范围说明
	RowVersion    int       `json:"row_version,omitempty" example:"1"`                             // 行版本(更新时必填)
}

// MappingRequest 许可证-物质映射请求
// @Description 添加许可证物质映射的请求参数
type MappingRequest struct {
	SubstanceCode             string    `json:"substance_code" example:"MORPHINE" binding:"required"`             // 物质代码
	EffectiveDate             time.Time `json:"effective_date" example:"2024-01-01T00:00:00Z" binding:"required"` // 生效日期
	ExpiryDate                time.Time `json:"expiry_date" example:"2026-01-01T00:00:00Z" binding:"required"`    // 失效日期
	MaxQuantityPerTransaction *string   `json:"max_quantity_per_transaction,omitempty" example:"1000"`            // 单笔上限(克)
	MaxQuantityPerPeriod      *string   `json:"max_quantity_per_period,omitempty" example:"10000"`                // 周期上限(克)
	Period                    *string   `json:"period,omitempty" example:"monthly"`                               // 周期上限的统计周期
}

// parseActivities 解析许可活动名称列表为位掩码
func parseActivities(names []string) (model.PermittedActivity, bool) {
	var activities model.PermittedActivity
	lookup := map[string]model.PermittedActivity{
		"wholesale":   model.ActivityWholesale,
		"import":      model.ActivityImport,
		"export":      model.ActivityExport,
		"manufacture": model.ActivityManufacture,
		"storage":     model.ActivityStorage,
		"brokering":   model.ActivityBrokering,
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

// toModel 将请求转换为模型
func (r *LicenceRequest) toModel() (*model.LicenceModel, bool) {
	activities, ok := parseActivities(r.Activities)
	if !ok {
		return nil, false
	}
	return &model.LicenceModel{
		HolderType:          model.LicenceHolderType(r.HolderType),
		HolderID:            r.HolderID,
		LicenceType:         r.LicenceType,
		Number:              r.Number,
		EffectiveDate:       r.EffectiveDate,
		ExpiryDate:          r.ExpiryDate,
		PermittedActivities: activities,
		Scope:               r.Scope,
		RowVersion:          r.RowVersion,
	}, true
}

// Create 创建许可证
// @Summary      创建许可证
// @Description  登记客户或企业持有的许可证
// @Tags         许可证管理
// @Accept       json
// @Produce      json
// @Param        request body LicenceRequest true "许可证信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /licences [post]
// @Security     BearerAuth
func (c *LicenceController) Create(ctx *gin.Context) {
	var req LicenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	licence, ok := req.toModel()
	if !ok {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "unknown permitted activity")
		return
	}

	if err := c.licenceService.Create(ctx.Request.Context(), licence); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Created(ctx, licence)
}

// Update 更新许可证
// @Summary      更新许可证
// @Description  更新许可证,使用乐观并发控制,版本不匹配返回 409
// @Tags         许可证管理
// @Accept       json
// @Produce      json
// @Param        id path string true "许可证 ID"
// @Param        request body LicenceRequest true "许可证信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /licences/{id} [put]
// @Security     BearerAuth
func (c *LicenceController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid licence ID", err.Error())
		return
	}

	var req LicenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	licence, ok := req.toModel()
	if !ok {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "unknown permitted activity")
		return
	}
	licence.ID = id

	existing, err := c.licenceService.Get(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}
	licence.Status = existing.Status
	licence.CreatedAt = existing.CreatedAt
	licence.CreatedBy = existing.CreatedBy

	if err := c.licenceService.Update(ctx.Request.Context(), licence); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, licence)
}

// Get 获取许可证详情
// @Summary      获取许可证详情
// @Tags         许可证管理
// @Produce      json
// @Param        id path string true "许可证 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /licences/{id} [get]
// @Security     BearerAuth
func (c *LicenceController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid licence ID", err.Error())
		return
	}

	licence, err := c.licenceService.Get(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, licence)
}

// ListByHolder 查询持有方的许可证
// @Summary      查询持有方的许可证
// @Tags         许可证管理
// @Produce      json
// @Param        holder_type query string true "持有方类型: customer, company"
// @Param        holder_id query string true "持有方 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /licences [get]
// @Security     BearerAuth
func (c *LicenceController) ListByHolder(ctx *gin.Context) {
	holderType := model.LicenceHolderType(ctx.Query("holder_type"))
	holderID := ctx.Query("holder_id")
	if holderType != model.HolderCustomer && holderType != model.HolderCompany {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "holder_type must be customer or company")
		return
	}
	if err := utils.ValidateID(holderID); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid holder ID", err.Error())
		return
	}

	licences, err := c.licenceService.ListByHolder(ctx.Request.Context(), holderType, holderID)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, licences)
}

// Suspend 暂停许可证
// @Summary      暂停许可证
// @Description  暂停后的许可证即时不再被验证接受
// @Tags         许可证管理
// @Produce      json
// @Param        id path string true "许可证 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /licences/{id}/suspend [post]
// @Security     BearerAuth
func (c *LicenceController) Suspend(ctx *gin.Context) {
	c.setStatus(ctx, c.licenceService.Suspend, model.LicenceSuspended)
}

// Revoke 吊销许可证
// @Summary      吊销许可证
// @Tags         许可证管理
// @Produce      json
// @Param        id path string true "许可证 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /licences/{id}/revoke [post]
// @Security     BearerAuth
func (c *LicenceController) Revoke(ctx *gin.Context) {
	c.setStatus(ctx, c.licenceService.Revoke, model.LicenceRevoked)
}

func (c *LicenceController) setStatus(ctx *gin.Context, apply func(ctx context.Context, id string) error, status model.LicenceStatus) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid licence ID", err.Error())
		return
	}

	if err := apply(ctx.Request.Context(), id); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "status": status})
}

// AddMapping 添加物质映射
// @Summary      添加许可证物质映射
// @Description  为许可证添加物质覆盖,映射有效期必须在许可证有效期内
// @Tags         许可证管理
// @Accept       json
// @Produce      json
// @Param        id path string true "许可证 ID"
// @Param        request body MappingRequest true "映射信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /licences/{id}/mappings [post]
// @Security     BearerAuth
func (c *LicenceController) AddMapping(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid licence ID", err.Error())
		return
	}

	var req MappingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	mapping := &model.LicenceSubstanceMappingModel{
		LicenceID:     id,
		SubstanceCode: req.SubstanceCode,
		EffectiveDate: req.EffectiveDate,
		ExpiryDate:    req.ExpiryDate,
	}
	if req.MaxQuantityPerTransaction != nil {
		quantity, err := decimal.NewFromString(*req.MaxQuantityPerTransaction)
		if err != nil {
			Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "invalid per-transaction cap")
			return
		}
		mapping.MaxQuantityPerTransaction = &quantity
	}
	if req.MaxQuantityPerPeriod != nil {
		quantity, err := decimal.NewFromString(*req.MaxQuantityPerPeriod)
		if err != nil {
			Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "invalid per-period cap")
			return
		}
		mapping.MaxQuantityPerPeriod = &quantity
	}
	if req.Period != nil {
		period := model.ThresholdPeriod(*req.Period)
		mapping.Period = &period
	}

	if err := c.licenceService.AddMapping(ctx.Request.Context(), mapping); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Created(ctx, mapping)
}

// RemoveMapping 删除物质映射
// @Summary      删除许可证物质映射
// @Tags         许可证管理
// @Produce      json
// @Param        id path string true "许可证 ID"
// @Param        mapping_id path string true "映射 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /licences/{id}/mappings/{mapping_id} [delete]
// @Security     BearerAuth
func (c *LicenceController) RemoveMapping(ctx *gin.Context) {
	id := ctx.Param("id")
	mappingID := ctx.Param("mapping_id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid licence ID", err.Error())
		return
	}
	if err := utils.ValidateID(mappingID); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid mapping ID", err.Error())
		return
	}

	if err := c.licenceService.RemoveMapping(ctx.Request.Context(), id, mappingID); err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, gin.H{"licence_id": id, "mapping_id": mappingID})
}

// ListMappings 查询物质映射
// @Summary      查询许可证的物质映射
// @Tags         许可证管理
// @Produce      json
// @Param        id path string true "许可证 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /licences/{id}/mappings [get]
// @Security     BearerAuth
func (c *LicenceController) ListMappings(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid licence ID", err.Error())
		return
	}

	mappings, err := c.licenceService.ListMappings(ctx.Request.Context(), id)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, mappings)
}
