package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// ReportController 合规报告与留存导出控制器
type ReportController struct {
	reportService    service.ReportService
	retentionService *service.RetentionService
	auditService     service.AuditLogService
}

// NewReportController 创建合规报告控制器
func NewReportController(
	reportService service.ReportService,
	retentionService *service.RetentionService,
	auditService service.AuditLogService,
) *ReportController {
	return &ReportController{
		reportService:    reportService,
		retentionService: retentionService,
		auditService:     auditService,
	}
}

// CustomerReport 生成客户合规报告
// @Summary      生成客户合规报告
// @Description  汇总时间窗内客户的交易、违规与物质流向,面向监管问询
// @Tags         合规报告
// @Produce      json
// @Param        id path string true "客户 ID"
// @Param        from query string true "起始日期 (RFC3339)"
// @Param        to query string true "结束日期 (RFC3339)"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/customers/{id} [get]
// @Security     BearerAuth
func (c *ReportController) CustomerReport(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid customer ID", err.Error())
		return
	}

	from, err := time.Parse(time.RFC3339, ctx.Query("from"))
	if err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "invalid from date")
		return
	}
	to, err := time.Parse(time.RFC3339, ctx.Query("to"))
	if err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "invalid to date")
		return
	}
	if !to.After(from) {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "to must be after from")
		return
	}

	report, err := c.reportService.GenerateCustomerReport(ctx.Request.Context(), id, from, to)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, report)
}

// CreateExport 触发留存导出
// @Summary      触发留存导出
// @Description  将审计轨迹、违规与许可证使用记录导出为压缩归档
// @Tags         合规报告
// @Produce      json
// @Success      201  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /reports/exports [post]
// @Security     BearerAuth
func (c *ReportController) CreateExport(ctx *gin.Context) {
	path, err := c.retentionService.CreateExport(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	// 导出已落盘,审计失败不回滚
	if err := c.auditService.RecordAction(ctx.Request.Context(), service.ActionExport, service.ResourceRetention, path, nil); err != nil {
		GetLogger().WithError(err).Warn("Failed to record audit log for retention export")
	}

	Created(ctx, gin.H{"path": path})
}

// ListExports 列出留存归档
// @Summary      列出留存归档
// @Tags         合规报告
// @Produce      json
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /reports/exports [get]
// @Security     BearerAuth
func (c *ReportController) ListExports(ctx *gin.Context) {
	exports, err := c.retentionService.ListExports()
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, exports)
}

// AuditTrail 查询资源审计轨迹
// @Summary      查询资源审计轨迹
// @Description  按资源类型与 ID 查询全部审计记录
// @Tags         合规报告
// @Produce      json
// @Param        resource_type path string true "资源类型"
// @Param        resource_id path string true "资源 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /audit/{resource_type}/{resource_id} [get]
// @Security     BearerAuth
func (c *ReportController) AuditTrail(ctx *gin.Context) {
	resourceType := ctx.Param("resource_type")
	resourceID := ctx.Param("resource_id")
	if err := utils.ValidateID(resourceType); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid resource type", err.Error())
		return
	}
	if err := utils.ValidateID(resourceID); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid resource ID", err.Error())
		return
	}

	logs, err := c.auditService.GetByResource(ctx.Request.Context(), resourceType, resourceID)
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, logs)
}
