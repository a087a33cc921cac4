package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yuriirask-bit/compliance-gin/internal/service"
)

// StatisticsController 合规统计控制器
type StatisticsController struct {
	statisticsService service.StatisticsService
}

// NewStatisticsController 创建合规统计控制器
func NewStatisticsController(statisticsService service.StatisticsService) *StatisticsController {
	return &StatisticsController{
		statisticsService: statisticsService,
	}
}

// TransactionsByStatus 按验证状态统计交易
// @Summary      按验证状态统计交易
// @Tags         合规统计
// @Produce      json
// @Success      200  {object}  Response
// @Router       /statistics/transactions/by-status [get]
// @Security     BearerAuth
func (c *StatisticsController) TransactionsByStatus(ctx *gin.Context) {
	stats, err := c.statisticsService.GetTransactionStatisticsByStatus(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, stats)
}

// ViolationsByCode 按违规代码统计
// @Summary      按违规代码统计
// @Tags         合规统计
// @Produce      json
// @Success      200  {object}  Response
// @Router       /statistics/violations/by-code [get]
// @Security     BearerAuth
func (c *StatisticsController) ViolationsByCode(ctx *gin.Context) {
	stats, err := c.statisticsService.GetViolationStatisticsByCode(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, stats)
}

// TransactionsByTime 按日期统计交易量
// @Summary      按日期统计交易量
// @Tags         合规统计
// @Produce      json
// @Success      200  {object}  Response
// @Router       /statistics/transactions/by-time [get]
// @Security     BearerAuth
func (c *StatisticsController) TransactionsByTime(ctx *gin.Context) {
	stats, err := c.statisticsService.GetTransactionStatisticsByTime(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, stats)
}

// Overrides 例外审批统计
// @Summary      例外审批统计
// @Description  返回待审批、已批准、已驳回数量与批准率
// @Tags         合规统计
// @Produce      json
// @Success      200  {object}  Response
// @Router       /statistics/overrides [get]
// @Security     BearerAuth
func (c *StatisticsController) Overrides(ctx *gin.Context) {
	stats, err := c.statisticsService.GetOverrideStatistics(ctx.Request.Context())
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, stats)
}

// LicenceUtilisation 许可证使用量统计
// @Summary      许可证使用量统计
// @Description  按许可证与物质汇总已授权的交易数量
// @Tags         合规统计
// @Produce      json
// @Param        licence_id query string false "许可证 ID,空为全部"
// @Success      200  {object}  Response
// @Router       /statistics/licence-utilisation [get]
// @Security     BearerAuth
func (c *StatisticsController) LicenceUtilisation(ctx *gin.Context) {
	stats, err := c.statisticsService.GetLicenceUtilisation(ctx.Request.Context(), ctx.Query("licence_id"))
	if err != nil {
		HandleServiceError(ctx, err)
		return
	}

	Success(ctx, stats)
}
