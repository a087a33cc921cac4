package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryInt 解析整型查询参数,无效或缺省时返回默认值
func queryInt(c *gin.Context, key string, defaultValue int) int {
	v := c.Query(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
