package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

// TestValidateID 测试资源 ID 格式校验
func TestValidateID(t *testing.T) {
	assert.NoError(t, utils.ValidateID("txn-001"))
	assert.NoError(t, utils.ValidateID("a_B-9"))

	assert.ErrorIs(t, utils.ValidateID(""), utils.ErrEmptyID)
	assert.ErrorIs(t, utils.ValidateID("txn/001"), utils.ErrInvalidIDFormat)
	assert.ErrorIs(t, utils.ValidateID("txn 001"), utils.ErrInvalidIDFormat)
	assert.ErrorIs(t, utils.ValidateID(strings.Repeat("a", 65)), utils.ErrIDTooLong)
}

// TestValidateCountryCode 测试国家代码校验
func TestValidateCountryCode(t *testing.T) {
	assert.NoError(t, utils.ValidateCountryCode("NL"))
	assert.NoError(t, utils.ValidateCountryCode("DE"))

	assert.ErrorIs(t, utils.ValidateCountryCode("nl"), utils.ErrInvalidCountryCode)
	assert.ErrorIs(t, utils.ValidateCountryCode("NLD"), utils.ErrInvalidCountryCode)
	assert.ErrorIs(t, utils.ValidateCountryCode(""), utils.ErrInvalidCountryCode)
}

// TestValidateSubstanceCode 测试物质代码校验
func TestValidateSubstanceCode(t *testing.T) {
	assert.NoError(t, utils.ValidateSubstanceCode("MORPHINE"))
	assert.NoError(t, utils.ValidateSubstanceCode("OPIUM-EXTRACT-2"))

	assert.ErrorIs(t, utils.ValidateSubstanceCode("morphine"), utils.ErrInvalidSubstanceCode)
	assert.ErrorIs(t, utils.ValidateSubstanceCode(""), utils.ErrInvalidSubstanceCode)
	assert.ErrorIs(t, utils.ValidateSubstanceCode(strings.Repeat("A", 65)), utils.ErrInvalidSubstanceCode)
}

// TestSanitizeString 测试控制字符清理
func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello world", utils.SanitizeString("  hello world  "))
	assert.Equal(t, "line1\nline2", utils.SanitizeString("line1\nline2"))
	assert.Equal(t, "ab", utils.SanitizeString("a\x00b\x07"))
}
