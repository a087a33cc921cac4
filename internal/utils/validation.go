package utils

import (
	"errors"
	"regexp"
	"strings"
)

// 验证错误
var (
	ErrEmptyID              = errors.New("ID cannot be empty")
	ErrInvalidIDFormat      = errors.New("ID can only contain letters, numbers, hyphens and underscores")
	ErrIDTooLong            = errors.New("ID cannot exceed 64 characters")
	ErrInvalidCountryCode   = errors.New("country code must be an ISO 3166-1 alpha-2 code")
	ErrInvalidSubstanceCode = errors.New("substance code can only contain uppercase letters, numbers and hyphens")
)

var (
	idPattern        = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	countryPattern   = regexp.MustCompile(`^[A-Z]{2}$`)
	substancePattern = regexp.MustCompile(`^[A-Z0-9-]+$`)
)

// ValidateID 验证资源 ID 格式
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	if len(id) > 64 {
		return ErrIDTooLong
	}
	return nil
}

// ValidateCountryCode 验证国家代码格式
func ValidateCountryCode(code string) error {
	if !countryPattern.MatchString(code) {
		return ErrInvalidCountryCode
	}
	return nil
}

// ValidateSubstanceCode 验证物质代码格式
// 物质代码是跨系统契约,统一使用大写
func ValidateSubstanceCode(code string) error {
	if code == "" || len(code) > 64 {
		return ErrInvalidSubstanceCode
	}
	if !substancePattern.MatchString(code) {
		return ErrInvalidSubstanceCode
	}
	return nil
}

// SanitizeString 清理字符串,移除控制字符
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r < 32 && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}
	return strings.TrimSpace(result.String())
}
