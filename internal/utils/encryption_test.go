package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/utils"
)

const testKey = "0123456789abcdef0123456789abcdef"

// TestEncryptDecrypt 测试加密解密往返
func TestEncryptDecrypt(t *testing.T) {
	plaintext := "WDA-NL-12345"

	encrypted, err := utils.Encrypt(plaintext, testKey)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, encrypted)

	decrypted, err := utils.Decrypt(encrypted, testKey)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

// TestEncryptNonceRandomness 测试同一明文两次加密密文不同
func TestEncryptNonceRandomness(t *testing.T) {
	first, err := utils.Encrypt("WDA-NL-12345", testKey)
	require.NoError(t, err)
	second, err := utils.Encrypt("WDA-NL-12345", testKey)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

// TestEncryptKeyTooShort 测试短密钥被拒绝
func TestEncryptKeyTooShort(t *testing.T) {
	_, err := utils.Encrypt("data", "short-key")
	assert.Error(t, err)

	_, err = utils.Decrypt("data", "short-key")
	assert.Error(t, err)
}

// TestDecryptWrongKey 测试错误密钥解密失败
func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := utils.Encrypt("WDA-NL-12345", testKey)
	require.NoError(t, err)

	_, err = utils.Decrypt(encrypted, "ffffffffffffffffffffffffffffffff")
	assert.Error(t, err)
}

// TestDecryptMalformedCiphertext 测试损坏密文解密失败
func TestDecryptMalformedCiphertext(t *testing.T) {
	// 非 base64
	_, err := utils.Decrypt("not base64!!", testKey)
	assert.Error(t, err)

	// 过短
	_, err = utils.Decrypt("YWJj", testKey)
	assert.Error(t, err)
}
