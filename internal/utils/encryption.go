package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// 密钥派生参数
// 凭证编号等敏感字段落库前加密,密钥来自配置
const (
	keyIterations = 10000
	keyLength     = 32
)

// 固定盐,密钥本身来自配置且足够长,盐只用于域分离
var keySalt = []byte("compliance-gin.credential")

// deriveKey 从配置密钥派生 AES-256 密钥(PBKDF2-SHA256)
func deriveKey(key string) []byte {
	return pbkdf2.Key([]byte(key), keySalt, keyIterations, keyLength, sha256.New)
}

// Encrypt 加密敏感数据(使用 AES-256-GCM)
func Encrypt(plaintext string, key string) (string, error) {
	// 验证密钥长度(至少 32 字节)
	if len(key) < 32 {
		return "", errors.New("key must be at least 32 bytes long")
	}

	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	// 生成随机 nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt 解密敏感数据(使用 AES-256-GCM)
func Decrypt(ciphertext string, key string) (string, error) {
	if len(key) < 32 {
		return "", errors.New("key must be at least 32 bytes long")
	}

	ciphertextBytes, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	// 提取 nonce
	nonceSize := gcm.NonceSize()
	if len(ciphertextBytes) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertextBytes := ciphertextBytes[:nonceSize], ciphertextBytes[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
