package config

import (
	"fmt"
	"os"
	"strings"
)

// ReadSecret читает секрет из файла в стандартном пути Docker Secrets.
// Для локальной разработки допускается fallback на переменную окружения
// с именем секрета в верхнем регистре (например, ai_api_key -> AI_API_KEY).
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}

	if envVal := strings.TrimSpace(os.Getenv(strings.ToUpper(secretName))); envVal != "" {
		return envVal, nil
	}
	return "", fmt.Errorf("failed to read secret %s: file %s unavailable and env fallback empty: %w", secretName, filePath, err)
}
