package cache

import "strings"

const (
	GlobalKeyPrefix = "clipquiz"
)

// GenerateCacheKey builds "clipquiz:<service>:<object>:<id>[:<params joined by _>]".
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// QuizListKey is the key under which a user's quiz list is cached.
func QuizListKey(userID string) string {
	return GenerateCacheKey("quiz", "list", userID)
}
