package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{"without params", "01HZY", nil, "clipquiz:quiz:list:01HZY"},
		{"empty params", "01HZY", []string{}, "clipquiz:quiz:list:01HZY"},
		{"one param", "01HZY", []string{"v2"}, "clipquiz:quiz:list:01HZY:v2"},
		{"several params", "01HZY", []string{"a", "b"}, "clipquiz:quiz:list:01HZY:a_b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKey, GenerateCacheKey("quiz", "list", tt.identifier, tt.paramsKey...))
		})
	}
}

func TestQuizListKey(t *testing.T) {
	assert.Equal(t, "clipquiz:quiz:list:user-1", QuizListKey("user-1"))
}
