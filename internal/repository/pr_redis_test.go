package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreparationKey(t *testing.T) {
	assert.Equal(t, "pr:prepare:42:feature_login:main",
		preparationKey(42, "feature/login", "main"))
	assert.Equal(t, "pr:prepare:7:release_v1.2:hotfix_urgent_fix",
		preparationKey(7, "release:v1.2", "hotfix/urgent fix"))
}

func TestSanitizeBranch(t *testing.T) {
	assert.Equal(t, "feature_a_b_c", sanitizeBranch("feature/a:b c"))
	assert.Equal(t, "main", sanitizeBranch("main"))
}
