package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottereview/ottereview-ai/internal/models"
)

func TestClassifyPartitionsEveryFile(t *testing.T) {
	files := []models.ChangedFile{
		{Filename: "src/auth/TokenService.java", Status: "modified", Additions: 40, Deletions: 10},
		{Filename: "src/user/UserRepository.java", Status: "modified", Additions: 20, Deletions: 5},
		{Filename: "docs/notes.md", Status: "added", Additions: 12},
		{Filename: "src/api/UserController.java", Status: "modified", Additions: 8, Deletions: 2},
	}

	groups := NewClassifier(ByKeyword).Classify(files)

	seen := make(map[string]int)
	for _, g := range groups {
		for _, name := range g.Files {
			seen[name]++
		}
	}
	require.Len(t, seen, len(files))
	for name, n := range seen {
		assert.Equal(t, 1, n, "file %s must belong to exactly one group", name)
	}
}

func TestClassifyIsOrderIndependent(t *testing.T) {
	files := []models.ChangedFile{
		{Filename: "auth/login.go", Additions: 30},
		{Filename: "api/handler.go", Additions: 10},
		{Filename: "README.md", Additions: 5},
	}
	reversed := []models.ChangedFile{files[2], files[1], files[0]}

	c := NewClassifier(ByKeyword)
	assert.Equal(t, c.Classify(files), c.Classify(reversed))
}

func TestClassifyIsIdempotent(t *testing.T) {
	files := []models.ChangedFile{
		{Filename: "internal/config/config.go", Additions: 15},
		{Filename: "internal/service/priority.go", Additions: 80},
	}

	c := NewClassifier(ByKeyword)
	first := c.Classify(files)
	second := c.Classify(files)
	assert.Equal(t, first, second)
}

func TestClassifyDeduplicatesFiles(t *testing.T) {
	files := []models.ChangedFile{
		{Filename: "auth/token.go", Additions: 50},
		{Filename: "auth/token.go", Additions: 50},
	}

	groups := NewClassifier(ByKeyword).Classify(files)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"auth/token.go"}, groups[0].Files)
	assert.Equal(t, 50, groups[0].Volume)
}

func TestClassifyDirectoryFallback(t *testing.T) {
	groups := NewClassifier(ByKeyword).Classify([]models.ChangedFile{
		{Filename: "misc/helper.go", Additions: 5},
		{Filename: "Makefile", Additions: 3},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "misc", groups[0].Category)
	assert.Equal(t, "root", groups[1].Category)
}

func TestScaleThresholds(t *testing.T) {
	assert.Equal(t, models.ScaleSmall, scaleFor(50))
	assert.Equal(t, models.ScaleMedium, scaleFor(51))
	assert.Equal(t, models.ScaleMedium, scaleFor(200))
	assert.Equal(t, models.ScaleLarge, scaleFor(201))
}

func TestComplexityThresholds(t *testing.T) {
	assert.Equal(t, models.ComplexitySimple, complexityFor(2))
	assert.Equal(t, models.ComplexityModerate, complexityFor(3))
	assert.Equal(t, models.ComplexityModerate, complexityFor(5))
	assert.Equal(t, models.ComplexityComplex, complexityFor(6))
}

func TestByKeywordPrefersEarlierCategory(t *testing.T) {
	// "auth" wins over "api" for a path containing both signals.
	got := ByKeyword(models.ChangedFile{Filename: "api/auth_handler.go"})
	assert.Equal(t, "auth", got)
}

func TestFileIndicators(t *testing.T) {
	inds := fileIndicators(models.ChangedFile{
		Filename:  "service/token_test.go",
		Status:    "added",
		Additions: 120,
	}, "test")

	assert.Contains(t, inds, "large change")
	assert.Contains(t, inds, "new file added")
	assert.Contains(t, inds, "core source code")
	assert.Contains(t, inds, "test code")
}
