package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottereview/ottereview-ai/internal/models"
)

func TestSuggestTitleFirstLineOnly(t *testing.T) {
	llm := &fakeLLM{response: "\"Add token rotation\"\nSome trailing explanation."}
	svc := NewAssistService(llm)

	title, err := svc.SuggestTitle(context.Background(), testPreparation())

	require.NoError(t, err)
	assert.Equal(t, "Add token rotation", title)
}

func TestSuggestTitleNoInput(t *testing.T) {
	svc := NewAssistService(&fakeLLM{})

	_, err := svc.SuggestTitle(context.Background(), &models.PreparationResult{})
	assert.ErrorIs(t, err, ErrNoChangedFiles)
}

func TestSuggestTitlePromptContainsCommits(t *testing.T) {
	llm := &fakeLLM{response: "t"}
	svc := NewAssistService(llm)

	_, err := svc.SuggestTitle(context.Background(), testPreparation())

	require.NoError(t, err)
	require.Equal(t, 1, llm.callCount())
	assert.Contains(t, llm.calls[0], "refresh tokens")
	assert.Contains(t, llm.calls[0], "src/auth/TokenService.java")
}

func TestSummarize(t *testing.T) {
	llm := &fakeLLM{response: "  This PR rotates refresh tokens.  "}
	svc := NewAssistService(llm)

	summary, err := svc.Summarize(context.Background(), testPreparation())

	require.NoError(t, err)
	assert.Equal(t, "This PR rotates refresh tokens.", summary)
}

func TestSummarizeUpstreamFailure(t *testing.T) {
	svc := NewAssistService(&fakeLLM{err: errUpstream})

	_, err := svc.Summarize(context.Background(), testPreparation())
	assert.ErrorIs(t, err, errUpstream)
}

func TestCushion(t *testing.T) {
	llm := &fakeLLM{response: "Could we consider renaming this variable?"}
	svc := NewAssistService(llm)

	out, err := svc.Cushion(context.Background(), "rename this.")

	require.NoError(t, err)
	assert.Equal(t, "Could we consider renaming this variable?", out)
}

func TestCushionEmptyComment(t *testing.T) {
	svc := NewAssistService(&fakeLLM{})

	_, err := svc.Cushion(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)
}
