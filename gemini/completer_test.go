package gemini_test

import (
	"testing"

	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompleter_DefaultsModel(t *testing.T) {
	t.Parallel()

	c := gemini.NewCompleter(nil, "") // nil client ok, no request is sent

	assert.Equal(t, gemini.DefaultModel, c.Model())
}

func TestNewCompleter_UsesGivenModel(t *testing.T) {
	t.Parallel()

	c := gemini.NewCompleter(nil, "gemini-2.5-pro")

	assert.Equal(t, "gemini-2.5-pro", c.Model())
}

func TestBuildConfig_SetsSystemInstruction(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig(gemini.DefaultModel, revex.CompletionRequest{SystemPrompt: "You are an expert."})

	require.NotNil(t, config.SystemInstruction)
	require.Len(t, config.SystemInstruction.Parts, 1)
	assert.Equal(t, "You are an expert.", config.SystemInstruction.Parts[0].Text)
}

func TestBuildConfig_OmitsEmptySystemInstruction(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig(gemini.DefaultModel, revex.CompletionRequest{})

	assert.Nil(t, config.SystemInstruction)
}

func TestBuildConfig_SetsTemperature(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig(gemini.DefaultModel, revex.CompletionRequest{Temperature: 0.7})

	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.7, *config.Temperature, 0.001)
}

func TestBuildConfig_SetsMaxOutputTokens(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig(gemini.DefaultModel, revex.CompletionRequest{MaxTokens: 150})

	assert.Equal(t, int32(150), config.MaxOutputTokens)
}

func TestBuildConfig_DisablesThinkingForFlash(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig(gemini.DefaultModel, revex.CompletionRequest{MaxTokens: 150})

	require.NotNil(t, config.ThinkingConfig)
	require.NotNil(t, config.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, int32(0), *config.ThinkingConfig.ThinkingBudget)
}

func TestBuildConfig_ProModelsKeepMinimumThinkingBudget(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig("gemini-2.5-pro", revex.CompletionRequest{MaxTokens: 150})

	require.NotNil(t, config.ThinkingConfig)
	require.NotNil(t, config.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, int32(gemini.MinProThinkingBudget), *config.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, int32(150+gemini.MinProThinkingBudget), config.MaxOutputTokens)
}

func TestBuildConfig_LeavesThinkingUnsetForOtherModels(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig("gemini-2.0-flash", revex.CompletionRequest{MaxTokens: 150})

	assert.Nil(t, config.ThinkingConfig)
	assert.Equal(t, int32(150), config.MaxOutputTokens)
}
