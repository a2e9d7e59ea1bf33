package generativeAI

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiTools(t *testing.T) {
	tools := geminiTools()
	require.Len(t, tools, 1)

	byName := map[string]*genai.FunctionDeclaration{}
	for _, d := range tools[0].FunctionDeclarations {
		byName[d.Name] = d
	}
	for _, name := range []string{FnSearchPlaces, FnSearchPlaceDetails, FnJustChat, FnSavePlace, FnSavePlan, FnUpdateTripPlan} {
		assert.Contains(t, byName, name)
	}

	update := byName[FnUpdateTripPlan]
	assert.Equal(t, []string{"newTime"}, update.Parameters.Required)
	assert.Len(t, update.Parameters.Properties, 5)
	assert.Equal(t, genai.TypeString, update.Parameters.Properties["newDate"].Type)
}

func TestOpenAITools(t *testing.T) {
	tools := openAITools()
	require.Len(t, tools, len(intentFunctions))

	search := tools[0].Function
	assert.Equal(t, FnSearchPlaces, search.Name)
	assert.Equal(t, []string{"query"}, search.Parameters["required"])
	props, ok := search.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
}

func TestStringArg(t *testing.T) {
	args := map[string]any{"query": "  cafes in Lisbon ", "n": 3.0, "nil": nil}
	assert.Equal(t, "cafes in Lisbon", StringArg(args, "query"))
	assert.Equal(t, "", StringArg(args, "n"))
	assert.Equal(t, "", StringArg(args, "nil"))
	assert.Equal(t, "", StringArg(args, "missing"))
}
