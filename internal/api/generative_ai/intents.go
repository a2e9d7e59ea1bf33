package generativeAI

import (
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

const (
	FnSearchPlaces       = "search_places"
	FnSearchPlaceDetails = "search_place_details"
	FnJustChat           = "just_chat"
	FnSavePlace          = "save_place"
	FnSavePlan           = "save_plan"
	FnUpdateTripPlan     = "update_trip_plan"
)

type intentParam struct {
	name        string
	description string
	required    bool
}

type intentFunction struct {
	name        string
	description string
	params      []intentParam
}

// All parameters are strings; dates use YYYY-MM-DD and times HH:MM:SS.
var intentFunctions = []intentFunction{
	{
		name: FnSearchPlaces,
		description: "Search for various types of places based on the user query, such as 'popular cafes in Barcelona'. " +
			"Use it for general searches where the user wants multiple options or recommendations.",
		params: []intentParam{
			{name: "query", description: "Search query for finding places, translated to English.", required: true},
		},
	},
	{
		name: FnSearchPlaceDetails,
		description: "Fetch detailed information about one specific place by name. " +
			"Use it when the user names a specific place and wants details about it.",
		params: []intentParam{
			{name: "query", description: "Name of the place, translated to English.", required: true},
		},
	},
	{
		name:        FnJustChat,
		description: "Respond to general questions and provide information.",
		params: []intentParam{
			{name: "query", description: "The user's general question.", required: true},
		},
	},
	{
		name: FnSavePlace,
		description: "Save places from the latest search results. Use it when the user gives one or more result numbers " +
			"and asks to save, add or go to them, or confirms a place shown in detail.",
		params: []intentParam{
			{name: "query", description: "The user's message including the result numbers.", required: true},
		},
	},
	{
		name: FnSavePlan,
		description: "Build and store the trip itinerary from the saved places. Use it when the user asks to make the " +
			"schedule or says the saved places are enough.",
		params: []intentParam{
			{name: "query", description: "The user's message.", required: true},
		},
	},
	{
		name:        FnUpdateTripPlan,
		description: "Change an existing itinerary entry. Use it whenever the user wants to modify the schedule.",
		params: []intentParam{
			{name: "date", description: "Current date of the entry to change, YYYY-MM-DD."},
			{name: "title", description: "Current title of the entry to change."},
			{name: "newTitle", description: "New title for the entry."},
			{name: "newDate", description: "New date for the entry, YYYY-MM-DD."},
			{name: "newTime", description: "New start time for the entry, HH:MM:SS.", required: true},
		},
	},
}

func (f intentFunction) required() []string {
	var out []string
	for _, p := range f.params {
		if p.required {
			out = append(out, p.name)
		}
	}
	return out
}

func geminiTools() []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(intentFunctions))
	for _, f := range intentFunctions {
		props := make(map[string]*genai.Schema, len(f.params))
		for _, p := range f.params {
			props[p.name] = &genai.Schema{Type: genai.TypeString, Description: p.description}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        f.name,
			Description: f.description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   f.required(),
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func openAITools() []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(intentFunctions))
	for _, f := range intentFunctions {
		props := make(map[string]any, len(f.params))
		for _, p := range f.params {
			props[p.name] = map[string]any{"type": "string", "description": p.description}
		}
		params := openai.FunctionParameters{
			"type":       "object",
			"properties": props,
		}
		if req := f.required(); len(req) > 0 {
			params["required"] = req
		}
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        f.name,
				Description: openai.String(f.description),
				Parameters:  params,
			},
		})
	}
	return tools
}

// StringArg returns a trimmed string argument, or "" when absent or not a string.
func StringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return trimSpace(s)
}
