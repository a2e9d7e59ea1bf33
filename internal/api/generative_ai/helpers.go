package generativeAI

import (
	"math"
	"strings"
)

// CleanJSONResponse strips markdown fencing and any prose around the first JSON
// array or object in a model response.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimPrefix(strings.TrimSpace(response), "json")
	}
	response = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(response), "```"))

	start := strings.IndexAny(response, "[{")
	if start == -1 {
		return response
	}
	closing := "]"
	if response[start] == '{' {
		closing = "}"
	}
	end := strings.LastIndex(response, closing)
	if end <= start {
		return response
	}
	return strings.TrimSpace(response[start : end+1])
}

// CosineSimilarity returns 0 for mismatched or zero-length vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}
