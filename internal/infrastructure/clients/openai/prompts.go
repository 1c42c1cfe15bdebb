package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mydscvr/backend/internal/domain/entities"
)

const maxSuggestions = 5

const scoringSystemPrompt = `You rank events in Dubai for a search query. Return ONLY valid JSON with this schema:
{
  "scored": [{"id": string, "score": number (0-100), "rationale": string (one short sentence)}],
  "suggestions": string[] (0-5 short alternative searches),
  "summary": string (1-2 friendly sentences about the results)
}
Only score ids that appear in the candidate list. Higher scores mean a better match for the query. Do not invent events, prices or dates.`

type scoringPayload struct {
	Scored      []entities.ScoredCandidate `json:"scored"`
	Suggestions []string                   `json:"suggestions"`
	Summary     string                     `json:"summary"`
}

func buildScoringUserPrompt(req *entities.RelevanceRequest) (string, error) {
	raw, err := json.Marshal(req.Candidates)
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}
	return fmt.Sprintf("Query: %s\nCandidates: %s\n", req.Query, raw), nil
}

// parseScoringPayload decodes the model output, dropping entries without
// an id and clamping scores into 0..100.
func parseScoringPayload(raw []byte) (*entities.RelevanceResult, error) {
	var payload scoringPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	scored := make([]entities.ScoredCandidate, 0, len(payload.Scored))
	for _, sc := range payload.Scored {
		sc.ID = strings.TrimSpace(sc.ID)
		if sc.ID == "" {
			continue
		}
		sc.Score = min(max(sc.Score, 0), 100)
		scored = append(scored, sc)
	}

	suggestions := make([]string, 0, len(payload.Suggestions))
	for _, s := range payload.Suggestions {
		if s = strings.TrimSpace(s); s != "" && len(suggestions) < maxSuggestions {
			suggestions = append(suggestions, s)
		}
	}

	return &entities.RelevanceResult{
		Scored:      scored,
		Suggestions: suggestions,
		Summary:     strings.TrimSpace(payload.Summary),
	}, nil
}
