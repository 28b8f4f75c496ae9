package extract

import "encoding/json"

// RawItem is a single entry as reported by the extraction model.
// Links and images may still be relative, fields may be empty.
type RawItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	Image       string `json:"image"`
}

// RawExtraction is the decoded shape of a model response.
type RawExtraction struct {
	Title       string
	Description string
	Items       []RawItem
}

// rawEnvelope mirrors the JSON contract. Items is kept raw so that a
// missing or malformed items field degrades to an empty list instead of
// failing the whole decode.
type rawEnvelope struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Items       json.RawMessage `json:"items"`
}

func (e *rawEnvelope) toExtraction() *RawExtraction {
	result := &RawExtraction{
		Title:       e.Title,
		Description: e.Description,
	}

	if len(e.Items) > 0 {
		var items []RawItem
		if err := json.Unmarshal(e.Items, &items); err == nil {
			result.Items = items
		}
	}

	return result
}
