package outreach

import (
	"encoding/json"
	"fmt"

	"github.com/spigell/cold-mailer/internal/utils"
)

// ParseResult is the outcome of reading the extraction response: either
// Parsed or Failed.
type ParseResult interface {
	parseResult()
}

// Parsed holds the postings in the order the model listed them.
type Parsed struct {
	Jobs []JobPosting
}

// Failed explains why the response could not be used.
type Failed struct {
	Reason string
}

func (Parsed) parseResult() {}
func (Failed) parseResult() {}

// ParseJobs accepts a JSON object or an array of objects, optionally wrapped
// in a markdown code fence. When the response is not JSON as a whole, the
// first fenced block anywhere in it is tried instead. A lone object becomes a
// one element list.
func ParseJobs(raw string) ParseResult {
	payload := utils.StripCodeFence(raw)
	if payload == "" {
		return Failed{Reason: "empty response"}
	}

	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		block, ok := utils.FindCodeFence(raw)
		if !ok {
			return Failed{Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		decoded = nil
		if blockErr := json.Unmarshal([]byte(block), &decoded); blockErr != nil {
			return Failed{Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
	}

	switch v := decoded.(type) {
	case map[string]any:
		return Parsed{Jobs: []JobPosting{decodeJob(v)}}
	case []any:
		jobs := make([]JobPosting, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return Failed{Reason: fmt.Sprintf("element %d is %s, not an object", i, jsonKind(item))}
			}
			jobs = append(jobs, decodeJob(obj))
		}
		return Parsed{Jobs: jobs}
	default:
		return Failed{Reason: fmt.Sprintf("expected an object or a list, got %s", jsonKind(decoded))}
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "a list"
	default:
		return "an object"
	}
}
