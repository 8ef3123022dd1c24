package normalize

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brandlens/insight-api/internal/insight"
)

// ErrMissingBody signals a wrapper response without its payload field.
var ErrMissingBody = errors.New("response wrapper missing body field")

// Body unwraps a scraping-API response envelope. The body field may arrive as
// a nested object, a JSON string, or raw bytes; the result is always a
// concrete map. A missing body field is a contract violation and surfaces as
// a fatal MalformedUpstream error, never a retry.
func Body(backend string, wrapper map[string]any) (map[string]any, error) {
	raw, ok := wrapper["body"]
	if !ok {
		return nil, insight.MalformedUpstream(backend, ErrMissingBody)
	}
	switch body := raw.(type) {
	case map[string]any:
		return body, nil
	case string:
		return decodeBody(backend, []byte(body))
	case []byte:
		return decodeBody(backend, body)
	case json.RawMessage:
		return decodeBody(backend, body)
	default:
		return nil, insight.MalformedUpstream(backend, fmt.Errorf("unexpected body type %T", raw))
	}
}

func decodeBody(backend string, data []byte) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, insight.MalformedUpstream(backend, fmt.Errorf("invalid JSON in body: %w", err))
	}
	return body, nil
}
