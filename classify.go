package restclient

import (
	"encoding/json"
	"strings"
)

const (
	contentTypeJSON       = "application/json"
	contentTypeTextPrefix = "text/"
	headerContentType     = "Content-Type"
)

// classifyBody decodes a response body according to its Content-Type header.
// JSON bodies decode into generic Go values, text bodies become strings, and
// everything else passes through as raw bytes. An empty body yields nil
// regardless of content type.
func classifyBody(contentType string, body []byte) (any, BodyKind, error) {
	if len(body) == 0 {
		return nil, BodyNone, nil
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, contentTypeJSON):
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, BodyJSON, NewParseError("failed to decode JSON response body", contentType, err)
		}
		return data, BodyJSON, nil
	case strings.Contains(ct, contentTypeTextPrefix):
		return string(body), BodyText, nil
	default:
		return body, BodyBinary, nil
	}
}

// Decode unmarshals the raw response body into v, which must be a pointer.
// When the client was built with a validator, the decoded value is validated
// against its struct tags afterwards.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return NewParseError("empty response body", r.Headers.Get(headerContentType), nil)
	}

	if err := json.Unmarshal(r.Body, v); err != nil {
		return NewParseError("failed to decode response body", r.Headers.Get(headerContentType), err)
	}

	if r.validator != nil {
		return r.validator.Validate(v)
	}

	return nil
}
