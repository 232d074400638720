package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/alexelgier/minerva/application/ports"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// GenerateJSON runs a generation request and decodes the completion into
// out. Models habitually wrap JSON in markdown fences or preamble text, so
// the decoder scans for the first JSON value instead of trusting the whole
// completion.
func GenerateJSON(ctx context.Context, client ports.LLMClient, req ports.GenerateRequest, out any) error {
	response, err := client.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := DecodeJSON(response, out); err != nil {
		return pkgerrors.NewProcessing("llm returned malformed json", err)
	}
	return nil
}

// DecodeJSON extracts the first JSON object or array from a completion and
// unmarshals it into out
func DecodeJSON(response string, out any) error {
	payload := extractJSON(response)
	if payload == "" {
		return pkgerrors.NewProcessing("no json value found in completion", nil)
	}
	return json.Unmarshal([]byte(payload), out)
}

// extractJSON strips markdown fences and preamble, returning the substring
// from the first '{' or '[' through its matching close. Balance counting
// ignores brackets inside string literals.
func extractJSON(s string) string {
	if fence := strings.Index(s, "```"); fence >= 0 {
		rest := s[fence+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = rest[:end]
		}
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	open := s[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
