package llmgateway

import (
	"encoding/json"
	"regexp"
	"strings"
)

// detectTruncation heuristically flags a response that was probably cut off
// mid-output: an explicit ellipsis, an unclosed brace/bracket, or an odd
// number of unescaped quotes.
func detectTruncation(content string) bool {
	if content == "" {
		return false
	}
	stripped := strings.TrimRight(content, " \t\r\n")
	if strings.HasSuffix(stripped, "...") || strings.HasSuffix(stripped, "…") {
		return true
	}
	if strings.Count(content, "{")-strings.Count(content, "}") > 0 {
		return true
	}
	if strings.Count(content, "[")-strings.Count(content, "]") > 0 {
		return true
	}
	quotes := strings.Count(content, `"`) - strings.Count(content, `\"`)
	return quotes%2 != 0
}

// extractFirstBalancedObject returns the first brace-balanced `{...}` span
// in raw, honoring string/escape context so braces inside string literals
// don't throw the depth count off.
func extractFirstBalancedObject(raw string) string {
	start := strings.Index(raw, "{")
	if start == -1 {
		return ""
	}
	inString := false
	escapeNext := false
	depth := 0
	runes := []rune(raw)
	for i := start; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case escapeNext:
			escapeNext = false
		case ch == '\\':
			if inString {
				escapeNext = true
			}
		case ch == '"':
			inString = !inString
		case inString:
			// inside a string literal, ignore structural characters
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return string(runes[start : i+1])
			}
		}
	}
	return ""
}

// repairUnbalancedObject closes a truncated `{...}` span by appending the
// missing closing brackets and braces in nesting order, returning "" if the
// input isn't salvageable (doesn't start with '{', or ends mid-string).
func repairUnbalancedObject(raw string) string {
	stripped := strings.TrimSpace(raw)
	if !strings.HasPrefix(stripped, "{") {
		return ""
	}
	inString := false
	escapeNext := false
	var closers []rune
	for _, ch := range stripped {
		switch {
		case escapeNext:
			escapeNext = false
		case ch == '\\':
			if inString {
				escapeNext = true
			}
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			closers = append(closers, '}')
		case ch == '[':
			closers = append(closers, ']')
		case ch == '}' || ch == ']':
			if len(closers) > 0 {
				closers = closers[:len(closers)-1]
			}
		}
	}
	if inString || len(closers) == 0 {
		return ""
	}
	suffix := make([]rune, 0, len(closers))
	for i := len(closers) - 1; i >= 0; i-- {
		suffix = append(suffix, closers[i])
	}
	return stripped + string(suffix)
}

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

func stripTrailingCommas(raw string) string {
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}

// sanitizeJSONString escapes unescaped newlines/tabs/carriage-returns found
// inside JSON string literals, a common way model output otherwise fails to
// parse even though it is structurally intact.
func sanitizeJSONString(raw string) string {
	var b strings.Builder
	inString := false
	escapeNext := false
	for _, ch := range raw {
		switch {
		case escapeNext:
			b.WriteRune(ch)
			escapeNext = false
		case ch == '\\':
			b.WriteRune(ch)
			escapeNext = true
		case ch == '"':
			inString = !inString
			b.WriteRune(ch)
		case inString && ch == '\n':
			b.WriteString(`\n`)
		case inString && ch == '\r':
			b.WriteString(`\r`)
		case inString && ch == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func tryUnmarshal(candidate string) (map[string]any, bool) {
	var out map[string]any
	if json.Unmarshal([]byte(candidate), &out) == nil {
		return out, true
	}
	if sanitized := sanitizeJSONString(candidate); sanitized != candidate {
		if json.Unmarshal([]byte(sanitized), &out) == nil {
			return out, true
		}
	}
	return nil, false
}

func extractFencedBlock(content, fence string) (string, bool) {
	parts := strings.SplitN(content, fence, 2)
	if len(parts) < 2 {
		return "", false
	}
	rest := parts[1]
	if idx := strings.Index(rest, "```"); idx != -1 {
		return rest[:idx], true
	}
	// unterminated fence: a truncated response, use everything after it
	return rest, true
}

// parseJSONResponse tolerantly parses a raw LLM response into a JSON
// object, trying progressively more aggressive recovery strategies:
// direct parse, fenced ```json block, fenced ``` block, a regex scan for
// the outermost {...}, the first brace-balanced object, and finally
// brace-repair of a truncated object. Returns (nil, false) only once every
// strategy has failed.
func parseJSONResponse(content string) (map[string]any, bool) {
	if content == "" {
		return nil, false
	}

	trimmed := strings.TrimSpace(content)
	if out, ok := tryUnmarshal(trimmed); ok {
		return out, true
	}

	if strings.Contains(content, "```json") {
		if block, ok := extractFencedBlock(content, "```json"); ok {
			candidate := strings.TrimSpace(block)
			if out, ok := tryUnmarshal(candidate); ok {
				return out, true
			}
			if repaired := repairUnbalancedObject(candidate); repaired != "" {
				if out, ok := tryUnmarshal(stripTrailingCommas(repaired)); ok {
					return out, true
				}
			}
		}
	}

	if strings.Contains(content, "```") {
		if block, ok := extractFencedBlock(content, "```"); ok {
			candidate := strings.TrimSpace(block)
			if out, ok := tryUnmarshal(candidate); ok {
				return out, true
			}
			if repaired := repairUnbalancedObject(candidate); repaired != "" {
				if out, ok := tryUnmarshal(stripTrailingCommas(repaired)); ok {
					return out, true
				}
			}
		}
	}

	if match := jsonObjectPattern.FindString(content); match != "" {
		if out, ok := tryUnmarshal(match); ok {
			return out, true
		}
	}

	if balanced := extractFirstBalancedObject(content); balanced != "" {
		if out, ok := tryUnmarshal(stripTrailingCommas(balanced)); ok {
			return out, true
		}
	}

	if repaired := repairUnbalancedObject(content); repaired != "" {
		if out, ok := tryUnmarshal(stripTrailingCommas(repaired)); ok {
			return out, true
		}
	}

	return nil, false
}
