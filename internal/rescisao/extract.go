package rescisao

import (
	"encoding/json"
	"regexp"
	"strings"
)

var lineBreaks = strings.NewReplacer("\r\n", "", "\r", "", "\n", "")

// blockPattern matches the first object or array span, greedy up to the last
// closing bracket of the same kind.
var blockPattern = regexp.MustCompile(`\{[\s\S]*\}|\[[\s\S]*\]`)

// ExtractJSON locates the JSON object embedded in an AI answer: the span
// from the first '{' to the last '}'. Line breaks are removed before parsing
// because models emit raw newlines inside string values.
func ExtractJSON(text string) (Document, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		e := newError(KindExtractionFailed, "no JSON object found in AI response", nil)
		e.Snippet = snippet(text)
		return Document{}, e
	}

	candidate := lineBreaks.Replace(text[start : end+1])
	doc, err := ParseDocument([]byte(candidate))
	if err != nil {
		e := newError(KindParseFailed, "failed to parse JSON extracted from AI response", err)
		e.Snippet = snippet(text)
		return Document{}, e
	}
	return doc, nil
}

// ExtractBlock returns the first {...} or [...] span of text, without
// parsing it. ok is false when the text holds no such span.
func ExtractBlock(text string) (block string, ok bool) {
	loc := blockPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

// TryParseJSON validates text as a single JSON value. It is the branch point
// between structured answers and Markdown-only ones.
func TryParseJSON(text string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
