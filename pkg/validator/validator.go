package validator

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"sprouthub/pkg/domain"
)

var allowedUploadExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

var supportedLanguages = map[string]bool{
	domain.LanguageEnglish:  true,
	domain.LanguageFilipino: true,
}

func ValidateDocumentPayload(payload []byte) error {
	if len(payload) > domain.MaxPayloadSize {
		return fmt.Errorf("payload too large: %d bytes", len(payload))
	}

	if !isLikelyJSONObject(payload) {
		return fmt.Errorf("not JSON format")
	}

	return nil
}

func isLikelyJSONObject(payload []byte) bool {
	trimmed := strings.TrimLeft(string(payload), " \t\r\n")
	return strings.HasPrefix(trimmed, "{")
}

func ValidateTopicName(topic string) error {
	if len(topic) == 0 {
		return fmt.Errorf("empty topic")
	}

	if len(topic) > domain.MaxTopicLength {
		return fmt.Errorf("topic too long: %d chars", len(topic))
	}

	if strings.Contains(topic, "\x00") {
		return fmt.Errorf("topic contains null byte")
	}

	return nil
}

func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("empty document ID")
	}

	if len(id) > domain.MaxDocumentIDLength {
		return fmt.Errorf("document ID too long: %d chars", len(id))
	}

	for _, r := range id {
		if r == '/' || r == '+' || r == '#' || unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("invalid document ID format: %q", id)
		}
	}

	return nil
}

// ParseDocumentTopic splits "<prefix>docs/<collection path>/<doc id>" into the
// collection path and the document id. Collection paths alternate
// collection/document segments, so they always have an odd segment count.
func ParseDocumentTopic(topic, prefix string) (string, string, error) {
	if err := ValidateTopicName(topic); err != nil {
		return "", "", err
	}

	root := strings.TrimSuffix(prefix, "/") + "/" + domain.DocumentTopicSegment + "/"
	if prefix == "" {
		root = domain.DocumentTopicSegment + "/"
	}
	if !strings.HasPrefix(topic, root) {
		return "", "", fmt.Errorf("topic %q is outside %q", topic, root)
	}

	segments := strings.Split(strings.TrimPrefix(topic, root), "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return "", "", fmt.Errorf("topic %q does not name a document", topic)
	}

	for _, seg := range segments {
		if err := ValidateDocumentID(seg); err != nil {
			return "", "", err
		}
	}

	last := len(segments) - 1
	return strings.Join(segments[:last], "/"), segments[last], nil
}

func DocumentTopic(prefix, collection, id string) string {
	root := strings.TrimSuffix(prefix, "/")
	if root == "" {
		return domain.DocumentTopicSegment + "/" + collection + "/" + id
	}
	return root + "/" + domain.DocumentTopicSegment + "/" + collection + "/" + id
}

func ValidateUploadFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty file name")
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedUploadExtensions[ext] {
		return fmt.Errorf("unsupported file type %q", ext)
	}

	return nil
}

func ValidateLanguage(lang string) error {
	if !supportedLanguages[lang] {
		return fmt.Errorf("unsupported language %q", lang)
	}
	return nil
}

func SanitizeString(s string, maxLen int) string {
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	sanitized := strings.TrimSpace(result.String())
	if maxLen > 0 && len([]rune(sanitized)) > maxLen {
		sanitized = string([]rune(sanitized)[:maxLen])
	}

	return sanitized
}

func MatchesMQTTPattern(topic, pattern string) bool {
	if pattern == "" {
		return true
	}

	topicParts := strings.Split(topic, "/")
	patternParts := strings.Split(pattern, "/")

	for i, part := range patternParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}

	return len(topicParts) == len(patternParts)
}
