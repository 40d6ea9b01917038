package book

import (
	"encoding/json"
	"strings"
)

// EncodeSubjects serializes subject tags. An empty list encodes to "".
func EncodeSubjects(subjects []string) string {
	if len(subjects) == 0 {
		return ""
	}
	data, err := json.Marshal(subjects)
	if err != nil {
		// []string always marshals
		return ""
	}
	return string(data)
}

// DecodeSubjects parses a serialized subject list. Anything that is not a JSON
// list of strings is treated as no subjects.
func DecodeSubjects(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var subjects []string
	if err := json.Unmarshal([]byte(raw), &subjects); err != nil {
		return nil
	}
	return subjects
}
