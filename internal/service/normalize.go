package service

import (
	"encoding/json"
	"strings"
	"time"

	"flowfix/internal/model"
	"flowfix/internal/sanitize"
)

var stages = map[string]string{
	model.StageTodo:       model.StageTodo,
	model.StageInProgress: model.StageInProgress,
	"in progress":         model.StageInProgress,
	model.StageCompleted:  model.StageCompleted,
}

var priorities = map[string]bool{
	model.PriorityLow:    true,
	model.PriorityNormal: true,
	model.PriorityMedium: true,
	model.PriorityHigh:   true,
}

// NormalizeStage lower-cases s and maps it onto a known stage.
func NormalizeStage(s string) (string, error) {
	if stage, ok := stages[strings.ToLower(strings.TrimSpace(s))]; ok {
		return stage, nil
	}
	return "", validationError(msgStageInvalid)
}

// NormalizePriority lower-cases s and checks it against the known priorities.
func NormalizePriority(s string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(s))
	if !priorities[p] {
		return "", validationError(msgPriorityInvalid)
	}
	return p, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339. An empty value yields fallback.
func ParseDate(s string, fallback time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, validationError(msgDateInvalid)
}

// Links is a list of URLs that decodes from either a JSON array of strings
// or a single comma-separated string.
type Links []string

func (l *Links) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = normalizeLinks(list)
		return nil
	}
	var joined *string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	if joined == nil {
		*l = nil
		return nil
	}
	*l = normalizeLinks(strings.Split(*joined, ","))
	return nil
}

func normalizeLinks(items []string) Links {
	return Links(sanitize.List(items))
}
