package toml

import (
	"fmt"
	"time"

	"github.com/bnema/roundtable/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version   int              `toml:"version"`
	ID        string           `toml:"id"`
	Topic     string           `toml:"topic"`
	SavedAt   string           `toml:"saved_at"`
	Instances []instanceSchema `toml:"instances"`
	Turns     []turnSchema     `toml:"turns"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type instanceSchema struct {
	ID      int64  `toml:"id"`
	Persona string `toml:"persona"`
	Name    string `toml:"name"`
	Prompt  string `toml:"prompt"`
}

type turnSchema struct {
	Speaker string `toml:"speaker"`
	Text    string `toml:"text"`
	At      string `toml:"at,omitempty"`
}

func toSchema(record domain.SessionRecord) fileSchema {
	file := fileSchema{
		Version:   currentSchemaVersion,
		ID:        record.ID,
		Topic:     record.Topic,
		SavedAt:   formatTime(record.SavedAt),
		Instances: make([]instanceSchema, 0, len(record.Instances)),
		Turns:     make([]turnSchema, 0, len(record.Turns)),
	}
	for _, instance := range record.Instances {
		file.Instances = append(file.Instances, instanceSchema{
			ID:      int64(instance.ID),
			Persona: string(instance.Persona.ID),
			Name:    instance.Persona.Name,
			Prompt:  instance.Persona.Prompt,
		})
	}
	for _, turn := range record.Turns {
		file.Turns = append(file.Turns, turnSchema{
			Speaker: turn.Speaker,
			Text:    turn.Text,
			At:      formatTime(turn.At),
		})
	}

	return file
}

func fromSchema(file fileSchema) domain.SessionRecord {
	record := domain.SessionRecord{
		ID:        file.ID,
		Topic:     file.Topic,
		SavedAt:   parseTime(file.SavedAt),
		Instances: make([]domain.Instance, 0, len(file.Instances)),
		Turns:     make(domain.Transcript, 0, len(file.Turns)),
	}
	for _, entry := range file.Instances {
		record.Instances = append(record.Instances, domain.Instance{
			ID: domain.InstanceID(entry.ID),
			Persona: domain.Persona{
				ID:     domain.PersonaID(entry.Persona),
				Name:   entry.Name,
				Prompt: entry.Prompt,
			},
		})
	}
	for _, entry := range file.Turns {
		record.Turns = append(record.Turns, domain.Turn{
			Speaker: entry.Speaker,
			Text:    entry.Text,
			At:      parseTime(entry.At),
		})
	}

	return record
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
