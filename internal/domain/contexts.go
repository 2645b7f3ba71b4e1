package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidContextData is returned when context data is invalid
	ErrInvalidContextData = errors.New("invalid context data")
	// ErrMissingRequiredField is returned when a required field is missing
	ErrMissingRequiredField = errors.New("missing required field")
)

func mapInt64(data map[string]interface{}, key string) int64 {
	switch v := data[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}

	return 0
}

func mapString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}

	return ""
}

// RegistrationContext holds data collected during the registration flow
type RegistrationContext struct {
	ChatID    int64     `json:"chat_id"`
	FullName  string    `json:"full_name"`
	BirthDate time.Time `json:"birth_date"`
	Phone     string    `json:"phone"`
}

// ToMap converts RegistrationContext to a map for JSON serialization
func (c *RegistrationContext) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"chat_id":   c.ChatID,
		"full_name": c.FullName,
		"phone":     c.Phone,
	}
	if !c.BirthDate.IsZero() {
		m["birth_date"] = c.BirthDate.Format(time.RFC3339)
	}

	return m
}

// FromMap populates RegistrationContext from a map after JSON deserialization
func (c *RegistrationContext) FromMap(data map[string]interface{}) error {
	if data == nil {
		return ErrInvalidContextData
	}

	c.ChatID = mapInt64(data, "chat_id")
	c.FullName = mapString(data, "full_name")
	c.Phone = mapString(data, "phone")

	if birthStr, ok := data["birth_date"].(string); ok && birthStr != "" {
		birth, err := time.Parse(time.RFC3339, birthStr)
		if err != nil {
			return fmt.Errorf("failed to parse birth_date: %w", err)
		}
		c.BirthDate = birth
	}

	return nil
}

// Validate validates the RegistrationContext for required fields
func (c *RegistrationContext) Validate() error {
	if c.ChatID == 0 {
		return fmt.Errorf("%w: chat_id", ErrMissingRequiredField)
	}

	return nil
}

// SubmissionContext holds data collected during the submission flow
type SubmissionContext struct {
	ChatID        int64   `json:"chat_id"`
	ParticipantID int64   `json:"participant_id"`
	ChallengeID   int64   `json:"challenge_id"`
	MediaToken    string  `json:"media_token"`
	ResultValue   float64 `json:"result_value"`
}

// ToMap converts SubmissionContext to a map for JSON serialization
func (c *SubmissionContext) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"chat_id":        c.ChatID,
		"participant_id": c.ParticipantID,
		"challenge_id":   c.ChallengeID,
		"media_token":    c.MediaToken,
		"result_value":   c.ResultValue,
	}
}

// FromMap populates SubmissionContext from a map after JSON deserialization
func (c *SubmissionContext) FromMap(data map[string]interface{}) error {
	if data == nil {
		return ErrInvalidContextData
	}

	c.ChatID = mapInt64(data, "chat_id")
	c.ParticipantID = mapInt64(data, "participant_id")
	c.ChallengeID = mapInt64(data, "challenge_id")
	c.MediaToken = mapString(data, "media_token")

	if v, ok := data["result_value"].(float64); ok {
		c.ResultValue = v
	}

	return nil
}

// Validate validates the SubmissionContext for required fields
func (c *SubmissionContext) Validate() error {
	if c.ChatID == 0 {
		return fmt.Errorf("%w: chat_id", ErrMissingRequiredField)
	}

	return nil
}

// DistanceContext holds the pending event while a distance is being chosen
type DistanceContext struct {
	ChatID         int64 `json:"chat_id"`
	ParticipantID  int64 `json:"participant_id"`
	PendingEventID int64 `json:"pending_event_id"`
}

// ToMap converts DistanceContext to a map for JSON serialization
func (c *DistanceContext) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"chat_id":          c.ChatID,
		"participant_id":   c.ParticipantID,
		"pending_event_id": c.PendingEventID,
	}
}

// FromMap populates DistanceContext from a map after JSON deserialization
func (c *DistanceContext) FromMap(data map[string]interface{}) error {
	if data == nil {
		return ErrInvalidContextData
	}

	c.ChatID = mapInt64(data, "chat_id")
	c.ParticipantID = mapInt64(data, "participant_id")
	c.PendingEventID = mapInt64(data, "pending_event_id")

	return nil
}

// Validate validates the DistanceContext for required fields
func (c *DistanceContext) Validate() error {
	if c.ChatID == 0 {
		return fmt.Errorf("%w: chat_id", ErrMissingRequiredField)
	}
	if c.PendingEventID == 0 {
		return fmt.Errorf("%w: pending_event_id", ErrMissingRequiredField)
	}

	return nil
}
