package model

import "time"

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent describes one write on the nomination collection.
type ChangeEvent struct {
	ID           string     `json:"id"`
	Type         ChangeType `json:"type"`
	Nomination   Nomination `json:"nomination"`
	JudgeName    string     `json:"judge_name,omitempty"`
	CategoryName string     `json:"category_name,omitempty"`
	Grade        string     `json:"grade,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}
