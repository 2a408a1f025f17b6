package models

import "time"

const (
	StatusDraft = "draft"
	StatusFinal = "final"
)

type Domain struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

type Agent struct {
	ID          string
	DomainID    string
	Name        string
	Description string
	Version     int
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Question struct {
	ID        string
	AgentID   string
	Text      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time

	Answer   *Answer
	Variants []QuestionVariant
}

type Answer struct {
	ID         string
	QuestionID string
	Text       string
	HTML       string
	Status     string

	Variants []AnswerVariant
}

type QuestionVariant struct {
	ID          string
	QuestionID  string
	VariantText string
	Technique   string
	Confidence  float64
	IsApproved  bool
}

type AnswerVariant struct {
	ID          string
	AnswerID    string
	VariantText string
	VariantHTML string
	Technique   string
	Confidence  float64
	IsApproved  bool
}

type ChatSession struct {
	ID           string
	AgentID      string
	VisitorID    string
	MessageCount int
	CreatedAt    time.Time
	LastActiveAt time.Time
}

const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

type ChatMessage struct {
	ID         string
	SessionID  string
	Sender     string
	Text       string
	HTML       string
	QuestionID string
	AnswerID   string
	Score      float64
	CreatedAt  time.Time
}

type AuditEntry struct {
	ID         int
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Detail     string
	CreatedAt  time.Time
}
