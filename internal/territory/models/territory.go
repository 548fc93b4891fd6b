package models

import (
	"strings"
	"time"

	"territorial/internal/counters"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

type Kind string

const (
	KindUrban Kind = "urban"
	KindRural Kind = "rural"
)

func (k Kind) IsValid() bool {
	return k == KindUrban || k == KindRural
}

type Status string

const (
	StatusAvailable Status = "available"
	StatusAssigned  Status = "assigned"
)

// Assignment is the territory's current holder.
type Assignment struct {
	AssigneeID      id.UserID `bson:"assignee_id" json:"assignee_id"`
	AssigneeName    string    `bson:"assignee_name" json:"assignee_name"`
	AssignedAt      time.Time `bson:"assigned_at" json:"assigned_at"`
	DueDate         time.Time `bson:"due_date" json:"due_date"`
	OverdueNotified bool      `bson:"overdue_notified" json:"overdue_notified"`
}

// HistoryEntry records one completed assignment.
type HistoryEntry struct {
	ID           id.HistoryLogID `bson:"id" json:"id"`
	AssigneeID   id.UserID       `bson:"assignee_id" json:"assignee_id"`
	AssigneeName string          `bson:"assignee_name" json:"assignee_name"`
	AssignedAt   time.Time       `bson:"assigned_at" json:"assigned_at"`
	CompletedAt  time.Time       `bson:"completed_at" json:"completed_at"`
	EditedAt     *time.Time      `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	EditedBy     id.UserID       `bson:"edited_by,omitempty" json:"edited_by,omitempty"`
}

// Territory is the aggregate root for assignment state.
//
// Invariants:
//   - Status == assigned iff Assignment != nil
//   - History entries are appended by Return and changed only by CorrectHistory,
//     which rewrites fields in place and never adds or removes entries
//   - Version increases by one on every lifecycle write
type Territory struct {
	ID             id.TerritoryID    `bson:"_id" json:"id"`
	CongregationID id.CongregationID `bson:"congregation_id" json:"congregation_id"`
	Number         string            `bson:"number" json:"number"`
	Name           string            `bson:"name" json:"name"`
	Kind           Kind              `bson:"kind" json:"kind"`
	Status         Status            `bson:"status" json:"status"`
	Assignment     *Assignment       `bson:"assignment,omitempty" json:"assignment,omitempty"`
	History        []HistoryEntry    `bson:"history" json:"history"`
	Stats          counters.Stats    `bson:"stats" json:"stats"`
	LastActivityAt *time.Time        `bson:"last_activity_at,omitempty" json:"last_activity_at,omitempty"`
	Version        int64             `bson:"version" json:"version"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updated_at"`
}

func NewTerritory(territoryID id.TerritoryID, congregationID id.CongregationID, number, name string, kind Kind, now time.Time) (*Territory, error) {
	number = strings.TrimSpace(number)
	name = strings.TrimSpace(name)
	if number == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "territory number cannot be empty")
	}
	if len(number) > 16 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "territory number must be 16 characters or less")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "territory name must be 128 characters or less")
	}
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "territory kind must be urban or rural")
	}
	return &Territory{
		ID:             territoryID,
		CongregationID: congregationID,
		Number:         number,
		Name:           name,
		Kind:           kind,
		Status:         StatusAvailable,
		History:        []HistoryEntry{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (t *Territory) IsAssigned() bool {
	return t.Status == StatusAssigned && t.Assignment != nil
}

// CreationDelta is the congregation counter change for creating this territory.
func (t *Territory) CreationDelta() counters.Delta {
	d := counters.Delta{Territories: 1}
	if t.Kind == KindRural {
		d.RuralTerritories = 1
	}
	return d
}

func (t *Territory) CanAssign() error {
	if t.Status == StatusAssigned || t.Assignment != nil {
		return dErrors.New(dErrors.CodeInvalidState, "territory is already assigned")
	}
	return nil
}

// ApplyAssignment sets the assignment. Call CanAssign first.
func (t *Territory) ApplyAssignment(assigneeID id.UserID, assigneeName string, durationDays int, now time.Time) {
	t.Assignment = &Assignment{
		AssigneeID:   assigneeID,
		AssigneeName: assigneeName,
		AssignedAt:   now,
		DueDate:      now.AddDate(0, 0, durationDays),
	}
	t.Status = StatusAssigned
	t.UpdatedAt = now
}

func (t *Territory) CanReturn() error {
	if t.Assignment == nil {
		return dErrors.New(dErrors.CodeInvalidState, "territory is not assigned")
	}
	return nil
}

// ApplyReturn closes the assignment into a history entry. Call CanReturn first.
func (t *Territory) ApplyReturn(now time.Time) HistoryEntry {
	entry := HistoryEntry{
		ID:           id.NewHistoryLogID(),
		AssigneeID:   t.Assignment.AssigneeID,
		AssigneeName: t.Assignment.AssigneeName,
		AssignedAt:   t.Assignment.AssignedAt,
		CompletedAt:  now,
	}
	t.History = append(t.History, entry)
	t.Assignment = nil
	t.Status = StatusAvailable
	t.UpdatedAt = now
	return entry
}

// HistoryCorrection is an administrator's rewrite of one history entry.
type HistoryCorrection struct {
	AssigneeName string
	AssignedAt   time.Time
	CompletedAt  time.Time
}

func (c HistoryCorrection) Validate() error {
	if strings.TrimSpace(c.AssigneeName) == "" {
		return dErrors.New(dErrors.CodeValidation, "assignee name is required")
	}
	if c.AssignedAt.IsZero() || c.CompletedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "assigned and completed dates are required")
	}
	if !c.AssignedAt.Before(c.CompletedAt) {
		return dErrors.New(dErrors.CodeValidation, "assigned date must be before completed date")
	}
	return nil
}

// CorrectHistory rewrites the entry in place and stamps the edit.
func (t *Territory) CorrectHistory(logID id.HistoryLogID, c HistoryCorrection, editor id.UserID, now time.Time) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for i := range t.History {
		if t.History[i].ID != logID {
			continue
		}
		e := &t.History[i]
		e.AssigneeName = strings.TrimSpace(c.AssigneeName)
		e.AssignedAt = c.AssignedAt
		e.CompletedAt = c.CompletedAt
		edited := now
		e.EditedAt = &edited
		e.EditedBy = editor
		t.UpdatedAt = now
		return nil
	}
	return dErrors.New(dErrors.CodeNotFound, "history entry not found")
}

// IsOverdue reports an assignment past its due date.
func (t *Territory) IsOverdue(now time.Time) bool {
	return t.Assignment != nil && now.After(t.Assignment.DueDate)
}
