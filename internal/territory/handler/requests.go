package handler

import (
	"strings"
	"time"

	"territorial/internal/territory/models"
	id "territorial/pkg/domain"
	dErrors "territorial/pkg/domain-errors"
)

// ResetProgressRequest is the body of POST /resetTerritoryProgress.
type ResetProgressRequest struct {
	CongregationID string `json:"congregationId"`
	TerritoryID    string `json:"territoryId"`

	congregationID id.CongregationID
	territoryID    id.TerritoryID
}

func (r *ResetProgressRequest) Validate() error {
	if r.CongregationID == "" || r.TerritoryID == "" {
		return dErrors.New(dErrors.CodeValidation, "congregationId and territoryId are required")
	}
	var err error
	if r.congregationID, err = id.ParseCongregationID(r.CongregationID); err != nil {
		return err
	}
	r.territoryID, err = id.ParseTerritoryID(r.TerritoryID)
	return err
}

type CreateTerritoryRequest struct {
	CongregationID string `json:"congregationId"`
	Number         string `json:"number"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`

	congregationID id.CongregationID
}

func (r *CreateTerritoryRequest) Validate() error {
	r.Number = strings.TrimSpace(r.Number)
	if r.Number == "" {
		return dErrors.New(dErrors.CodeValidation, "number is required")
	}
	if r.Kind == "" {
		r.Kind = string(models.KindUrban)
	}
	if !models.Kind(r.Kind).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "kind must be urban or rural")
	}
	var err error
	r.congregationID, err = id.ParseCongregationID(r.CongregationID)
	return err
}

type AssignRequest struct {
	AssigneeID   string `json:"assigneeId"`
	DurationDays int    `json:"durationDays"`

	assigneeID id.UserID
}

func (r *AssignRequest) Validate() error {
	if r.DurationDays <= 0 {
		return dErrors.New(dErrors.CodeValidation, "durationDays must be positive")
	}
	var err error
	r.assigneeID, err = id.ParseUserID(r.AssigneeID)
	return err
}

type EditHistoryRequest struct {
	AssigneeName string    `json:"assigneeName"`
	AssignedAt   time.Time `json:"assignedAt"`
	CompletedAt  time.Time `json:"completedAt"`
}

func (r *EditHistoryRequest) Validate() error {
	return r.correction().Validate()
}

func (r *EditHistoryRequest) correction() models.HistoryCorrection {
	return models.HistoryCorrection{
		AssigneeName: r.AssigneeName,
		AssignedAt:   r.AssignedAt,
		CompletedAt:  r.CompletedAt,
	}
}

type CreateQuadraRequest struct {
	Name   string `json:"name"`
	Houses int    `json:"houses"`
}

func (r *CreateQuadraRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Houses < 0 || r.Houses > models.MaxHousesPerQuadra {
		return dErrors.New(dErrors.CodeValidation, "houses must be between 0 and 2000")
	}
	return nil
}

type MarkHouseRequest struct {
	Done  *bool   `json:"done"`
	Notes *string `json:"notes"`
}

func (r *MarkHouseRequest) Validate() error {
	if r.Done == nil {
		return dErrors.New(dErrors.CodeValidation, "done is required")
	}
	return nil
}

type ResetProgressResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ChangedCount int64  `json:"changedCount"`
}

type MarkHouseResponse struct {
	Changed bool `json:"changed"`
}
