// Package domain holds identifier and enumeration types shared across modules.
//
// Identifiers are UUID strings. They are stored as-is in documents and rows, so
// each type is a named string that can only be produced from input by a Parse
// function validating the UUID form.
package domain

import (
	"github.com/google/uuid"

	dErrors "territorial/pkg/domain-errors"
)

type (
	UserID         string
	CongregationID string
	TerritoryID    string
	QuadraID       string
	HouseID        string
	HistoryLogID   string
	NotificationID string
)

func (id UserID) String() string         { return string(id) }
func (id CongregationID) String() string { return string(id) }
func (id TerritoryID) String() string    { return string(id) }
func (id QuadraID) String() string       { return string(id) }
func (id HouseID) String() string        { return string(id) }
func (id HistoryLogID) String() string   { return string(id) }
func (id NotificationID) String() string { return string(id) }

func (id UserID) IsNil() bool { return id == "" }

func NewUserID() UserID                 { return UserID(uuid.NewString()) }
func NewCongregationID() CongregationID { return CongregationID(uuid.NewString()) }
func NewTerritoryID() TerritoryID       { return TerritoryID(uuid.NewString()) }
func NewQuadraID() QuadraID             { return QuadraID(uuid.NewString()) }
func NewHouseID() HouseID               { return HouseID(uuid.NewString()) }
func NewHistoryLogID() HistoryLogID     { return HistoryLogID(uuid.NewString()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.NewString()) }

type idType interface {
	~string
}

func parseID[T idType](kind, raw string) (T, error) {
	var zero T
	if raw == "" {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return T(parsed.String()), nil
}

func ParseUserID(s string) (UserID, error) { return parseID[UserID]("user ID", s) }
func ParseCongregationID(s string) (CongregationID, error) {
	return parseID[CongregationID]("congregation ID", s)
}
func ParseTerritoryID(s string) (TerritoryID, error) {
	return parseID[TerritoryID]("territory ID", s)
}
func ParseQuadraID(s string) (QuadraID, error) { return parseID[QuadraID]("quadra ID", s) }
func ParseHouseID(s string) (HouseID, error)   { return parseID[HouseID]("house ID", s) }
func ParseHistoryLogID(s string) (HistoryLogID, error) {
	return parseID[HistoryLogID]("history log ID", s)
}
func ParseNotificationID(s string) (NotificationID, error) {
	return parseID[NotificationID]("notification ID", s)
}
