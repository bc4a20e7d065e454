package entity

import (
	"time"
)

// Stage is the lifecycle stage of a report. Each stage is backed by its own
// collection; a report's stage is the collection it lives in.
type Stage string

const (
	StageLost     Stage = "lost_items"
	StageFound    Stage = "found_items"
	StageReturned Stage = "returned_items" // legacy second stage, never written
)

// ParseStage resolves a collection name to a stage.
func ParseStage(collection string) (Stage, bool) {
	switch Stage(collection) {
	case StageLost, StageFound, StageReturned:
		return Stage(collection), true
	}
	return "", false
}

func (s Stage) Collection() string {
	return string(s)
}

// Status is the value mirrored into the document's status field.
func (s Stage) Status() string {
	switch s {
	case StageLost:
		return "lost"
	case StageFound, StageReturned:
		return "found"
	}
	return ""
}

type Report struct {
	ID          string     `json:"id" firestore:"-"`
	Stage       Stage      `json:"collection" firestore:"-"`
	ItemName    string     `json:"itemName" firestore:"itemName"`
	Category    string     `json:"category" firestore:"category"`
	Description string     `json:"description" firestore:"description"`
	PhotoURL    string     `json:"photoUrl,omitempty" firestore:"photoUrl,omitempty"`
	Status      string     `json:"status,omitempty" firestore:"status,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty" firestore:"confirmedAt,omitempty"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty" firestore:"returnedAt,omitempty"`
	ConfirmedBy string     `json:"confirmedBy,omitempty" firestore:"confirmedBy,omitempty"`
}

// Clone returns a copy that shares no pointers with r.
func (r *Report) Clone() *Report {
	c := *r
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		c.ConfirmedAt = &t
	}
	if r.ReturnedAt != nil {
		t := *r.ReturnedAt
		c.ReturnedAt = &t
	}
	return &c
}
