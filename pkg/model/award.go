package model

import "time"

type AwardStatus string

const (
	AwardStatusPending  AwardStatus = "pending"
	AwardStatusApproved AwardStatus = "approved"
	AwardStatusRejected AwardStatus = "rejected"
)

type Award struct {
	Id          int64
	Title       string
	Applicant   string
	Status      AwardStatus
	Level       string
	Documents   int
	SubmittedAt time.Time
	DecidedAt   time.Time
}

func (a *Award) Decided() bool {
	return a.Status != AwardStatusPending
}
