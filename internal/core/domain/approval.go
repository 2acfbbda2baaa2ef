package domain

import (
	"fmt"
	"time"
)

// ApprovalRecord is the stored state of one wallet's spending approval.
type ApprovalRecord struct {
	WalletAddress   string         `json:"walletAddress"`
	ApprovalAmount  string         `json:"approvalAmount"`
	Timestamp       int64          `json:"timestamp"`
	TransactionHash string         `json:"transactionHash,omitempty"`
	Status          ApprovalStatus `json:"status"`
}

type ApprovalStatus string

const (
	ApprovalStatusPending ApprovalStatus = "pending"
	ApprovalStatusSuccess ApprovalStatus = "success"
	ApprovalStatusFailed  ApprovalStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusSuccess, ApprovalStatusFailed:
		return true
	}
	return false
}

// ParseApprovalStatus converts raw input into an ApprovalStatus.
func ParseApprovalStatus(raw string) (ApprovalStatus, error) {
	s := ApprovalStatus(raw)
	if !s.Valid() {
		return "", Validationf("invalid status %q", raw)
	}
	return s, nil
}

// NowMillis returns the current time in epoch milliseconds, the unit of
// ApprovalRecord.Timestamp.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// FilterByStatus returns the records whose status equals s.
func FilterByStatus(records []*ApprovalRecord, s ApprovalStatus) []*ApprovalRecord {
	out := make([]*ApprovalRecord, 0, len(records))
	for _, r := range records {
		if r.Status == s {
			out = append(out, r)
		}
	}
	return out
}

func (r *ApprovalRecord) String() string {
	return fmt.Sprintf("%s[%s]", r.WalletAddress, r.Status)
}
