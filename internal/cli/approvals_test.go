package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vietddude/chargedesk/internal/core/domain"
)

func TestPrintApprovals(t *testing.T) {
	records := []*domain.ApprovalRecord{
		{WalletAddress: "0xBBB", ApprovalAmount: "5", Timestamp: 0, Status: domain.ApprovalStatusPending},
		{WalletAddress: "0xAAA", ApprovalAmount: "1000", Timestamp: 1700000000000, TransactionHash: "0xHASH1", Status: domain.ApprovalStatusSuccess},
	}

	var buf bytes.Buffer
	printApprovals(&buf, records)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "0xAAA") {
		t.Errorf("expected rows sorted by address, got %q", lines[1])
	}
	if !strings.Contains(lines[1], "2023-11-14T22:13:20Z") {
		t.Errorf("expected RFC3339 timestamp, got %q", lines[1])
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[2]), "-") {
		t.Errorf("expected placeholder for missing hash, got %q", lines[2])
	}
}
