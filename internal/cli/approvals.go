package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/chargedesk/internal/core/domain"
	redisclient "github.com/vietddude/chargedesk/internal/infra/redis"
	"github.com/vietddude/chargedesk/internal/infra/storage"
)

var statusFilter string

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Inspect and manage stored approval records",
}

var approvalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approval records",
	Run:   runApprovalsList,
}

var approvalsDeleteCmd = &cobra.Command{
	Use:   "delete [wallet_address]",
	Short: "Delete the approval record of a wallet",
	Args:  cobra.ExactArgs(1),
	Run:   runApprovalsDelete,
}

func init() {
	approvalsListCmd.Flags().StringVar(&statusFilter, "status", "", "only show records with this status (pending, success, failed)")
	approvalsCmd.AddCommand(approvalsListCmd, approvalsDeleteCmd)
	rootCmd.AddCommand(approvalsCmd)
}

func openApprovals() (*storage.ApprovalRepo, func()) {
	cfg := loadConfig()
	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return storage.NewApprovalRepo(client), func() { _ = client.Close() }
}

func runApprovalsList(cmd *cobra.Command, args []string) {
	var status domain.ApprovalStatus
	if statusFilter != "" {
		s, err := domain.ParseApprovalStatus(statusFilter)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		status = s
	}

	repo, closeFn := openApprovals()
	defer closeFn()

	list, err := repo.ListAll(context.Background())
	if err != nil {
		slog.Error("Failed to list approvals", "error", err)
		os.Exit(1)
	}

	records := list.Records
	if status != "" {
		records = domain.FilterByStatus(records, status)
	}
	printApprovals(os.Stdout, records)

	if len(list.Skipped) > 0 {
		fmt.Printf("\n%d record(s) could not be decoded: %v\n", len(list.Skipped), list.Skipped)
	}
}

func printApprovals(out io.Writer, records []*domain.ApprovalRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].WalletAddress < records[j].WalletAddress
	})

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ADDRESS\tAMOUNT\tSTATUS\tUPDATED\tTX")
	for _, r := range records {
		ts := time.UnixMilli(r.Timestamp).UTC().Format(time.RFC3339)
		tx := r.TransactionHash
		if tx == "" {
			tx = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.WalletAddress, r.ApprovalAmount, r.Status, ts, tx)
	}
	_ = w.Flush()
}

func runApprovalsDelete(cmd *cobra.Command, args []string) {
	repo, closeFn := openApprovals()
	defer closeFn()

	if err := repo.Delete(context.Background(), args[0]); err != nil {
		slog.Error("Failed to delete approval", "address", args[0], "error", err)
		closeFn()
		os.Exit(1)
	}
	fmt.Printf("Deleted approval record for %s\n", args[0])
}
