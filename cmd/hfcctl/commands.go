package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/service"
)

type resetter interface {
	ResetSystem(ctx context.Context) (*service.ResetResult, error)
	Preview(ctx context.Context) ([]model.TableCount, error)
}

func printReport(w io.Writer, rows []model.ReportRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "EMAIL\tSELF\tDIRECT\tPASSIVE\tLEVEL\tMATCHING\tTOTAL\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Email,
			r.Self.StringFixed(2),
			r.Direct.StringFixed(2),
			r.Passive.StringFixed(2),
			r.Level.StringFixed(2),
			r.Matching.StringFixed(2),
			r.Total.StringFixed(2),
		)
	}
	return tw.Flush()
}

// resetSystem previews the wipe, asks for a typed confirmation unless skipConfirm
// is set, and then resets.
func resetSystem(ctx context.Context, svc resetter, in io.Reader, out io.Writer, dryRun, skipConfirm bool) error {
	counts, err := svc.Preview(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "WARNING: This will delete every participant, order and commission except the root identity:")
	fmt.Fprintln(out)
	for _, c := range counts {
		fmt.Fprintf(out, "  - %s: %d row(s)\n", c.Table, c.Rows)
	}

	if dryRun {
		fmt.Fprintln(out, "\n[DRY RUN] Would reset the above tables")
		return nil
	}

	if !skipConfirm {
		fmt.Fprintf(out, "\nThis is a DESTRUCTIVE operation that cannot be undone!\n")
		fmt.Fprintf(out, "Type 'yes' to confirm: ")

		response, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Fprintf(out, "\nConfirmation failed. Operation cancelled.\n")
			return nil
		}
		fmt.Fprintln(out)
	}

	res, err := svc.ResetSystem(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Message)
	return nil
}
