package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"shipsync/internal/app"
	"shipsync/internal/database"
	"shipsync/internal/reports"
	"shipsync/internal/services/shopify"
	"shipsync/internal/shipping"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [payload.json]",
		Short: "Classify the variants of a products/update payload without calling the shop",
		Long: `Reads a products/update webhook body from a file, or from stdin when the
argument is omitted or "-", and prints the category of every variant.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runClassify(in, cmd.OutOrStdout())
		},
	}
}

func runClassify(in io.Reader, out io.Writer) error {
	var payload shopify.WebhookPayload
	if err := json.NewDecoder(in).Decode(&payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	counts := map[shipping.Category]int{}
	for _, v := range payload.Variants {
		category := shipping.Classify(v)
		counts[category]++
		fmt.Fprintf(out, "%s\t%s\tprice=%s compare_at=%s\n",
			shipping.VariantGID(v), category, v.Price, v.CompareAtPrice)
	}
	fmt.Fprintf(out, "handle=%s discounted=%d standard=%d\n",
		payload.Handle, counts[shipping.Discounted], counts[shipping.Standard])
	return nil
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [productId]",
		Short: "Fetch a product and move its variants into the matching shipping profiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if dissociate, _ := cmd.Flags().GetBool("dissociate"); dissociate {
				cfg.ExplicitDissociate = true
			}

			syncer := app.NewSyncer(cfg, app.NewShopClient(cfg, log), log)

			out, err := syncer.SyncProduct(cmd.Context(), &shopify.WebhookPayload{ID: shopify.FlexString(args[0])})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case out.NoVariants:
				fmt.Fprintln(w, "product has no variants")
				return nil
			case out.Excluded:
				fmt.Fprintf(w, "%s excluded by handle\n", out.Handle)
				return nil
			}
			fmt.Fprintf(w, "%s: rebajas=%d general=%d calls=%d\n", out.Handle, out.RebajasCount, out.GeneralCount, out.Result.Calls())
			for _, f := range out.Result.Failures() {
				fmt.Fprintf(w, "  FAILED profile=%s batch=%d %s: %s\n", f.ProfileID, f.Index, f.Direction, f.Error)
			}
			return out.Result.Err()
		},
	}

	cmd.Flags().Bool("dissociate", false, "Also remove variants from the profile of the other category")

	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Daily order report",
	}
	cmd.AddCommand(reportRunCmd())
	return cmd
}

func reportRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and mail the order report for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, _ := cmd.Flags().GetString("day")
			force, _ := cmd.Flags().GetBool("force")

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			scheduler, err := app.NewScheduler(cfg, app.NewShopClient(cfg, log), db, log)
			if err != nil {
				return err
			}

			run, err := scheduler.Run(cmd.Context(), reports.Request{Day: day, Force: force, Trigger: "cli"})
			if errors.Is(err, reports.ErrAlreadyDone) {
				fmt.Fprintln(cmd.OutOrStdout(), "report already sent; use --force to send it again")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report %s sent: %d orders to %d recipients (run %s)\n",
				run.PeriodKey, run.Rows, len(run.Recipients), run.ID)
			return nil
		},
	}

	cmd.Flags().String("day", "", "Day to report, YYYY-MM-DD in the report timezone (default yesterday)")
	cmd.Flags().Bool("force", false, "Send even if the day was already reported")

	return cmd
}
