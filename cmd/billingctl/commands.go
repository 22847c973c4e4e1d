package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gestaonuvem/entitlements/pkg/access"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/proration"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

const dateFormat = "02/01/2006"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rec, err := current.svc.Load(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, rec)
		}

		now := time.Now()
		p := current.catalog.Plan(rec.EffectivePlan(now))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Tenant:\t%s\n", rec.TenantID)
		fmt.Fprintf(w, "Plan:\t%s (%s)\n", p.Name, rec.PlanID)
		fmt.Fprintf(w, "Status:\t%s\n", rec.Status)
		fmt.Fprintf(w, "Cycle:\t%s, %s\n", rec.BillingCycle, plan.FormatBRL(current.catalog.PriceFor(rec.PlanID, rec.BillingCycle)))
		if rec.IsTrialing() {
			fmt.Fprintf(w, "Trial:\t%d days left\n", rec.TrialDaysRemainingAt(now))
		}
		if !rec.CurrentPeriodEnd.IsZero() {
			fmt.Fprintf(w, "Period:\t%s to %s\n", rec.CurrentPeriodStart.Format(dateFormat), rec.CurrentPeriodEnd.Format(dateFormat))
		}
		if sc := rec.ScheduledChange; sc != nil {
			fmt.Fprintf(w, "Scheduled:\t%s/%s from %s\n", sc.PlanID, sc.BillingCycle, sc.EffectiveAt.Format(dateFormat))
		}
		if v := current.svc.CheckAccess(access.ViewSubscription); v.State != access.StateAllowed {
			fmt.Fprintf(w, "Access:\t%s\n", v.State)
		}
		return w.Flush()
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show usage against the plan limits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := current.svc.Load(cmd.Context()); err != nil {
			return err
		}
		overview := current.svc.UsageOverview()
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, overview)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RESOURCE\tUSED\tLIMIT\t%")
		resources := append(append([]plan.Resource{}, plan.CountableResources...), plan.ResourceStorageMB)
		for _, res := range resources {
			stat, ok := overview[res]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Label(), formatUsed(res, stat), formatLimit(stat), formatPct(stat))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		for _, msg := range current.svc.UsageWarnings() {
			fmt.Fprintln(out, "warning:", msg)
		}
		return nil
	},
}

func formatUsed(res plan.Resource, s subscription.UsageStat) string {
	if res == plan.ResourceStorageMB {
		return fmt.Sprintf("%.1f", s.Current)
	}
	return fmt.Sprintf("%d", int64(s.Current))
}

func formatLimit(s subscription.UsageStat) string {
	if s.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", s.Max)
}

func formatPct(s subscription.UsageStat) string {
	if s.Unlimited {
		return "-"
	}
	pct := fmt.Sprintf("%.0f", s.Percentage)
	if s.NearLimit {
		pct += " !"
	}
	return pct
}

var accessCmd = &cobra.Command{
	Use:   "access <view>",
	Short: "Check whether a view or module is reachable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := current.svc.Load(cmd.Context()); err != nil {
			return err
		}
		view := access.View(args[0]).Normalize()
		verdict := current.svc.CheckAccess(view)
		module := current.svc.CheckModuleAccess(view)

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, struct {
				Access access.Verdict      `json:"access"`
				Module access.ModuleAccess `json:"module"`
			}{verdict, module})
		}

		if !verdict.Allowed {
			fmt.Fprintf(out, "%s: blocked (%s)\n%s\n", view, verdict.State, verdict.Reason)
			if verdict.CallToAction != "" {
				fmt.Fprintf(out, "%s -> %s\n", verdict.CallToAction, verdict.CTAView)
			}
			return verdict.Err()
		}
		if !module.Allowed {
			fmt.Fprintf(out, "%s: locked\n%s\n", view, module.Reason)
			if module.RequiresUpgrade {
				fmt.Fprintf(out, "upgrade to %s\n", current.catalog.Plan(module.RequiredPlan).Name)
			}
			return module.Err()
		}
		fmt.Fprintf(out, "%s: allowed\n", view)
		return nil
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote <tier> <cycle>",
	Short: "Preview the prorated price of a plan change",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := current.svc.Load(cmd.Context()); err != nil {
			return err
		}
		target := proration.Target{Plan: plan.Tier(strings.ToLower(args[0])), Cycle: plan.Cycle(strings.ToLower(args[1]))}
		q, err := current.svc.QuotePlanChange(target)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), q)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(w, "%s (%s)\t%s\t\n", current.catalog.Plan(q.To.Plan).Name, q.To.Cycle, plan.FormatBRL(q.NewPrice))
		fmt.Fprintf(w, "credit for %d unused days\t-%s\t\n", q.DaysRemaining, plan.FormatBRL(q.UnusedCredit))
		fmt.Fprintf(w, "due now\t%s\t\n", plan.FormatBRL(q.AmountDue))
		fmt.Fprintf(w, "new period\t%s to %s\t\n", q.NewPeriodStart.Format(dateFormat), q.NewPeriodEnd.Format(dateFormat))
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Estimate only. The payment provider computes the final charge.")
		return nil
	},
}

var downgradeCmd = &cobra.Command{
	Use:   "downgrade <tier> <cycle>",
	Short: "Schedule a downgrade for the end of the current period",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := current.svc.Load(cmd.Context()); err != nil {
			return err
		}
		d, err := current.svc.RequestDowngrade(cmd.Context(), plan.Tier(strings.ToLower(args[0])), plan.Cycle(strings.ToLower(args[1])))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, d)
		}

		fmt.Fprintf(out, "Downgrade from %s to %s scheduled for %s.\n", d.From, d.To, d.EffectiveAt.Format(dateFormat))
		for _, o := range d.Overages {
			fmt.Fprintf(out, "  over the new limit: %s %d of %d\n", o.Resource.Label(), int64(o.Current), o.Max)
		}
		for _, f := range d.LostFeatures {
			fmt.Fprintf(out, "  feature lost: %s\n", f.Label())
		}
		return nil
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
