package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gestaonuvem/entitlements/pkg/payment"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/qrcode"
)

var (
	payPlan     string
	payCycle    string
	payerName   string
	payerEmail  string
	payerTaxID  string
	frontendURL string
	noWait      bool
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Pay for a plan by card, PIX or boleto",
}

var payCardCmd = &cobra.Command{
	Use:   "card",
	Short: "Upgrade in place or open a hosted card checkout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := current.svc.Load(cmd.Context()); err != nil {
			return err
		}
		out, err := current.svc.PayByCard(cmd.Context(), payment.CheckoutRequest{
			PlanID:      plan.Tier(strings.ToLower(payPlan)),
			Cycle:       plan.Cycle(strings.ToLower(payCycle)),
			FrontendURL: frontendURL,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), out)
		}
		if out.RequiresRedirect() {
			fmt.Fprintf(cmd.OutOrStdout(), "Complete the payment at:\n%s\n", out.CheckoutURL)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Message)
		return nil
	},
}

var payPixCmd = &cobra.Command{
	Use:   "pix",
	Short: "Issue a PIX charge and wait for confirmation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAsync(cmd, payment.ChannelPix)
	},
}

var payBoletoCmd = &cobra.Command{
	Use:   "boleto",
	Short: "Issue a boleto and wait for clearing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAsync(cmd, payment.ChannelBoleto)
	},
}

func init() {
	payCmd.PersistentFlags().StringVar(&payPlan, "plan", string(plan.TierIntermediario), "target tier")
	payCmd.PersistentFlags().StringVar(&payCycle, "cycle", string(plan.CycleMonthly), "billing cycle")
	payCardCmd.Flags().StringVar(&frontendURL, "frontend-url", "", "URL the hosted checkout returns to (defaults to PAYMENT_FRONTEND_URL)")
	payBoletoCmd.Flags().StringVar(&payerName, "name", "", "payer name")
	payBoletoCmd.Flags().StringVar(&payerEmail, "email", "", "payer email")
	payBoletoCmd.Flags().StringVar(&payerTaxID, "tax-id", "", "payer CPF or CNPJ")
	payPixCmd.Flags().BoolVar(&noWait, "no-wait", false, "print the charge and exit without waiting")
	payBoletoCmd.Flags().BoolVar(&noWait, "no-wait", false, "print the boleto and exit without waiting")

	payCmd.AddCommand(payCardCmd, payPixCmd, payBoletoCmd)
}

// terminalObserver renders the countdown on a single line and reports the outcome.
type terminalObserver struct {
	cmd  *cobra.Command
	done chan error
}

func (o terminalObserver) OnTick(c payment.Countdown) {
	fmt.Fprintf(o.cmd.ErrOrStderr(), "\rtime left: %s ", c)
}

func (o terminalObserver) OnConfirmed(i payment.Intent, err error) {
	fmt.Fprintf(o.cmd.OutOrStdout(), "\npayment %s confirmed: %s\n", i.ID, plan.FormatBRL(i.Amount))
	o.done <- err
}

func (o terminalObserver) OnExpired(i payment.Intent) {
	fmt.Fprintf(o.cmd.OutOrStdout(), "\npayment %s expired; issue a new charge\n", i.ID)
	o.done <- payment.ErrPaymentWindowExpired
}

func (o terminalObserver) OnFailed(i payment.Intent, s payment.IntentStatus) {
	fmt.Fprintf(o.cmd.OutOrStdout(), "\npayment %s %s\n", i.ID, s)
	o.done <- fmt.Errorf("payment %s", s)
}

func (o terminalObserver) OnError(err error) {
	fmt.Fprintf(o.cmd.ErrOrStderr(), "\nstatus check failed, retrying: %v\n", err)
}

func runAsync(cmd *cobra.Command, ch payment.Channel) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := current.svc.Load(ctx); err != nil {
		return err
	}

	req := payment.IntentRequest{
		PlanID: plan.Tier(strings.ToLower(payPlan)),
		Cycle:  plan.Cycle(strings.ToLower(payCycle)),
	}
	obs := terminalObserver{cmd: cmd, done: make(chan error, 1)}

	var (
		w   *payment.Watch
		err error
	)
	switch ch {
	case payment.ChannelPix:
		w, err = current.svc.StartPix(ctx, req, obs)
	default:
		w, err = current.svc.StartBoleto(ctx, req, payment.BillingDetails{
			Name:  payerName,
			Email: payerEmail,
			TaxID: payerTaxID,
		}, obs)
	}
	if err != nil {
		return err
	}

	intent := w.Intent()
	if jsonOutput {
		if err := printJSON(cmd.OutOrStdout(), intent); err != nil {
			return err
		}
	} else {
		printIntent(cmd, intent)
	}
	if noWait {
		current.svc.ClosePayment(ch)
		return nil
	}

	select {
	case err := <-obs.done:
		return err
	case <-w.Done():
		// Closed without a terminal callback, e.g. by sign-out.
		return nil
	case <-ctx.Done():
		current.svc.ClosePayment(ch)
		fmt.Fprintln(cmd.OutOrStdout(), "\nstopped watching; the charge stays payable until it expires")
		return nil
	}
}

func printIntent(cmd *cobra.Command, i payment.Intent) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s charge %s: %s, valid until %s\n",
		strings.ToUpper(string(i.Channel)), i.ID, plan.FormatBRL(i.Amount), i.ExpiresAt.Local().Format("02/01/2006 15:04"))

	switch i.Channel {
	case payment.ChannelPix:
		if art, err := qrcode.Terminal(i.QRCode); err == nil {
			fmt.Fprintln(out, art)
		}
		fmt.Fprintf(out, "PIX copia e cola:\n%s\n", i.QRCode)
	case payment.ChannelBoleto:
		fmt.Fprintf(out, "Linha digitável: %s\n", i.Barcode)
		if i.BoletoURL != "" {
			fmt.Fprintf(out, "PDF: %s\n", i.BoletoURL)
		}
		fmt.Fprintln(out, "Boletos take up to 3 business days to clear.")
	}
}

var _ payment.Observer = terminalObserver{}
