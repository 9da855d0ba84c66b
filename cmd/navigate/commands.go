package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ehr-navigator-be/internal/bootstrap"
	"ehr-navigator-be/internal/config"
	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/pkg/events"
	pktNats "ehr-navigator-be/pkg/nats"
	"ehr-navigator-be/pkg/navigator"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	patientID  string
	question   string
	streamMode bool
	jsonOutput bool
	durable    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "navigate",
		Short: "Answer a clinical question from a patient's FHIR record",
		Long: `Runs the navigator in-process against the configured FHIR server and
model endpoint (see .env / environment).

Examples:
  navigate --patient p-42 --question "What is the latest glucose?"
  navigate -p p-42 -q "Any drug interactions?" --stream
  navigate audit                 # tail navigation audit events from NATS`,
		SilenceUsage: true,
		RunE:         runNavigate,
	}
	root.Flags().StringVarP(&patientID, "patient", "p", "", "FHIR Patient id")
	root.Flags().StringVarP(&question, "question", "q", "", "clinical question")
	root.Flags().BoolVarP(&streamMode, "stream", "s", false, "print progress as each stage finishes")
	root.Flags().BoolVar(&jsonOutput, "json", false, "print NDJSON instead of formatted text")
	_ = root.MarkFlagRequired("patient")
	_ = root.MarkFlagRequired("question")

	audit := &cobra.Command{
		Use:   "audit",
		Short: "Tail navigation.completed audit events from NATS",
		RunE:  runAudit,
	}
	audit.Flags().StringVar(&durable, "durable", "", "durable consumer name (default: ephemeral, new events only)")
	root.AddCommand(audit)

	return root
}

func runNavigate(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	nav, cleanup, err := bootstrap.NewNavigator(cfg, logger.NewIsolatedLogger(cfg.App.LogFilePath), nil)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if jsonOutput {
		if streamMode {
			return navigator.WriteNDJSON(out, nav.Stream(ctx, question, patientID), nil)
		}
		return json.NewEncoder(out).Encode(nav.Run(ctx, question, patientID))
	}

	if !streamMode {
		printResult(out, nav.Run(ctx, question, patientID))
		return nil
	}
	for ev := range nav.Stream(ctx, question, patientID) {
		printEvent(out, ev)
	}
	return nil
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		return fmt.Errorf("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	color.New(color.FgCyan).Fprintf(out, "Listening for %s on %s\n", events.TypeNavigationCompleted, cfg.App.NatsURL)
	return sub.Subscribe(ctx, events.TypeNavigationCompleted, durable, func(_ context.Context, evt events.Event) error {
		printAudit(out, evt)
		return nil
	})
}

var (
	stepColor  = color.New(color.FgCyan, color.Bold)
	labelColor = color.New(color.FgYellow)
	faintColor = color.New(color.Faint)
	okColor    = color.New(color.FgGreen, color.Bold)
)

func printEvent(w io.Writer, ev navigator.Event) {
	if ev.IsFinal() {
		if ev.Data != nil {
			printResult(w, *ev.Data)
		}
		return
	}
	stepColor.Fprintf(w, "[%s] ", ev.Step)
	labelColor.Fprintln(w, ev.Label)
	for _, line := range strings.Split(ev.Reasoning, "\n") {
		faintColor.Fprintf(w, "    %s\n", line)
	}
}

func printResult(w io.Writer, r navigator.Result) {
	okColor.Fprintln(w, "\nAnswer")
	fmt.Fprintln(w, r.Answer)
	faintColor.Fprintf(w, "\nresources: %s | facts: %d | %d ms\n",
		consulted(r.ResourcesConsulted), r.FactsExtracted, r.ProcessingTimeMs)
}

func printAudit(w io.Writer, evt events.Event) {
	p := evt.Payload()
	stepColor.Fprintf(w, "%s ", evt.Timestamp().Format("15:04:05"))
	fmt.Fprintf(w, "run=%v patient=%v mode=%v outcome=%v facts=%d time=%dms\n",
		p["run_id"], p["patient_id"], p["mode"], p["outcome"],
		events.Int(evt, "facts_extracted"), events.Int(evt, "processing_time_ms"))
}

func consulted(labels []string) string {
	if len(labels) == 0 {
		return "none"
	}
	return strings.Join(labels, ", ")
}
