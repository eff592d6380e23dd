package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/handover-core/internal/config"
	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/services"
	"github.com/custodia-labs/handover-core/internal/extractors"
	"github.com/custodia-labs/handover-core/internal/logger"
	"github.com/custodia-labs/handover-core/internal/normalisers"
	"github.com/custodia-labs/handover-core/internal/ranking"
)

// Output formats of the aggregate command
const (
	outputAuto = "auto"
	outputText = "text"
	outputJSON = "json"
)

type aggregateOptions struct {
	query     string
	documents string
	emails    string
	entities  string
	limit     int
	output    string
}

func newAggregateCmd(opts *rootOptions) *cobra.Command {
	ao := &aggregateOptions{}

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Run the aggregation pipeline over recorded search results",
		Long: "aggregate normalises, tiers and drafts a handover from JSON or YAML fixture\n" +
			"files, without contacting any search service.",
		Example: "  handover-core aggregate --query \"port engine E047\" --documents docs.json --emails mail.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAggregate(cmd, opts, ao)
		},
	}

	cmd.Flags().StringVarP(&ao.query, "query", "q", "", "query the results were retrieved for (required)")
	cmd.Flags().StringVar(&ao.documents, "documents", "", "document search results file")
	cmd.Flags().StringVar(&ao.emails, "emails", "", "email search results file")
	cmd.Flags().StringVar(&ao.entities, "entities", "", "entity extraction results file")
	cmd.Flags().IntVar(&ao.limit, "limit", domain.DefaultSearchLimit, "hits taken from each source")
	cmd.Flags().StringVarP(&ao.output, "output", "o", outputAuto, "output format: auto, text or json")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func runAggregate(cmd *cobra.Command, opts *rootOptions, ao *aggregateOptions) error {
	if ao.documents == "" && ao.emails == "" {
		return errors.New("at least one of --documents and --emails is required")
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	// Pipeline warnings go to stderr so stdout stays parseable
	log, err := logger.NewWithOutput("warn", config.FormatConsole, "stderr")
	if err != nil {
		return err
	}

	fixtures := &fixtureSources{}
	req := domain.AggregateRequest{Query: ao.query, Limit: ao.limit, UserID: "cli", YachtID: "cli"}

	if ao.documents != "" {
		if fixtures.documents, err = loadDocuments(ao.documents); err != nil {
			return fmt.Errorf("documents: %w", err)
		}
		req.Sources = append(req.Sources, domain.SourceDocument)
	}
	if ao.emails != "" {
		if fixtures.emails, err = loadEmails(ao.emails); err != nil {
			return fmt.Errorf("emails: %w", err)
		}
		req.Sources = append(req.Sources, domain.SourceEmail)
	}
	if ao.entities != "" {
		if fixtures.entities, err = loadEntities(ao.entities); err != nil {
			return fmt.Errorf("entities: %w", err)
		}
	}

	svc := services.NewAggregationService(services.AggregationDeps{
		Documents:   fixtures,
		Emails:      fixtures,
		Entities:    fixtures,
		Normalisers: normalisers.DefaultRegistry(cfg.Scoring, cfg.Links, log),
		Cascader:    ranking.NewCascader(ranking.Config{NoiseFloor: cfg.Scoring.NoiseFloor}),
		Extractor:   extractors.DefaultChain(),
		Logger:      log,
	})

	resp, err := svc.Aggregate(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch resolveOutput(ao.output, out) {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case outputText:
		renderText(out, ao.query, resp)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", ao.output)
	}
}

// resolveOutput picks text for terminals and JSON for pipes when auto
func resolveOutput(format string, out io.Writer) string {
	if format != outputAuto {
		return format
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return outputText
	}
	return outputJSON
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func renderText(w io.Writer, query string, resp *domain.AggregateResponse) {
	s := resp.Summary
	fmt.Fprintf(w, "%s\n", headerStyle.Render(fmt.Sprintf("%q", query)))
	fmt.Fprintf(w, "found %d, shown %d, hidden %d, confidence %.2f\n", s.Found, s.Shown, s.Hidden, s.QueryConfidence)
	if len(resp.DegradedSources) > 0 {
		fmt.Fprintf(w, "degraded sources: %s\n", strings.Join(resp.DegradedSources, ", "))
	}

	bands := []struct {
		name    string
		results []domain.Result
	}{
		{"PRIMARY", resp.Primary},
		{"SECONDARY", resp.Secondary},
		{"TERTIARY", resp.Tertiary},
	}
	for _, band := range bands {
		if len(band.results) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", headerStyle.Render(band.name))
		for _, r := range band.results {
			fmt.Fprintf(w, "  %-9s %.2f  %-8s %s\n", ranking.DisplayFor(r.Confidence), r.Confidence, r.SourceKind, r.DisplayName)
			if r.Links.Primary != "" {
				fmt.Fprintf(w, "            %s\n", dimStyle.Render(r.Links.Primary))
			}
		}
	}
	if resp.Hidden.Count > 0 {
		fmt.Fprintf(w, "\n%s\n", dimStyle.Render(fmt.Sprintf("+%d more", resp.Hidden.Count)))
	}

	d := resp.HandoverDraft
	meta := resp.HandoverMetadata
	fmt.Fprintf(w, "\n%s\n", headerStyle.Render(fmt.Sprintf("HANDOVER DRAFT  %d/%d auto-filled, confidence %.2f",
		meta.AutoFilledCount, meta.TotalFields, meta.Confidence)))
	fields := []struct{ label, value string }{
		{"system", d.System},
		{"fault code", d.FaultCode},
		{"symptoms", d.Symptoms},
		{"actions", d.ActionsTaken},
		{"linked", d.LinkedDocument},
	}
	for _, f := range fields {
		value := f.value
		if value == "" {
			value = dimStyle.Render("-")
		}
		fmt.Fprintf(w, "  %-11s %s\n", f.label, value)
	}
}
