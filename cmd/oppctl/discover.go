package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justQrius/ai-opportunity-browser/internal/config"
	"github.com/justQrius/ai-opportunity-browser/internal/models"
	"github.com/justQrius/ai-opportunity-browser/internal/services"
)

type discoverOptions struct {
	file                string
	configFile          string
	similarityThreshold float64
	minSignals          int
	confidenceThreshold float64
	maxOpportunities    int
	output              string
}

type discoverOutput struct {
	Config     config.EngineConfig           `json:"config"`
	Clusters   []models.SignalCluster        `json:"clusters"`
	Candidates []models.OpportunityCandidate `json:"candidates"`
	Rejected   []services.RejectedSignal     `json:"rejected"`
}

func newDiscoverCmd() *cobra.Command {
	opts := &discoverOptions{}
	defaults := config.DefaultEngineConfig()

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Cluster a JSON file of market signals and print opportunity candidates",
		Long: `Reads market signals from a JSON file (an array, or an object with a "signals" array),
normalizes them the way the ingestion API does and runs the discovery engine offline.
Nothing is persisted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "path to the signals JSON file (- for stdin)")
	flags.StringVar(&opts.configFile, "config", "", "optional config.yaml whose engine section is used as the base")
	flags.Float64Var(&opts.similarityThreshold, "similarity-threshold", defaults.SimilarityThreshold, "minimum similarity for a signal to join a cluster")
	flags.IntVar(&opts.minSignals, "min-signals", defaults.MinSignalsForOpportunity, "minimum signals per cluster to produce a candidate")
	flags.Float64Var(&opts.confidenceThreshold, "confidence-threshold", defaults.ConfidenceThreshold, "minimum candidate confidence")
	flags.IntVar(&opts.maxOpportunities, "max-opportunities", defaults.MaxOpportunitiesPerBatch, "maximum candidates to print (0 for no limit)")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runDiscover(cmd *cobra.Command, opts *discoverOptions) error {
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	engineConfig, err := resolveEngineConfig(cmd, opts)
	if err != nil {
		return err
	}

	engine, err := services.NewOpportunityEngine(engineConfig)
	if err != nil {
		return err
	}

	raws, err := readSignals(cmd.InOrStdin(), opts.file)
	if err != nil {
		return err
	}

	signals, rejected := services.NewSignalIngestor().NormalizeBatch(raws)
	batch := engine.Discover(signals)

	out := discoverOutput{
		Config:     engineConfig,
		Clusters:   batch.Clusters,
		Candidates: batch.Candidates,
		Rejected:   rejected,
	}

	if opts.output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}
	writeText(cmd.OutOrStdout(), out)
	return nil
}

// resolveEngineConfig starts from the config file (or defaults) and applies explicitly set flags
func resolveEngineConfig(cmd *cobra.Command, opts *discoverOptions) (config.EngineConfig, error) {
	engineConfig := config.DefaultEngineConfig()
	if opts.configFile != "" {
		cfg, err := config.LoadFrom(opts.configFile)
		if err != nil {
			return config.EngineConfig{}, err
		}
		engineConfig = cfg.Engine
	}

	flags := cmd.Flags()
	if opts.configFile == "" || flags.Changed("similarity-threshold") {
		engineConfig.SimilarityThreshold = opts.similarityThreshold
	}
	if opts.configFile == "" || flags.Changed("min-signals") {
		engineConfig.MinSignalsForOpportunity = opts.minSignals
	}
	if opts.configFile == "" || flags.Changed("confidence-threshold") {
		engineConfig.ConfidenceThreshold = opts.confidenceThreshold
	}
	if opts.configFile == "" || flags.Changed("max-opportunities") {
		engineConfig.MaxOpportunitiesPerBatch = opts.maxOpportunities
	}
	return engineConfig, nil
}

func readSignals(stdin io.Reader, path string) ([]models.MarketSignal, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read signals: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var signals []models.MarketSignal
		if err := json.Unmarshal(trimmed, &signals); err != nil {
			return nil, fmt.Errorf("failed to decode signals: %w", err)
		}
		return signals, nil
	}

	var wrapped struct {
		Signals []models.MarketSignal `json:"signals"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode signals: %w", err)
	}
	return wrapped.Signals, nil
}

func writeText(w io.Writer, out discoverOutput) {
	eligible := 0
	for _, c := range out.Clusters {
		if c.SignalCount >= out.Config.MinSignalsForOpportunity {
			eligible++
		}
	}
	fmt.Fprintf(w, "Clusters: %d (%d with at least %d signals)\n", len(out.Clusters), eligible, out.Config.MinSignalsForOpportunity)
	if len(out.Rejected) > 0 {
		fmt.Fprintf(w, "Rejected signals: %d\n", len(out.Rejected))
		for _, r := range out.Rejected {
			fmt.Fprintf(w, "  #%d %s\n", r.Index, r.Reason)
		}
	}
	fmt.Fprintf(w, "Candidates: %d\n", len(out.Candidates))

	for i, c := range out.Candidates {
		aiTypes := make([]string, 0, len(c.AISolutionTypes))
		for _, t := range c.AISolutionTypes {
			aiTypes = append(aiTypes, string(t))
		}
		fmt.Fprintf(w, "\n%d. %s\n", i+1, c.Title)
		fmt.Fprintf(w, "   confidence %.2f  validation %.1f  feasibility %.1f  score %.1f\n",
			c.ConfidenceScore, c.MarketValidationScore, c.AIFeasibilityScore, services.CompositeScore(c))
		fmt.Fprintf(w, "   ai: %s\n", strings.Join(aiTypes, ", "))
		fmt.Fprintf(w, "   industries: %s\n", strings.Join(c.IndustriesOrGeneral(), ", "))
		fmt.Fprintf(w, "   signals: %s\n", strings.Join(c.MarketSignals, ", "))
	}
}
