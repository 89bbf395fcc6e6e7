package cmd

import (
	"fmt"

	"github.com/theirongolddev/sessionlens/internal/cli"
	"github.com/theirongolddev/sessionlens/internal/pricing"

	"github.com/spf13/cobra"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Inspect the model pricing catalog",
}

var pricingLookupCmd = &cobra.Command{
	Use:   "lookup <model>...",
	Short: "Show how model names resolve and what they cost per million tokens",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPricingLookup,
}

var pricingSourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Show which catalog source is in effect",
	RunE:  runPricingSource,
}

func init() {
	pricingCmd.AddCommand(pricingLookupCmd, pricingSourceCmd)
	rootCmd.AddCommand(pricingCmd)
}

type lookupRow struct {
	Model string  `json:"model"`
	Key   string  `json:"key,omitempty"`
	Kind  string  `json:"match"`
	Input float64 `json:"input_per_mtok"`
	Out   float64 `json:"output_per_mtok"`
	Write float64 `json:"cache_write_per_mtok"`
	Read  float64 `json:"cache_read_per_mtok"`
	Tier  bool    `json:"tiered"`
}

func perMillion(rate float64) float64 { return rate * 1_000_000 }

func runPricingLookup(cmd *cobra.Command, args []string) error {
	resolver, err := loadResolver(cmd.Context())
	if err != nil {
		return err
	}

	out := make([]lookupRow, 0, len(args))
	for _, name := range args {
		m := resolver.Lookup(name)
		out = append(out, lookupRow{
			Model: name,
			Key:   m.Key,
			Kind:  string(m.Kind),
			Input: perMillion(m.Rate.Input),
			Out:   perMillion(m.Rate.Output),
			Write: perMillion(m.Rate.CacheWrite),
			Read:  perMillion(m.Rate.CacheRead),
			Tier:  m.Rate.InputAbove != nil || m.Rate.OutputAbove != nil,
		})
	}

	if flagJSON {
		return writeJSON(out)
	}

	rows := make([][]string, 0, len(out))
	for _, r := range out {
		key := r.Key
		if r.Kind == string(pricing.MatchNone) {
			key = "-"
		}
		tier := ""
		if r.Tier {
			tier = "yes"
		}
		rows = append(rows, []string{
			cli.Truncate(r.Model, 28),
			cli.Truncate(key, 36),
			r.Kind,
			fmt.Sprintf("$%.2f", r.Input),
			fmt.Sprintf("$%.2f", r.Out),
			fmt.Sprintf("$%.2f", r.Write),
			fmt.Sprintf("$%.2f", r.Read),
			tier,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PRICING  per million tokens  (" + resolver.Catalog().Source + ")"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Catalog key", "Match", "Input", "Output", "Write", "Read", ">200k"},
		Rows:    rows,
	}))
	return nil
}

func runPricingSource(cmd *cobra.Command, _ []string) error {
	resolver, err := loadResolver(cmd.Context())
	if err != nil {
		return err
	}
	cat := resolver.Catalog()

	if flagJSON {
		return writeJSON(map[string]any{
			"source":      cat.Source,
			"fingerprint": cat.Fingerprint,
			"models":      cat.Len(),
			"offline":     cfg.Pricing.Offline,
		})
	}

	fmt.Printf("  Source:      %s\n", cat.Source)
	fmt.Printf("  Models:      %s\n", cli.FormatNumber(int64(cat.Len())))
	fmt.Printf("  Fingerprint: %s\n", cat.Fingerprint)
	if cfg.Pricing.Offline {
		fmt.Println("  Remote:      skipped (offline)")
	} else {
		fmt.Printf("  Remote:      %s\n", cfg.Pricing.URL)
	}
	fmt.Printf("  Cache file:  %s\n", cfg.Pricing.CachePath)
	return nil
}
