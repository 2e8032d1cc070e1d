package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/whichbid/whichbid/internal/logger"
	"github.com/whichbid/whichbid/internal/quotes"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <files...>",
	Short: "Analyze and compare vendor quote PDFs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAnalyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("priorities", "p", "", "comma-separated priorities in order of importance (e.g. 'price,timeline,warranty')")
	analyzeCmd.Flags().StringP("must-include", "m", "", "comma-separated items that must be included (e.g. 'permits,insurance')")
	analyzeCmd.Flags().Float64P("budget", "b", 0, "maximum acceptable total")
	analyzeCmd.Flags().StringP("notes", "n", "", "free-text context for the analysis")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "interactively prompt for comparison criteria")
	analyzeCmd.Flags().StringP("output", "o", "table", "output format: table or json")
	analyzeCmd.Flags().IntP("workers", "w", 0, "bound for concurrent document processing")

	viper.BindPFlag("workers", analyzeCmd.Flags().Lookup("workers"))
}

func runAnalyze(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	docs, err := readDocuments(args)
	if err != nil {
		zlog.Fatal("reading quote files", zap.Error(err))
	}

	criteria, err := resolveCriteria(cmd)
	if err != nil {
		zlog.Fatal("collecting comparison criteria", zap.Error(err))
	}

	pipe, err := newPipeline(ctx, config, zlog, viper.GetInt("workers"))
	if err != nil {
		zlog.Fatal("building the pipeline",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or the 'gemini.api-key-file' key in the configuration file"),
		)
	}

	zlog.Info("analyzing quotes", zap.Int("files", len(docs)))

	analysis, err := pipe.Run(ctx, docs, criteria)
	if err != nil {
		zlog.Fatal("pipeline run failed", zap.Error(err))
	}

	if cmd.Flag("output").Value.String() == "json" {
		pretty, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			zlog.Fatal("encoding analysis", zap.Error(err))
		}
		fmt.Println(string(pretty))
		return
	}

	renderAnalysis(os.Stdout, analysis)
}

func resolveCriteria(cmd *cobra.Command) (*quotes.ComparisonCriteria, error) {
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return promptForCriteria()
	}

	priorities, _ := cmd.Flags().GetString("priorities")
	mustInclude, _ := cmd.Flags().GetString("must-include")
	notes, _ := cmd.Flags().GetString("notes")
	budget, _ := cmd.Flags().GetFloat64("budget")

	return criteriaFromFlags(priorities, mustInclude, notes, budget), nil
}

func readDocuments(paths []string) ([][]byte, error) {
	docs := make([][]byte, 0, len(paths))
	for _, path := range paths {
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil, fmt.Errorf("file %q is not a PDF", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, data)
	}
	return docs, nil
}

func renderAnalysis(w io.Writer, analysis *quotes.Analysis) {
	ranking := tablewriter.NewWriter(w)
	ranking.SetHeader([]string{"Rank", "Vendor", "Base Price", "True Total", "Score", "Pros", "Cons"})
	for i, rq := range analysis.Ranking {
		ranking.Append([]string{
			fmt.Sprintf("%d", i+1),
			rq.Vendor,
			fmt.Sprintf("$%.2f", rq.BasePrice),
			fmt.Sprintf("$%.2f", rq.TrueTotal),
			fmt.Sprintf("%.0f", rq.Score),
			joinTop(rq.Pros, "+ "),
			joinTop(rq.Cons, "- "),
		})
	}
	fmt.Fprintln(w, "Quote Rankings")
	ranking.Render()
	fmt.Fprintln(w)

	if len(analysis.HiddenCosts) > 0 {
		hidden := tablewriter.NewWriter(w)
		hidden.SetHeader([]string{"Vendor", "Item", "Est. Amount", "Reason"})
		for _, hc := range analysis.HiddenCosts {
			hidden.Append([]string{hc.Vendor, hc.Item, fmt.Sprintf("$%.2f", hc.EstimatedAmount), hc.Reason})
		}
		fmt.Fprintln(w, "Hidden Costs Detected")
		hidden.Render()
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Recommendation:\n%s\n\n", analysis.Recommendation)
	fmt.Fprintf(w, "Reasoning:\n%s\n\n", analysis.Reasoning)
	fmt.Fprintf(w, "Confidence: %.0f%%\n", analysis.Confidence*100)
	if len(analysis.Caveats) > 0 {
		fmt.Fprintln(w, "Caveats:")
		for _, caveat := range analysis.Caveats {
			fmt.Fprintf(w, "  - %s\n", caveat)
		}
	}
}

// joinTop keeps table cells readable by showing at most the first two entries.
func joinTop(items []string, prefix string) string {
	if len(items) > 2 {
		items = items[:2]
	}
	marked := make([]string, 0, len(items))
	for _, item := range items {
		marked = append(marked, prefix+item)
	}
	return strings.Join(marked, "\n")
}
