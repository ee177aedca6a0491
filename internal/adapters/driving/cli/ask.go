package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

var askExplain bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the warehouse",
	Long: `Retrieves the documents most relevant to the question and asks the
language model to answer from them alone.

Use --explain to print the retrieval decisions (intent, search breadth and
the documents chosen) without calling the language model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askExplain, "explain", "e", false, "show retrieval decisions instead of answering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}
	question := strings.Join(args, " ")

	if askExplain {
		r, err := queryService.Explain(cmd.Context(), question)
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}
		printRetrieval(cmd, r)
		return nil
	}

	answer, err := queryService.Ask(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	cmd.Println(answer.Answer)
	return nil
}

func printRetrieval(cmd *cobra.Command, r domain.Retrieval) {
	cmd.Printf("Intent:      %s\n", describeIntent(r.Intent))
	if r.IndexCount >= 0 {
		cmd.Printf("Index size:  %d\n", r.IndexCount)
	} else {
		cmd.Println("Index size:  unknown")
	}
	cmd.Printf("Top K:       %d\n", r.TopK)
	cmd.Printf("Documents:   %d\n", len(r.Chunks))

	if len(r.Chunks) == 0 {
		cmd.Println()
		cmd.Println("No relevant documents found.")
		return
	}

	cmd.Println()
	for i, c := range r.Chunks {
		score := "filter"
		if c.Distance != nil {
			score = fmt.Sprintf("%.4f", *c.Distance)
		}
		cmd.Printf("[%d] %-22s %-8s %s\n", i+1, c.Type(), score, firstLine(c.Text, 80))
	}
}

func describeIntent(in domain.Intent) string {
	if in.IsNeutral() {
		return "general"
	}
	parts := make([]string, 0, len(in.Domains)+1)
	if in.Aggregation {
		parts = append(parts, "aggregation")
	}
	for _, d := range in.Domains {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ", ")
}

// firstLine returns the first line of s, cut to n runes.
func firstLine(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
