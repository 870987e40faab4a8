package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwaldner/litsync/internal/models"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search the local library",
	Long: `Search matches titles, abstracts, and extracted PDF text.
Results are ranked by relevance.`,
	Example: `  litsync search "distributed consensus"
  litsync search raft --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20,
		"Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	papers, err := apiClient.Store.Search(query, searchLimit)
	if err != nil {
		return fmt.Errorf("search library: %w", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"query":   query,
			"results": papers,
		})
		return nil
	}

	if len(papers) == 0 {
		printInfo("No matches for %q", query)
		return nil
	}

	for _, paper := range papers {
		printInfo("%s", formatPaper(paper))
	}
	printInfo("\n%d result(s)", len(papers))

	return nil
}

func formatPaper(p *models.Paper) string {
	var sb strings.Builder

	year := "n.d."
	if p.Year > 0 {
		year = fmt.Sprintf("%d", p.Year)
	}
	sb.WriteString(fmt.Sprintf("%s (%s)", p.Title, year))

	if len(p.Authors) > 0 {
		sb.WriteString("\n   " + strings.Join(p.Authors, "; "))
	}
	if p.Venue != "" {
		sb.WriteString("\n   " + p.Venue)
	}
	if p.HasAttachment() {
		sb.WriteString("\n   PDF: " + p.AttachmentFile)
	}

	return sb.String()
}
