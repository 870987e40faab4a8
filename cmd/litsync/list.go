package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List papers in the local library",
	Long:  `List shows the most recently updated papers in the local library.`,
	RunE:  runList,
}

var listLimit int

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50,
		"Maximum number of papers")
}

func runList(cmd *cobra.Command, args []string) error {
	papers, err := apiClient.Store.List(listLimit)
	if err != nil {
		return fmt.Errorf("list library: %w", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"papers": papers})
		return nil
	}

	if len(papers) == 0 {
		printInfo("Library is empty (run 'litsync sync')")
		return nil
	}

	for _, paper := range papers {
		printInfo("%s", formatPaper(paper))
	}
	printInfo("\n%d paper(s)", len(papers))

	return nil
}
