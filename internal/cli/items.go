package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/thoughtgraph/internal/graph"
	"github.com/lazypower/thoughtgraph/internal/store"
	"github.com/lazypower/thoughtgraph/internal/ui"
)

var (
	itemsPage     int
	itemsPageSize int
)

var itemsCmd = &cobra.Command{
	Use:   "items [topics|thoughts|quotes|passages]",
	Short: "List stored items",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var kind graph.Kind
		if len(args) == 1 {
			k, err := parseKind(args[0])
			if err != nil {
				return err
			}
			kind = k
		}

		db, err := openDB(appConfig)
		if err != nil {
			return err
		}
		defer db.Close()

		page, err := db.ListItems(kind, itemsPage, itemsPageSize)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(page.Results) == 0 {
			fmt.Fprintln(out, ui.Subtle.Sprint("no items"))
			return nil
		}

		ui.Table(out, []string{"ID", "TYPE", "TITLE", "TAGS"}, itemRows(page.Results))
		fmt.Fprintf(out, "\n%s\n", ui.Subtle.Sprintf("page %d, %d of %d items", page.Page, len(page.Results), page.Count))
		return nil
	},
}

func init() {
	itemsCmd.Flags().IntVar(&itemsPage, "page", 1, "page number")
	itemsCmd.Flags().IntVar(&itemsPageSize, "page-size", store.DefaultPageSize, "items per page")
}

// parseKind accepts a kind by name or by its plural collection name.
func parseKind(s string) (graph.Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range graph.Kinds() {
		name := strings.ToLower(string(k))
		if s == name || s == name+"s" {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

func itemRows(items []store.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = ui.Truncate(it.Content, 48)
		}
		rows = append(rows, []string{
			ui.Truncate(it.ID, 12),
			ui.Kind(it.Kind),
			ui.Truncate(title, 48),
			strings.Join(it.Tags, ", "),
		})
	}
	return rows
}
