package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"export-assistant/internal/common/database"
	"export-assistant/internal/leads"
	"export-assistant/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	leadsJSON   bool
	leadsCounts bool
	leadsLimit  int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect captured leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clients, err := database.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open backends: %w", err)
		}
		defer clients.Close()

		list, err := loadLeads(ctx, cfg, clients)
		if err != nil {
			return err
		}

		if leadsCounts {
			return printCounts(cmd, clients, list)
		}
		if leadsLimit > 0 && len(list) > leadsLimit {
			list = list[:leadsLimit]
		}
		if leadsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		if len(list) == 0 {
			fmt.Println("No leads captured yet.")
			return nil
		}
		fmt.Println(leadsTable(list))
		return nil
	},
}

func init() {
	leadsListCmd.Flags().BoolVar(&leadsJSON, "json", false, "print JSON instead of a table")
	leadsListCmd.Flags().BoolVar(&leadsCounts, "counts", false, "print counts by source and status")
	leadsListCmd.Flags().IntVarP(&leadsLimit, "limit", "n", 0, "show at most n leads")
	leadsCmd.AddCommand(leadsListCmd)
	rootCmd.AddCommand(leadsCmd)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func leadsTable(list []models.Inquiry) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("DATE", "SOURCE", "STATUS", "NAME", "EMAIL", "REQUIREMENT")
	for _, inq := range list {
		t.Row(inq.CreatedAt.Format("2006-01-02 15:04"), inq.Source, string(inq.Status), inq.Name, inq.Email, truncate(inq.Message, 48))
	}
	return t
}

// printCounts prefers the postgres mirror, which also holds leads written
// while the key-value store was degraded.
func printCounts(cmd *cobra.Command, clients *database.Clients, list []models.Inquiry) error {
	var bySource map[string]int
	if clients.Postgres != nil {
		counts, err := leads.NewPostgresRepository(clients.Postgres.DB).CountBySource(cmd.Context())
		if err != nil {
			log.Warn("postgres counts unavailable, using the key-value list", map[string]interface{}{"error": err.Error()})
		} else {
			bySource = counts
		}
	}
	summary := leads.Summarize(list)
	if bySource == nil {
		bySource = summary.BySource
	}

	t := table.New().Border(lipgloss.NormalBorder()).Headers("GROUP", "KEY", "COUNT")
	for _, k := range sortedKeys(bySource) {
		t.Row("source", k, strconv.Itoa(bySource[k]))
	}
	for _, status := range []models.InquiryStatus{models.StatusPending, models.StatusResolved} {
		t.Row("status", string(status), strconv.Itoa(summary.ByStatus[status]))
	}
	t.Row("total", "", strconv.Itoa(summary.Total))
	fmt.Println(t)
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
