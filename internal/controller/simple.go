package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "github.com/opencollective/deep-cover/internal/model"
)

// SimpleUI implements UI using cobra Command's Println.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayInventory prints the list of source files that would be analyzed.
func (s *SimpleUI) DisplayInventory(ctx context.Context, paths []m.Path, err error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err != nil {
		s.printf("inventory error: %v\n", err)
		return err
	}

	for _, path := range paths {
		s.printf("%s\n", path)
	}

	s.printf("Total files: %d\n", len(paths))

	return nil
}

// DisplayReports prints the per-file branch coverage table or error.
func (s *SimpleUI) DisplayReports(ctx context.Context, reports []m.FileReport, err error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err != nil {
		s.printf("coverage error: %v\n", err)
		return err
	}

	statsList := buildFileStats(reports)
	tableStr := renderCoverageTable(statsList)
	s.printf("\n%s", tableStr)

	return nil
}

type fileStat struct {
	path     string
	branches int
	covered  int
}

func (f fileStat) percent() string {
	if f.branches == 0 {
		return "-"
	}

	return fmt.Sprintf("%.1f%%", 100*float64(f.covered)/float64(f.branches))
}

func buildFileStats(reports []m.FileReport) []fileStat {
	statsList := make([]fileStat, 0, len(reports))

	for _, report := range reports {
		stat := fileStat{path: string(report.File)}

		for _, record := range report.Branches {
			for _, branch := range record.Branches {
				stat.branches++
				if m.Covered(branch.Count) {
					stat.covered++
				}
			}
		}

		statsList = append(statsList, stat)
	}

	sort.Slice(statsList, func(i, j int) bool {
		return statsList[i].path < statsList[j].path
	})

	return statsList
}

func renderCoverageTable(statsList []fileStat) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Branches", "Covered", "Coverage"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	totalBranches := 0
	totalCovered := 0

	for _, stat := range statsList {
		table.Append([]string{
			stat.path,
			fmt.Sprintf("%d", stat.branches),
			fmt.Sprintf("%d", stat.covered),
			stat.percent(),
		})

		totalBranches += stat.branches
		totalCovered += stat.covered
	}

	total := fileStat{branches: totalBranches, covered: totalCovered}
	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(statsList)),
		fmt.Sprintf("%d", totalBranches),
		fmt.Sprintf("%d", totalCovered),
		total.percent(),
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayReportDiff prints a unified diff between two stored reports.
func (s *SimpleUI) DisplayReportDiff(ctx context.Context, diff string) {
	if err := ctx.Err(); err != nil {
		return
	}

	if diff == "" {
		s.printf("Reports are identical\n")
		return
	}

	s.printf("%s", diff)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
