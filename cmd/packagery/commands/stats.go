package commands

import (
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// StatsCommand holds the flags for the stats command.
type StatsCommand struct {
	pack PackCommand
}

// NewStatsCommand creates and configures the stats command.
func NewStatsCommand() *cobra.Command {
	cmd := &StatsCommand{}

	cobraCmd := &cobra.Command{
		Use:   "stats <path>...",
		Short: "Summarize the collected closure",
		Long:  "Collect the dependency graph of the given seed paths and print summary counts.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  cmd.Run,
	}

	cmd.pack.registerFlags(cobraCmd)

	return cobraCmd
}

// Run executes the stats command.
func (c *StatsCommand) Run(_ *cobra.Command, args []string) error {
	in, err := c.pack.loadInputs(args)
	if err != nil {
		return err
	}

	pkg, err := in.collect()
	if err != nil {
		return err
	}

	var totalSize uint64

	for rel := range pkg.RelPaths {
		info, statErr := os.Stat(filepath.Join(in.root, rel))
		if statErr == nil {
			totalSize += uint64(info.Size())
		}
	}

	writer := table.NewWriter()
	writer.SetOutputMirror(os.Stdout)
	writer.AppendHeader(table.Row{"Metric", "Value"})
	writer.AppendRows([]table.Row{
		{"External requirements", len(pkg.Requirements)},
		{"Local files", len(pkg.RelPaths)},
		{"Unresolved modules", len(pkg.UnresolvedModules)},
		{"Local size", humanize.Bytes(totalSize)},
	})
	writer.Render()

	return nil
}
