package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/ledger"
	"github.com/matzehuels/deppatcher/pkg/manifest"
	"github.com/matzehuels/deppatcher/pkg/tomledit"
)

// manifestStatus is the ledger state of one manifest.
type manifestStatus struct {
	Path    string // relative to the searched directory
	Name    string // package name, or "(workspace)"
	Entries []ledger.Entry
}

func (c *CLI) statusCommand() *cobra.Command {
	var (
		dir         string
		all         bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List manifests with recorded original sources",
		Long: `List the manifests below the current directory that have recorded originals,
i.e. that "revert" would change and "freeze" would clean up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rows, err := c.collectStatus(ctx, dir, all)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				printer{w: c.Out}.info("No recorded originals below %s", dir)
				return nil
			}
			if interactive {
				_, err := tea.NewProgram(newLedgerBrowser(rows), tea.WithContext(ctx), tea.WithOutput(c.Out), tea.WithInput(c.In)).Run()
				return err
			}
			fmt.Fprintln(c.Out, statusTable(rows).Render())
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "directory to search for Cargo.toml files")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include manifests without recorded originals")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the recorded originals")
	return cmd
}

// collectStatus reads the ledger of every manifest below dir.
func (c *CLI) collectStatus(ctx context.Context, dir string, all bool) ([]manifestStatus, error) {
	paths, err := c.manifests(ctx, dir)
	if err != nil {
		return nil, err
	}
	var rows []manifestStatus
	for _, p := range paths {
		st, err := readStatus(p)
		if err != nil {
			return nil, err
		}
		if len(st.Entries) == 0 && !all {
			continue
		}
		if rel, err := filepath.Rel(dir, p); err == nil {
			st.Path = rel
		}
		rows = append(rows, st)
	}
	return rows, nil
}

func readStatus(path string) (manifestStatus, error) {
	info, err := manifest.ReadInfo(path)
	if err != nil {
		return manifestStatus{}, err
	}
	st := manifestStatus{Path: path, Name: info.Name}
	if st.Name == "" {
		st.Name = "(workspace)"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return st, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	doc, err := tomledit.Parse(data)
	if err != nil {
		return st, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	led, err := ledger.Open(doc)
	if err != nil {
		return st, fmt.Errorf("%s: %w", path, err)
	}
	st.Entries = led.Entries()
	return st, nil
}

// statusTable lays out one row per manifest.
func statusTable(rows []manifestStatus) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Path, r.Name, fmt.Sprint(len(r.Entries))})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Manifest", "Package", "Recorded").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 2 && len(rows[row].Entries) > 0:
				return lipgloss.NewStyle().Foreground(colorYellow)
			case len(rows[row].Entries) == 0:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})
}
