package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
)

var (
	exportFormat string
	exportOutput string
)

// exportedTask is a task together with its checklist.
type exportedTask struct {
	model.Task `yaml:",inline"`
	Items      []model.ChecklistItem `json:"items" yaml:"items"`
	Progress   model.Progress        `json:"progress" yaml:"progress"`
}

type exportDocument struct {
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Tasks      []exportedTask `json:"tasks" yaml:"tasks"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all tasks and checklists",
	Example: `  planner export
  planner export --format json --output tasks.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "yaml" && exportFormat != "json" {
			return fmt.Errorf("unsupported format %q (want yaml or json)", exportFormat)
		}

		env, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		doc, err := buildExport(cmd.Context(), env.store)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating %s: %w", exportOutput, err)
			}
			defer f.Close()
			out = f
		}
		return writeExport(out, exportFormat, doc)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "output format: yaml or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func buildExport(ctx context.Context, s store.Store) (*exportDocument, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	doc := &exportDocument{ExportedAt: time.Now().UTC(), Tasks: make([]exportedTask, 0, len(tasks))}
	for _, t := range tasks {
		items, err := s.ListItems(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("listing items of task %d: %w", t.ID, err)
		}
		if items == nil {
			items = []model.ChecklistItem{}
		}
		doc.Tasks = append(doc.Tasks, exportedTask{Task: t, Items: items, Progress: model.ProgressOf(items)})
	}
	return doc, nil
}

func writeExport(w io.Writer, format string, doc *exportDocument) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
}
