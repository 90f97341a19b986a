package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// scheduleView is the printed form of a registry entry.
type scheduleView struct {
	Name    string          `json:"name"              yaml:"name"`
	Group   string          `json:"group"             yaml:"group"`
	FireAt  time.Time       `json:"fireAt"            yaml:"fireAt"`
	Target  string          `json:"target"            yaml:"target"`
	Action  string          `json:"action"            yaml:"action"`
	Payload json.RawMessage `json:"payload,omitempty" yaml:"-"`
	// PayloadText carries the payload for YAML, which has no raw JSON type.
	PayloadText string `json:"-" yaml:"payload,omitempty"`
}

func schedulesCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Inspect the schedule registry",
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List registry entries of the configured group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.application(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Registry.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}
			return renderSchedules(cmd.OutOrStdout(), entries, output)
		},
	}
	list.Flags().StringVarP(&output, "output", "o", "yaml", "output format (yaml, json)")
	cmd.AddCommand(list)

	return cmd
}

func renderSchedules(w io.Writer, entries []*domain.Schedule, format string) error {
	views := make([]scheduleView, 0, len(entries))
	for _, s := range entries {
		views = append(views, scheduleView{
			Name:        s.Name,
			Group:       s.Group,
			FireAt:      s.FireAt.UTC(),
			Target:      s.Target,
			Action:      string(s.ActionAfterCompletion),
			Payload:     s.Payload,
			PayloadText: string(s.Payload),
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (expected yaml or json)", format)
	}
}
