package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/OpenGG/claude-switch/internal/ccs"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// accountRecord is the machine-readable form of a list entry.
type accountRecord struct {
	Name             string  `json:"name" yaml:"name"`
	Current          bool    `json:"current" yaml:"current"`
	SubscriptionType string  `json:"subscriptionType" yaml:"subscriptionType"`
	Status           string  `json:"status" yaml:"status"`
	StatusText       string  `json:"statusText" yaml:"statusText"`
	TokenExpiresAt   int64   `json:"tokenExpiresAt" yaml:"tokenExpiresAt"`
	AddedAt          int64   `json:"addedAt" yaml:"addedAt"`
	LastUsedAt       int64   `json:"lastUsedAt" yaml:"lastUsedAt"`
	Notes            *string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

func newListCommand(mgr *ccs.Manager, v *view) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case outputTable, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unsupported output format %q (want table, json or yaml)", output)
			}

			entries, err := mgr.List()
			if err != nil {
				return err
			}

			switch output {
			case outputJSON:
				return writeJSON(v, toRecords(entries))
			case outputYAML:
				return writeYAML(v, toRecords(entries))
			default:
				writeTable(v, entries, mgr.Now())
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	return cmd
}

func toRecords(entries []ccs.AccountEntry) []accountRecord {
	records := make([]accountRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, accountRecord{
			Name:             e.Name,
			Current:          e.Current,
			SubscriptionType: e.Info.SubscriptionType,
			Status:           e.Status.Kind.String(),
			StatusText:       e.Status.String(),
			TokenExpiresAt:   e.Info.TokenExpiresAt,
			AddedAt:          e.Info.AddedAt,
			LastUsedAt:       e.Info.LastUsedAt,
			Notes:            e.Info.Notes,
		})
	}
	return records
}

func writeJSON(v *view, records []accountRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	v.println(string(data))
	return nil
}

func writeYAML(v *view, records []accountRecord) error {
	enc := yaml.NewEncoder(v.out)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	return enc.Close()
}

func writeTable(v *view, entries []ccs.AccountEntry, now time.Time) {
	nameWidth := len("NAME")
	for _, e := range entries {
		nameWidth = max(nameWidth, len([]rune(e.Name)))
	}
	nameWidth += 2
	const typeWidth, statusWidth = 12, 18

	v.println()
	v.println(v.title.Render("Saved Accounts"))
	v.rule(60)
	v.printf("  %s %s%s%s%s\n", pad("", 2),
		pad(v.dim.Render("NAME"), nameWidth),
		pad(v.dim.Render("TYPE"), typeWidth),
		pad(v.dim.Render("TOKEN STATUS"), statusWidth),
		v.dim.Render("LAST USED"))
	v.rule(60)

	for _, e := range entries {
		marker := " "
		name := e.Name
		if e.Current {
			marker = v.ok.Render(markActive)
			name = v.current.Render(e.Name)
		}
		v.printf("  %s %s%s%s%s\n", pad(marker, 2),
			pad(name, nameWidth),
			pad(e.Info.SubscriptionType, typeWidth),
			pad(v.status(e.Status), statusWidth),
			v.dim.Render(lastUsed(e.Info.LastUsedAt, now)))
		if e.Info.Notes != nil && *e.Info.Notes != "" {
			v.printf("  %s %s\n", pad("", 2), v.dim.Render(*e.Info.Notes))
		}
	}

	v.rule(60)
	v.println()
	v.println(v.dim.Render(fmt.Sprintf("  %s = active account", markActive)))
	v.println()
}
