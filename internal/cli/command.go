package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenGG/claude-switch/internal/ccs"
	"github.com/OpenGG/claude-switch/internal/ccs/domain"
)

// Options carries process-level settings into the command tree.
type Options struct {
	Version string
	// LogLevel is raised to debug by --verbose. May be nil.
	LogLevel *slog.LevelVar
	// NoColor disables styling regardless of --no-color.
	NoColor bool
	// Interactive reports whether prompts can be shown. Nil means never.
	Interactive func() bool
}

func (o Options) interactive() bool {
	return o.Interactive != nil && o.Interactive()
}

// NewRootCommand constructs the root Cobra command for claude-switch.
func NewRootCommand(mgr *ccs.Manager, prompter Prompter, stdout, stderr io.Writer, opts Options) *cobra.Command {
	var verbose, noColor bool
	v := newView(stdout)

	cmd := &cobra.Command{
		Use:           "claude-switch",
		Short:         "Switch between saved Claude Code accounts",
		Long:          "claude-switch saves the credentials Claude Code is logged in with under a name and swaps them back in on demand.",
		Version:       opts.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose && opts.LogLevel != nil {
				opts.LogLevel.Set(slog.LevelDebug)
			}
			if noColor || opts.NoColor {
				v.disableColor()
			}
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log file operations to stderr")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newAddCommand(mgr, prompter, v, opts))
	cmd.AddCommand(newListCommand(mgr, v))
	cmd.AddCommand(newUseCommand(mgr, prompter, v, opts))
	cmd.AddCommand(newRemoveCommand(mgr, v))
	cmd.AddCommand(newRenameCommand(mgr, v))
	cmd.AddCommand(newCurrentCommand(mgr, v))
	cmd.AddCommand(newRestoreCommand(mgr, v))

	return cmd
}

func newAddCommand(mgr *ccs.Manager, prompter Prompter, v *view, opts Options) *cobra.Command {
	var force bool
	var note string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Save the active credentials as a named account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			} else {
				if !opts.interactive() {
					return ErrNameRequired
				}
				for {
					value, err := prompter.Prompt("Enter a name for this account")
					if err != nil {
						return err
					}
					value = strings.TrimSpace(value)
					if err := mgr.ValidateAccountName(value); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
						continue
					}
					name = value
					break
				}
			}

			result, err := mgr.Add(name, ccs.AddOptions{Force: force, Note: note})
			if err != nil {
				return err
			}

			v.println()
			v.success("Account '%s' saved successfully!", v.name.Render(result.Name))
			v.println()
			v.field("Subscription", result.SubscriptionType)
			v.field("Stored at", v.dim.Render(result.Path))
			v.println()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing account with the same name")
	cmd.Flags().StringVar(&note, "note", "", "Free-text note stored with the account")
	return cmd
}

func newUseCommand(mgr *ccs.Manager, prompter Prompter, v *view, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "use [name]",
		Short: "Switch Claude Code to a saved account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			} else {
				if !opts.interactive() {
					return ErrNameRequired
				}
				names, current, err := mgr.AccountNames()
				if err != nil {
					return err
				}
				if len(names) == 0 {
					return domain.ErrNoAccountsSaved
				}
				names = reorderWithDefault(names, current)
				_, selected, err := prompter.Select("Select account to activate", names, current)
				if err != nil {
					return err
				}
				name = selected
			}

			result, err := mgr.Use(name)
			if err != nil {
				return err
			}

			v.println()
			if result.AlreadyActive {
				v.printf("%s Already using account '%s'\n", v.info.Render(markInfo), v.name.Render(name))
				v.println()
				return nil
			}
			if result.Status.IsExpired() {
				v.printf("%s Token for '%s' is expired. You may need to re-login after switching.\n",
					v.warn.Render(markWarn), name)
				v.println()
			}
			if result.BackedUp {
				v.success("Backed up current credentials")
			}
			v.success("Switched to '%s'", v.name.Render(name))
			v.restartHint()
			return nil
		},
	}
}

func newRemoveCommand(mgr *ccs.Manager, v *view) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := mgr.Remove(args[0]); err != nil {
				return err
			}
			v.println()
			v.success("Account '%s' removed", v.name.Render(args[0]))
			v.println()
			return nil
		},
	}
}

func newRenameCommand(mgr *ccs.Manager, v *view) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <old> <new>",
		Aliases: []string{"mv"},
		Short:   "Rename a saved account",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := mgr.Rename(args[0], args[1]); err != nil {
				return err
			}
			v.println()
			v.success("Renamed '%s' to '%s'", v.dim.Render(args[0]), v.name.Render(args[1]))
			v.println()
			return nil
		},
	}
}

func newCurrentCommand(mgr *ccs.Manager, v *view) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the account Claude Code is using",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := mgr.Current()
			if err != nil {
				return err
			}

			v.println()
			v.println(v.title.Render("Current Account"))
			v.rule(40)
			v.field("Account", v.name.Render(current.Name))
			v.field("Subscription", current.SubscriptionType)
			if current.RateLimitTier != "" {
				v.field("Rate Limit Tier", current.RateLimitTier)
			}
			v.field("Token Status", v.status(current.Status))
			v.println()
			if !current.Saved {
				v.println(v.dim.Render("Tip: Use 'claude-switch add <name>' to save this account."))
				v.println()
			}
			return nil
		},
	}
}

func newRestoreCommand(mgr *ccs.Manager, v *view) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Swap the active credentials with the last backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := mgr.Restore()
			if err != nil {
				return err
			}

			account := ccs.UnknownAccount + " (not saved)"
			if result.Name != "" {
				account = v.name.Render(result.Name)
			}

			v.println()
			v.success("Restored previous credentials")
			v.println()
			v.field("Account", account)
			v.field("Subscription", result.SubscriptionType)
			v.field("Token Status", v.status(result.Status))
			v.restartHint()
			return nil
		},
	}
}

// reorderWithDefault moves the default value to the front of the list.
// If defaultValue is empty or not found, or already first, returns items unchanged.
func reorderWithDefault(items []string, defaultValue string) []string {
	if defaultValue == "" {
		return items
	}

	idx := -1
	for i, item := range items {
		if item == defaultValue {
			idx = i
			break
		}
	}

	if idx <= 0 {
		return items
	}

	reordered := make([]string, 0, len(items))
	reordered = append(reordered, defaultValue)
	reordered = append(reordered, items[:idx]...)
	reordered = append(reordered, items[idx+1:]...)

	return reordered
}
