package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alexanderramin/expedit/internal/cli/formatter"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage the list sub-resources of a document",
		Long: "Manage highlights, included, non_included and important_information.\n" +
			"Changes stay local until 'items commit' sends them.",
	}

	cmd.AddCommand(
		newItemsListCmd(app),
		newItemsAddCmd(app),
		newItemsEditCmd(app),
		newItemsDeleteCmd(app),
		newItemsImportCmd(app),
		newItemsPlanCmd(app),
		newItemsCommitCmd(app),
	)
	return cmd
}

func newItemsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <doc> <key>",
		Short: "List the items of one sub-resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := domain.ResourceKey(args[1])
			items, err := app.Items.Items(cmd.Context(), args[0], key)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItems(key, items))
			return nil
		},
	}
}

func newItemsAddCmd(app *App) *cobra.Command {
	var name, code string

	cmd := &cobra.Command{
		Use:   "add <doc> <key>",
		Short: "Append a new item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Items.AddItem(cmd.Context(), args[0], domain.ResourceKey(args[1]), name, code); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s\n", name, args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Item text")
	cmd.Flags().StringVar(&code, "code", "", "Item code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newItemsEditCmd(app *App) *cobra.Command {
	var name, code string

	cmd := &cobra.Command{
		Use:   "edit <doc> <key> <index>",
		Short: "Change the text or code of an item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			if err := app.Items.EditItem(cmd.Context(), args[0], domain.ResourceKey(args[1]), index, name, code); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Edited %s #%d\n", args[1], index)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New item text (empty clears the item)")
	cmd.Flags().StringVar(&code, "code", "", "New item code (empty keeps the current one)")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <doc> <key> <index>",
		Short: "Mark an item for deletion",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			if err := app.Items.DeleteItem(cmd.Context(), args[0], domain.ResourceKey(args[1]), index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s #%d for deletion\n", args[1], index)
			return nil
		},
	}
}

func newItemsImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <doc> <key> <file.yaml>",
		Short: "Replace the items of a sub-resource from a YAML list",
		Long: "Replace the items of a sub-resource from a YAML list of {id, name, code}.\n" +
			"Entries without an id are created; persisted items missing from the file are deleted.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := domain.ResourceKey(args[1])

			raw, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[2], err)
			}
			var imported []domain.ManageableItem
			if err := yaml.Unmarshal(raw, &imported); err != nil {
				return fmt.Errorf("parsing %s: %w", args[2], err)
			}

			doc, err := app.Documents.Get(ctx, args[0])
			if err != nil {
				return err
			}
			existing, err := app.Items.Items(ctx, doc.ID, key)
			if err != nil {
				return err
			}
			merged := mergeImport(existing, imported, doc.LanguageCode)
			if err := app.Items.SetItems(ctx, doc.ID, key, merged); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItems(key, merged))
			return nil
		},
	}
}

// mergeImport turns an imported list into the new local list. Imported
// entries keep their position; an entry with a known id becomes an edit,
// one without an id a creation. Persisted items the file no longer lists
// are appended as deletions.
func mergeImport(existing, imported []domain.ManageableItem, lang string) []domain.ManageableItem {
	byID := make(map[string]domain.ManageableItem, len(existing))
	for _, it := range existing {
		if it.HasID() {
			byID[it.IDValue()] = it
		}
	}

	out := make([]domain.ManageableItem, 0, len(imported)+len(existing))
	kept := make(map[string]bool, len(imported))
	for i, it := range imported {
		it.VisualizationOrder = i
		if it.LanguageCode == "" {
			it.LanguageCode = lang
		}
		switch prev, known := byID[it.IDValue()]; {
		case !it.HasID():
			it.ID = nil
			it.Action = domain.ActionCreate
		case known:
			kept[it.IDValue()] = true
			if it.Name != prev.Name || it.Code != prev.Code || i != prev.VisualizationOrder {
				it.Action = domain.ActionEdit
			} else {
				it.Action = domain.ActionUnset
			}
		default:
			it.Action = domain.ActionEdit
		}
		out = append(out, it)
	}

	for _, it := range existing {
		if it.HasID() && !kept[it.IDValue()] {
			it.Action = domain.ActionDelete
			out = append(out, it)
		}
	}
	return out
}

func newItemsPlanCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <doc> <key>",
		Short: "Show the requests a commit would send",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := app.Items.Plan(cmd.Context(), args[0], domain.ResourceKey(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatActions(actions))
			return nil
		},
	}
}

func newItemsCommitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "commit <doc> <key>",
		Short: "Send pending item changes to the API",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			stop := app.spinner(cmd, "Committing...")
			results, err := app.Items.Commit(cmd.Context(), args[0], domain.ResourceKey(args[1]))
			stop()

			outcomes := make([]formatter.CommitOutcome, len(results))
			for i, r := range results {
				outcomes[i] = formatter.CommitOutcome{Action: r.Action, Err: r.Err}
			}
			if len(results) > 0 || err == nil {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCommit(outcomes, time.Since(start)))
			}
			return err
		},
	}
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid item index %q", s)
	}
	return i, nil
}
