package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/expedit/internal/cli/formatter"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/repository"
	"github.com/alexanderramin/expedit/internal/service"
	"github.com/spf13/cobra"
)

func newPullCmd(app *App) *cobra.Command {
	var lang string
	var force bool

	cmd := &cobra.Command{
		Use:   "pull <kind> <experience-id>",
		Short: "Fetch a document from the API into the local store",
		Long:  "Fetch a document from the API. kind is one of raw, translation or media.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.Documents.Pull(cmd.Context(), service.PullRequest{
				Kind:         domain.DocumentKind(strings.ToLower(args[0])),
				ExperienceID: args[1],
				LanguageCode: lang,
				Force:        force,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s %s [%s] %s\n",
				doc.Kind, doc.ExperienceID, doc.DisplayID(), formatter.StatusPill(doc.StatusCode))
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Language code (defaults to the document's own)")
	cmd.Flags().BoolVar(&force, "force", false, "Replace a local copy that has unsaved changes")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var kind, experience string
	var modified bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := app.Documents.List(cmd.Context(), repository.DocumentFilter{
				Kind:         domain.DocumentKind(kind),
				ExperienceID: experience,
				ModifiedOnly: modified,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDocumentList(docs, app.now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only documents of this kind")
	cmd.Flags().StringVar(&experience, "experience", "", "Only documents of this experience")
	cmd.Flags().BoolVar(&modified, "modified", false, "Only documents with unsaved changes")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <doc>",
		Short: "Show a document's working copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.Documents.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				values := make(map[string]any, len(doc.Fields))
				for name, f := range doc.Fields {
					values[name] = f.Value
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(values)
			}

			table, err := app.Tables.Table(doc.Kind)
			if err != nil {
				return err
			}
			patch, err := app.Documents.Diff(cmd.Context(), doc.ID, domain.EventEdit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDocument(doc, table, patch.Changed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print field values as JSON")
	return cmd
}

func newSetCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "set <doc> <field> <value>",
		Short: "Change one field of the working copy",
		Long:  "Change one field of the working copy. With --json the value is parsed as JSON, so numbers, booleans and lists can be set.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any = args[2]
			if raw {
				if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
					return fmt.Errorf("invalid JSON value: %w", err)
				}
			}
			doc, err := app.Documents.SetField(cmd.Context(), args[0], args[1], value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s on %s [%s]\n", args[1], doc.ExperienceID, doc.DisplayID())
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "json", false, "Parse the value as JSON")
	return cmd
}

func newValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <doc>",
		Short: "Check the working copy against the field rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.Documents.Validate(cmd.Context(), args[0])
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				names := make([]string, 0, len(ve.Fields))
				for name := range ve.Fields {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", formatter.StyleRed.Render("✖"), name, ve.Fields[name])
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleGreen.Render("✔ valid"))
			return nil
		},
	}
}

func newDiffCmd(app *App) *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "diff <doc>",
		Short: "Show the patch a save would send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event := domain.EventEdit
			if publish {
				event = domain.EventPublish
			}
			patch, err := app.Documents.Diff(cmd.Context(), args[0], event)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPatch(patch))
			return nil
		},
	}

	cmd.Flags().BoolVar(&publish, "publish", false, "Show the patch a publish would send")
	return cmd
}

func newSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save <doc>",
		Short: "Validate and send the working copy's changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := app.spinner(cmd, "Saving...")
			res, err := app.Documents.Save(cmd.Context(), args[0])
			stop()
			if err != nil {
				return err
			}
			printSaveResult(cmd, "Saved", res)
			return nil
		},
	}
}

func newPublishCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <doc>",
		Short: "Send a document in creation to review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := app.spinner(cmd, "Publishing...")
			res, err := app.Documents.Publish(cmd.Context(), args[0])
			stop()
			if err != nil {
				return err
			}
			printSaveResult(cmd, "Published", res)
			return nil
		},
	}
}

func printSaveResult(cmd *cobra.Command, verb string, res *service.SaveResult) {
	out := cmd.OutOrStdout()
	if !res.Sent {
		fmt.Fprintln(out, formatter.Dim("No changes to send."))
		return
	}
	fmt.Fprintf(out, "%s %s %s [%s] %s\n", verb, res.Document.Kind, res.Document.ExperienceID,
		res.Document.DisplayID(), formatter.StatusPill(res.Document.StatusCode))
	if len(res.Patch.Changed) > 0 {
		fmt.Fprintf(out, "%s %s\n", formatter.Dim("changed:"), strings.Join(res.Patch.Changed, ", "))
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <doc>",
		Short: "Remove a document from the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.Documents.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := app.Documents.Delete(cmd.Context(), doc.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted local copy %s [%s]\n", doc.ExperienceID, doc.DisplayID())
			return nil
		},
	}
}

func newJournalCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal <doc>",
		Short: "Show the API writes made for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Documents.Journal(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatJournal(entries, app.now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries (0 for all)")
	return cmd
}

// spinner animates on stderr while a request runs, on terminals only.
func (a *App) spinner(cmd *cobra.Command, message string) func() {
	if !a.interactive() {
		return func() {}
	}
	return formatter.StartSpinner(cmd.ErrOrStderr(), message)
}
