package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/expedit/internal/cli/formatter"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flowFlag accepts a flow code in any case and rejects unknown ones at
// parse time.
type flowFlag domain.FlowCode

var _ pflag.Value = (*flowFlag)(nil)

func (f *flowFlag) String() string { return string(*f) }

func (f *flowFlag) Type() string { return "flow" }

func (f *flowFlag) Set(s string) error {
	code := domain.FlowCode(strings.ToUpper(s))
	if !domain.ValidFlowCodes[code] {
		return fmt.Errorf("unknown flow %q", s)
	}
	*f = flowFlag(code)
	return nil
}

func newHistoryCmd(app *App) *cobra.Command {
	flow := flowFlag(domain.FlowCuration)
	var lang string
	var refresh, browse bool

	cmd := &cobra.Command{
		Use:   "history <experience-id>",
		Short: "List the versions of an experience in one flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.HistoryRequest{
				ExperienceID: args[0],
				Flow:         domain.FlowCode(flow),
				LanguageCode: lang,
				Refresh:      refresh,
			}
			versions, err := app.History.List(cmd.Context(), req)
			if err != nil {
				return err
			}

			if browse && app.interactive() {
				return app.runProgram(newHistoryModel(req.ExperienceID, req.Flow, versions, app.now()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Header(fmt.Sprintf("%s %s", req.ExperienceID, req.Flow)))
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatVersions(versions, app.now()))
			return nil
		},
	}

	cmd.Flags().Var(&flow, "flow", "Flow code (BASE, CURATION, MANUAL_TRANSLATION, AUTOTRANSLATION, MEDIA)")
	cmd.Flags().StringVar(&lang, "lang", "", "Language code")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the history cache")
	cmd.Flags().BoolVarP(&browse, "interactive", "i", false, "Browse the list in a scrollable view")
	return cmd
}
