package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/set-night/mindchat/internal/config"
	"github.com/spf13/cobra"
)

func newAssistantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assistants",
		Short: "Configured assistants",
	}

	var withModels bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List assistants with their model and temperature",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			out := cmd.OutOrStdout()

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tMODEL\tTEMPERATURE\tFORMAT")
			for _, as := range a.assistants.List() {
				temp := as.Temperature
				if temp == "" {
					temp = config.DefaultTemperature
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", as.ID, as.Title, as.Model, temp, as.PayloadFormat)
			}
			w.Flush()

			if !withModels {
				return nil
			}
			models, err := a.gateway.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			fmt.Fprintf(out, "\nModels offered by %s:\n", a.cfg.APIEndpoint)
			for _, m := range models {
				fmt.Fprintln(out, " ", m)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&withModels, "models", false, "also list models offered by the endpoint")

	cmd.AddCommand(list)
	return cmd
}
