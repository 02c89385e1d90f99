package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/david/ywc-dashboard/internal/reporting"
)

var (
	settingsTheme string
	settingsView  string
	clearYes      bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update dashboard settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		settings := store.LoadSettings(cmd.Context())
		changed := false
		if cmd.Flags().Changed("theme") {
			settings.Theme = settingsTheme
			changed = true
		}
		if cmd.Flags().Changed("view") {
			settings.DefaultView = settingsView
			changed = true
		}
		if changed && !store.SaveSettings(cmd.Context(), settings) {
			return fmt.Errorf("failed to save settings")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "theme: %s\ndefaultView: %s\n", settings.Theme, settings.DefaultView)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the working set, quarter history and settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to clear without --yes")
		}
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		if !store.ClearAll(cmd.Context()) {
			return fmt.Errorf("failed to clear store")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cleared")
		return nil
	},
}

var suggestOrg string

var suggestCmd = &cobra.Command{
	Use:   "suggest <indicator-id>",
	Short: "Print the field kind and suggested response for an indicator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		indicators := store.LoadIndicators(cmd.Context())
		var found bool
		for _, ind := range indicators {
			if ind.ID != args[0] {
				continue
			}
			found = true
			org := suggestOrg
			if org == "" {
				org = reporting.OrganizationCode(indicators[0].Organization)
			}
			kind := reporting.Classify(ind.MeasurementMethods)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\nkind: %s\n", ind.ID, ind.Name, kind.Kind)
			for _, opt := range kind.Options {
				fmt.Fprintf(out, "  - %s\n", opt)
			}
			if s := reporting.Suggest(org, ind.Name); s != "" {
				fmt.Fprintf(out, "suggestion (%s):\n%s\n", org, s)
			}
			break
		}
		if !found {
			return fmt.Errorf("indicator %s not found", args[0])
		}
		return nil
	},
}

func init() {
	settingsCmd.Flags().StringVar(&settingsTheme, "theme", "", "light or dark")
	settingsCmd.Flags().StringVar(&settingsView, "view", "", "default view")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm")
	suggestCmd.Flags().StringVar(&suggestOrg, "org", "", "organization code (default: from the working set)")
	rootCmd.AddCommand(suggestCmd)
}
