package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func I18nCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "i18n",
		Short: "Inspect block message bundles",
	}

	var (
		dir       string
		reference string
	)
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Directory containing locale files (default: built-in bundles)")

	check := &cobra.Command{
		Use:   "check",
		Short: "Report keys missing from or unknown to each locale",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadLocales(I18nSettings{Dir: dir})
			if err != nil {
				return err
			}
			issues, err := manager.Check(reference)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				fmt.Fprintln(cmd.OutOrStdout(), issue)
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d issue(s) found", len(issues))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d locale(s) complete\n", len(manager.Locales()))
			return nil
		},
	}
	check.Flags().StringVar(&reference, "reference", "en", "Locale the others are compared against")

	locales := &cobra.Command{
		Use:   "locales",
		Short: "List available locales",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadLocales(I18nSettings{Dir: dir})
			if err != nil {
				return err
			}
			for _, code := range manager.Locales() {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}

	cmd.AddCommand(check, locales)
	return cmd
}
