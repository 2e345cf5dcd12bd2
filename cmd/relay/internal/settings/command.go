package settings

import (
	"github.com/spf13/cobra"
)

func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and migrate stored relay settings",
		Example: `  relay settings show
  relay settings migrate --backend sqlite --path settings.db`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored settings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadStorageConfig()
			if err != nil {
				return err
			}
			return showSettings(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	var opts migrateOptions

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the configured settings store into another backend",
		Args:  cobra.NoArgs,
		Example: `  relay settings migrate --backend sqlite --path settings.db
  relay settings migrate --backend json --path settings.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadStorageConfig()
			if err != nil {
				return err
			}
			return migrateSettings(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	migrateCmd.Flags().StringVar(&opts.Backend, "backend", "",
		"Target backend (json or sqlite)")
	migrateCmd.Flags().StringVar(&opts.Path, "path", "",
		"Target settings file path")
	_ = migrateCmd.MarkFlagRequired("backend")
	_ = migrateCmd.MarkFlagRequired("path")

	cmd.AddCommand(showCmd)
	cmd.AddCommand(migrateCmd)

	return cmd
}
