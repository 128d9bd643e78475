package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangasee/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config profiles for mangasee",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions()
		cfg, used, err := config.LoadMerged(opts)
		if err != nil {
			return err
		}

		fmt.Printf("Loaded config from:\n  %s\n\n", used)
		cfg.Print()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
