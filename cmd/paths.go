package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordzap/aipack/internal/config"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the directories aipack uses",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("config:   %s\n", config.GetAipackDir())
		fmt.Printf("models:   %s\n", config.GetModelsDir())
		fmt.Printf("staging:  %s\n", config.GetStagingDir())
		fmt.Printf("state:    %s\n", config.GetStateDir())
		fmt.Printf("logs:     %s\n", config.GetLogsDir())
		fmt.Printf("settings: %s\n", config.GetSettingsPath())
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
