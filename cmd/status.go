package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wordzap/aipack/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List installed packs",
	Long:  `Status prints every pack recorded in the local registry with its install root.`,
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()
		defer store.CloseDB()

		entries, err := store.ListPacks()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading registry: %v\n", err)
			os.Exit(1)
		}

		if len(entries) == 0 {
			fmt.Println("No packs installed.")
			return
		}

		for _, entry := range entries {
			name := entry.DisplayName
			if name == "" {
				name = entry.Family
			}
			fmt.Printf("%s (%s)\n", name, entry.Family)
			fmt.Printf("  root:      %s\n", entry.InstallRoot)
			fmt.Printf("  artifacts: %s\n", strings.Join(entry.Artifacts, ", "))
			fmt.Printf("  installed: %s\n", time.Unix(entry.InstalledAt, 0).Format("2006-01-02 15:04"))
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
