package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wordzap/aipack/internal/config"
	"github.com/wordzap/aipack/internal/store"
	"github.com/wordzap/aipack/internal/utils"
)

var rmCmd = &cobra.Command{
	Use:   "rm <family>...",
	Short: "Remove installed packs",
	Long:  `Remove deletes a pack's installed artifacts and drops it from the registry.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()
		defer store.CloseDB()

		keepFiles, _ := cmd.Flags().GetBool("keep-files")

		for _, family := range args {
			entry, err := store.LookupPack(family)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if entry == nil {
				fmt.Fprintf(os.Stderr, "Pack %q is not installed.\n", family)
				continue
			}

			if !keepFiles {
				if err := store.RemoveFamilyDir(config.GetModelsDir(), family); err != nil {
					utils.Debug("failed to remove files for %s: %v", family, err)
					fmt.Fprintf(os.Stderr, "Warning: could not remove files for %s: %v\n", family, err)
				}
			}

			if err := store.RemovePack(family); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing %s from registry: %v\n", family, err)
				os.Exit(1)
			}
			fmt.Printf("Removed %s\n", family)
		}
	},
}

func init() {
	rmCmd.Flags().Bool("keep-files", false, "Drop the registry entry but keep installed files")
	rootCmd.AddCommand(rmCmd)
}
