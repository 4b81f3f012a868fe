package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wordzap/aipack/internal/backend"
	"github.com/wordzap/aipack/internal/config"
	"github.com/wordzap/aipack/internal/pack"
	"github.com/wordzap/aipack/internal/store"
	"github.com/wordzap/aipack/internal/tui"
	"github.com/wordzap/aipack/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "aipack",
	Short:   "On-device AI model pack manager for WordZap",
	Long:    `aipack downloads, validates, and installs the AI model packs the WordZap word game runs on-device.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()
		defer store.CloseDB()

		manifest, err := resolveManifest(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
			os.Exit(1)
		}

		startTUI(manifest)
	},
}

// startTUI runs the interactive pack manager over the given manifest.
func startTUI(manifest *pack.Manifest) {
	settings := loadSettingsOrDefault()
	tui.ApplyTheme(settings.General.Theme)

	buildVersion := Version
	if settings.General.SkipUpdateCheck {
		buildVersion = ""
	}

	m := tui.NewModel(tui.Config{
		Manifest:   manifest,
		ModelsDir:  config.GetModelsDir(),
		NewBackend: newHTTPBackend,
		Version:    buildVersion,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}

// newHTTPBackend builds the acquisition backend for a pack from settings.
func newHTTPBackend(spec pack.Spec) backend.Backend {
	settings := loadSettingsOrDefault()
	return backend.NewHTTPBackend(spec, backend.Config{
		StagingDir:     config.GetStagingDir(),
		ModelsDir:      config.GetModelsDir(),
		LeaseDir:       config.GetStateDir(),
		UserAgent:      settings.Network.UserAgent,
		ProbeTimeout:   settings.Network.ProbeTimeout,
		MaxConnections: settings.Network.MaxConnectionsPerPack,
	})
}

func loadSettingsOrDefault() *config.Settings {
	settings, err := config.LoadSettings()
	if err != nil {
		settings = config.DefaultSettings()
	}
	return settings
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("manifest", "m", "", "Path or URL of the pack manifest")
	rootCmd.PersistentFlags().Bool("from-clipboard", false, "Read the manifest URL from the clipboard")
	rootCmd.SetVersionTemplate("aipack version {{.Version}}\n")
}

// initializeGlobalState sets up directories, the pack registry, and logging.
func initializeGlobalState() {
	if err := config.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing directories: %v\n", err)
		os.Exit(1)
	}

	store.Configure(filepath.Join(config.GetStateDir(), "aipack.db"))
	utils.ConfigureDebug(config.GetLogsDir())

	settings := loadSettingsOrDefault()
	utils.CleanupLogs(settings.General.LogRetentionCount)
}
