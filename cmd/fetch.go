package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wordzap/aipack/internal/config"
	"github.com/wordzap/aipack/internal/controller"
	"github.com/wordzap/aipack/internal/events"
	"github.com/wordzap/aipack/internal/pack"
	"github.com/wordzap/aipack/internal/store"
	"github.com/wordzap/aipack/internal/utils"
)

const timeRound = 100 * time.Millisecond

var fetchCmd = &cobra.Command{
	Use:   "fetch [family]...",
	Short: "Download and install packs without the TUI",
	Long:  `Fetch provisions the named packs headlessly. With no arguments it provisions every pack in the manifest.`,
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()
		defer store.CloseDB()

		manifest, err := resolveManifest(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
			os.Exit(1)
		}

		specs, err := selectPacks(manifest, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		failures := 0
		for _, spec := range specs {
			if err := fetchOne(ctx, spec); err != nil {
				if ctx.Err() != nil {
					fmt.Fprintln(os.Stderr, "Interrupted.")
					os.Exit(1)
				}
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", spec.Label(), err)
				failures++
			}
		}
		if failures > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

// fetchOne provisions a single pack, printing progress to stdout.
func fetchOne(ctx context.Context, spec pack.Spec) error {
	notify := make(chan any, 64)
	ctrl := controller.New(controller.Config{
		Spec:      spec,
		Backend:   newHTTPBackend(spec),
		ModelsDir: config.GetModelsDir(),
		NotifyCh:  notify,
	})

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	for {
		select {
		case msg := <-notify:
			printEvent(spec, msg)
		case err := <-done:
			drainEvents(spec, notify)
			return err
		}
	}
}

func drainEvents(spec pack.Spec, notify chan any) {
	for {
		select {
		case msg := <-notify:
			printEvent(spec, msg)
		default:
			return
		}
	}
}

func printEvent(spec pack.Spec, msg any) {
	switch m := msg.(type) {
	case events.AcquireStartedMsg:
		fmt.Printf("Fetching %s...\n", spec.Label())
	case events.ProgressMsg:
		fmt.Printf("\r  %s  %s", utils.FormatProgress(m.Completed, m.Total), utils.FormatPercent(m.Fraction))
	case events.ValidatingMsg:
		fmt.Printf("\nValidating %s...\n", spec.Label())
	case events.PackReadyMsg:
		fmt.Printf("Ready: %s -> %s (in %s)\n", spec.Label(), m.InstallRoot, m.Elapsed.Round(timeRound))
	case events.PackErrorMsg:
		fmt.Printf("\nFailed: %s: %s\n", spec.Label(), m.Reason)
	case events.PackCancelledMsg:
		fmt.Printf("\nCancelled: %s\n", spec.Label())
	}
}
