package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photostrip",
		Short: "Event photo-booth strip compositing and administration",
		Long: `Photostrip composites camera captures onto an event template into a
print-ready photo strip, and runs the backend the booth submits to.

The serve command hosts the booth/admin API; compose runs the full
compositing pipeline offline against image files; export dumps submitted
strips for event reporting.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newComposeCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
