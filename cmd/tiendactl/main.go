// Command tiendactl is the operator CLI of the platform: it inspects tenant
// schemas, drops orphaned ones, seeds users and reads the job dead letter queue.
package main

import (
	"os"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tiendactl",
		Short: "Operator tooling for the multi-tenant shop platform",
		Long: `Operator tooling for the multi-tenant shop platform.

Connection settings come from the same environment variables (or .env file)
as the API server: DATABASE_URL, REDIS_URL, JWT_SECRET, ...`,
		SilenceUsage: true,
	}
	root.AddCommand(newTenantsCommand())
	root.AddCommand(newUsersCommand())
	root.AddCommand(newJobsCommand())
	return root
}

// loadConfig is shared by every subcommand.
func loadConfig() (*config.Config, error) {
	return config.Load()
}
