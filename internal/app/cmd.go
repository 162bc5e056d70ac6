package app

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

// NewRootCommand はeloraのコマンドツリーを構築する。
// サブコマンドを省略した場合はserveとして起動する。
// ログの出力先はwとする。
func NewRootCommand(w io.Writer) *cobra.Command {
	var envFile string

	serve := func(cmd *cobra.Command, args []string) error {
		cfg, err := Init(w, envFile)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	}

	root := &cobra.Command{
		Use:           "elora",
		Short:         "ELORA personal assistant backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "path to a .env file (ignored if missing)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(w, envFile)
			if err != nil {
				return err
			}
			return runMigrate(cfg)
		},
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete voice pings and ended sessions older than VOICE_RETENTION_DAYS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(w, envFile)
			if err != nil {
				return err
			}
			return runPrune(cmd.Context(), cfg)
		},
	}

	// healthcheckはdistroless環境のDockerヘルスチェック用。フル初期化は行わない。
	var port string
	healthcheckCmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe the local /health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthcheck(port)
		},
	}
	healthcheckCmd.Flags().StringVar(&port, "port", defaultPort(), "server port to probe")

	root.AddCommand(serveCmd, migrateCmd, pruneCmd, healthcheckCmd)
	return root
}

func defaultPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	return "8080"
}
