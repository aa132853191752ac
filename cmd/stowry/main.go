package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "stowry",
	Short:   "Object storage gateway authenticated with presigned URLs",
	Long: `Stowry is a lightweight object storage gateway. Access is authorized
through presigned URLs minted with either Stowry's native signing scheme
or AWS Signature V4, so generic HTTP clients and stock S3 libraries both
work against it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s), later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (env: STOWRY_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (env: STOWRY_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (env: STOWRY_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
