package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lacuna-ai/lacuna/internal/util"
	pgstore "github.com/lacuna-ai/lacuna/pkg/store/pgx"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := util.GetEnv("DATABASE_URL")
		if url == "" {
			return fmt.Errorf("DATABASE_URL is required for migrate")
		}
		return pgstore.RunMigrations(url)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
