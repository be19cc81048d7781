package commands

import (
	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/barber-manager/cmd/barberctl/output"
	dbpkg "github.com/BruksfildServices01/barber-manager/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Cria ou atualiza as tabelas",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect(loadConfig())
		if err != nil {
			return err
		}

		output.Info("Aplicando migrações...")

		if err := dbpkg.Migrate(db.WithContext(cmd.Context())); err != nil {
			return err
		}

		output.Success("Tabelas atualizadas")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
