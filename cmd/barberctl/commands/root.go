package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/cmd/barberctl/output"
	"github.com/BruksfildServices01/barber-manager/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-manager/internal/db"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

var (
	// Global flags
	dbURL  string
	shopID uint
)

var rootCmd = &cobra.Command{
	Use:   "barberctl",
	Short: "Administração da barbearia pela linha de comando",
	Long: `barberctl opera diretamente no banco da barbearia.

Comandos:
  next-id   - Mostra o próximo código de funcionário, item ou folha
  export    - Exporta uma tabela em CSV
  notify    - Envia uma notificação push pelo webhook
  migrate   - Cria/atualiza as tabelas`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Postgres URL (padrão: DATABASE_URL)")
	rootCmd.PersistentFlags().UintVar(&shopID, "shop", 0, "ID da barbearia")
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if dbURL != "" {
		cfg.DBUrl = dbURL
	}
	timezone.SetDefault(cfg.Timezone)
	return cfg
}

func connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := dbpkg.Open(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func requireShop() error {
	if shopID == 0 {
		return fmt.Errorf("--shop é obrigatório")
	}
	return nil
}
