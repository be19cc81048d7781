package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/barber-manager/cmd/barberctl/output"
	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/lock"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

var idEntity string

var nextIDCmd = &cobra.Command{
	Use:   "next-id",
	Short: "Mostra o próximo código sem reservá-lo",
	Long: `Mostra o próximo código sequencial de uma entidade.

Exemplos:
  barberctl next-id --entity employee --shop 1   # MSB-2025-0007
  barberctl next-id --entity item --shop 1       # MSBI-0042`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireShop(); err != nil {
			return err
		}

		cfg := loadConfig()
		db, err := connect(cfg)
		if err != nil {
			return err
		}

		catalog, err := bizid.LoadCatalog(cfg.IDSchemesFile)
		if err != nil {
			return err
		}

		shop, err := repository.NewAppointmentGormRepository(db).GetBarbershopByID(cmd.Context(), shopID)
		if httperr.IsBusiness(err, "barbershop_not_found") {
			return fmt.Errorf("barbearia %d não encontrada", shopID)
		}
		if err != nil {
			return err
		}

		ids := repository.NewBusinessIDGormRepository(db, lock.NewLocalLocker(), catalog)
		year := timezone.NowIn(shop.Timezone).Year()

		id, err := ids.Peek(cmd.Context(), idEntity, shop.ID, year)
		if err != nil {
			return err
		}

		output.KeyValue("Próximo código", id)
		return nil
	},
}

func init() {
	nextIDCmd.Flags().StringVar(&idEntity, "entity", bizid.EntityEmployee, "employee, item ou payroll")
	rootCmd.AddCommand(nextIDCmd)
}
