package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/cmd/barberctl/output"
	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/export"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

var (
	exportEntity string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exporta uma tabela da barbearia em CSV",
	Long: `Exporta employees, items, appointments, subscribers ou payroll.

Exemplos:
  barberctl export --entity employees --shop 1 --out funcionarios.csv
  barberctl export --entity items --shop 1 > estoque.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireShop(); err != nil {
			return err
		}

		db, err := connect(loadConfig())
		if err != nil {
			return err
		}

		data, rows, err := exportTable(cmd.Context(), db, exportEntity, shopID)
		if err != nil {
			return err
		}

		if exportOut == "" {
			_, err := os.Stdout.Write(data)
			return err
		}

		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return err
		}
		output.Success("%d registros exportados para %s", rows, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportEntity, "entity", "employees", "employees, items, appointments, subscribers ou payroll")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Arquivo de saída (padrão: stdout)")
	rootCmd.AddCommand(exportCmd)
}

func exportTable(ctx context.Context, db *gorm.DB, entity string, shop uint) ([]byte, int, error) {
	q := func(order string) *gorm.DB {
		return db.WithContext(ctx).Where("barbershop_id = ?", shop).Order(order)
	}

	switch entity {
	case "employees":
		return fetchAndEncode(q("business_id ASC"), export.EmployeeColumns)
	case "items":
		return fetchAndEncode(q("business_id ASC"), export.ItemColumns)
	case "appointments":
		return exportAppointments(ctx, db, q("start_time ASC"), shop)
	case "subscribers":
		return fetchAndEncode(q("name ASC"), export.SubscriberColumns)
	case "payroll":
		return fetchAndEncode(q("period_start ASC, business_id ASC"), export.PayrollColumns)
	}
	return nil, 0, fmt.Errorf("entidade desconhecida: %s", entity)
}

// exportAppointments prints start/end in the shop's timezone.
func exportAppointments(ctx context.Context, db *gorm.DB, q *gorm.DB, shop uint) ([]byte, int, error) {
	s, err := repository.NewAppointmentGormRepository(db).GetBarbershopByID(ctx, shop)
	if httperr.IsBusiness(err, "barbershop_not_found") {
		return nil, 0, fmt.Errorf("barbearia %d não encontrada", shop)
	}
	if err != nil {
		return nil, 0, err
	}

	var apps []models.Appointment
	if err := q.Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	domain.InLocation(apps, timezone.Location(s.Timezone))

	data, err := export.Bytes(export.AppointmentColumns, apps)
	return data, len(apps), err
}

func fetchAndEncode[T any](q *gorm.DB, columns []export.Column[T]) ([]byte, int, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	data, err := export.Bytes(columns, rows)
	return data, len(rows), err
}
