package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/barber-manager/cmd/barberctl/output"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
)

var pushMsg notify.Message

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Envia uma notificação push pelo webhook configurado",
	Long: `Envia {token, title, body} para NOTIFY_WEBHOOK_URL e mostra a resposta.

Exemplo:
  barberctl notify --token abc123 --title "Promoção" --body "Corte + barba por R$ 50"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		client := notify.NewClient(
			cfg.NotifyWebhookURL,
			cfg.NotifyWebhookSecret,
			time.Duration(cfg.NotifyTimeoutSec)*time.Second,
		)

		env, err := client.Send(cmd.Context(), pushMsg)
		if err != nil {
			return err
		}

		output.Success("Notificação enviada")
		if env.Message != "" {
			output.Muted("%s", env.Message)
		}
		return nil
	},
}

func init() {
	notifyCmd.Flags().StringVar(&pushMsg.Token, "token", "", "Token do dispositivo")
	notifyCmd.Flags().StringVar(&pushMsg.Title, "title", "", "Título")
	notifyCmd.Flags().StringVar(&pushMsg.Body, "body", "", "Mensagem")
	rootCmd.AddCommand(notifyCmd)
}
