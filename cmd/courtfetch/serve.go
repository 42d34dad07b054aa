package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"courtfetch/internal/bot"
	"courtfetch/internal/scraper"
	"courtfetch/internal/web"
)

var noBot bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the web interface, and the Telegram bot when TELEGRAM_BOT_TOKEN is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()

		if a.cfg.TelegramBotToken != "" && !noBot {
			botHandler, err := bot.NewHandler(a.cfg.TelegramBotToken, a.service, a.log)
			if err != nil {
				return err
			}
			go botHandler.Start(ctx)
		} else {
			a.log.Info("Telegram bot disabled")
		}

		if a.cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		browserBin := a.cfg.BrowserBin
		server := web.NewServer(a.service, a.repo, a.log, web.WithBrowserCheck(func() bool {
			_, ok := scraper.FindBrowser(browserBin)
			return ok
		}))

		a.log.WithField("backend", a.service.Backend()).Info("courtfetch is running. Press Ctrl+C to exit.")
		if err := server.Run(ctx, a.cfg.HTTPAddr); err != nil {
			return err
		}
		a.log.Info("courtfetch shut down gracefully.")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&noBot, "no-bot", false, "do not start the Telegram bot even if a token is configured")
	rootCmd.AddCommand(serveCmd)
}
