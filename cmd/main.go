package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"ui2html/config"
	"ui2html/internal/api/telegram"
	"ui2html/internal/api/web"
	"ui2html/internal/container"
	"ui2html/internal/infrastructure/storage"
)

type cliOptions struct {
	imagePath string
	outputDir string
}

// buildFunc собирает сервисы приложения из конфига
type buildFunc func(ctx context.Context, cfg *config.Config) (*container.Container, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, buildContainer)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
}

func buildContainer(ctx context.Context, cfg *config.Config) (*container.Container, error) {
	// Создаём хранилище пользователей
	userRepo := storage.NewMemoryUserRepository()
	return container.New(ctx, cfg, userRepo)
}

func newRootCmd(out io.Writer, build buildFunc) *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           "ui2html",
		Short:         "Convert UI image to HTML",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Ошибки конвейера печатаем и выходим с кодом 0
			if err := runConvert(cmd.Context(), out, build, *opts); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.imagePath, "image", "i", "", "Path to the input image")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", config.DefaultOutputDir, "Output directory path")
	_ = cmd.MarkFlagRequired("image")

	cmd.AddCommand(newServeCmd(build), newBotCmd(build))
	return cmd
}

func runConvert(ctx context.Context, out io.Writer, build buildFunc, opts cliOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c, err := build(ctx, cfg)
	if err != nil {
		return err
	}

	htmlPath, err := c.ConversionService.Convert(ctx, opts.imagePath, opts.outputDir)
	if err != nil {
		return err
	}

	files, err := c.ConversionService.Lookup(ctx, opts.outputDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "HTML has been generated and saved to: %s\n", htmlPath)
	fmt.Fprintf(out, "Original image has been saved to: %s\n", filepath.Join(opts.outputDir, files.Original))
	fmt.Fprintln(out, "\nTo view the result:")
	fmt.Fprintf(out, "1. Open %s in your web browser\n", htmlPath)
	fmt.Fprintln(out, "2. The page will show the original image and the generated HTML implementation")
	return nil
}

func newServeCmd(build buildFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web upload interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			c, err := build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to build services: %w", err)
			}

			srv, err := web.NewServer(cfg, c.ConversionService)
			if err != nil {
				return fmt.Errorf("failed to create web server: %w", err)
			}
			return srv.Run(cmd.Context())
		},
	}
}

func newBotCmd(build buildFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			c, err := build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to build services: %w", err)
			}

			// Создаём бота
			bot, err := telegram.NewBot(cfg.TelegramToken, c.UserService, c.ConversionService, cfg.BotOutputDir)
			if err != nil {
				return fmt.Errorf("failed to create bot: %w", err)
			}

			log.Println("Bot is running...")
			return bot.Run(cmd.Context())
		},
	}
}
