package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/qrstudio/qrstudio/internal/config"
	"github.com/qrstudio/qrstudio/internal/decode"
	"github.com/qrstudio/qrstudio/internal/generator"
	"github.com/qrstudio/qrstudio/internal/handlers"
	"github.com/qrstudio/qrstudio/internal/preview"
	"github.com/qrstudio/qrstudio/internal/session"
)

var version = "v0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "qrstudio",
		Short: "Generate, preview and save QR codes",
	}

	// --- serve command -------------------------------------------------------
	var configPath string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the QR generator form on localhost",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	root.AddCommand(serveCmd)

	// --- generate command ----------------------------------------------------
	var (
		genLevel      string
		genModuleSize int
		genFg, genBg  string
		genLogo       string
		genOutput     string
		genFormat     string
		genTerm       bool
	)
	generateCmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Generate a QR code and write it to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args[0], genLevel, genModuleSize, genFg, genBg, genLogo, genOutput, genFormat, genTerm)
		},
	}
	generateCmd.Flags().StringVarP(&genLevel, "level", "l", "medium", "Error correction level (low, medium, quartile, high)")
	generateCmd.Flags().IntVarP(&genModuleSize, "module-size", "s", generator.DefaultModuleSize,
		fmt.Sprintf("Pixels per module (%d-%d)", generator.MinModuleSize, generator.MaxModuleSize))
	generateCmd.Flags().StringVar(&genFg, "fg", "", "Foreground color as #RRGGBB")
	generateCmd.Flags().StringVar(&genBg, "bg", "", "Background color as #RRGGBB or 'transparent'")
	generateCmd.Flags().StringVar(&genLogo, "logo", "", "Center logo image (.svg, .png or .jpg)")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "qrcode.png", "Destination file")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "", "Output format (png or jpeg; default from extension)")
	generateCmd.Flags().BoolVarP(&genTerm, "term", "t", false, "Also print an ASCII preview to the terminal")
	root.AddCommand(generateCmd)

	// --- decode command ------------------------------------------------------
	decodeCmd := &cobra.Command{
		Use:   "decode [image]",
		Short: "Decode the QR code in an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := decode.ScanFile(args[0])
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
	root.AddCommand(decodeCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qrstudio %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runServe starts the local web form.
func runServe(configPath string) error {
	// .env is optional; real environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Static("/web/static", "web/static")
	r.LoadHTMLGlob("web/templates/*.html")

	h := handlers.New(cfg, log)
	h.Register(r)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("qrstudio listening", "addr", srv.Addr, "output_dir", cfg.OutputDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}
	return nil
}

// runGenerate is the headless generate-and-save path. It runs the same
// generator and session the web form uses.
func runGenerate(text, level string, moduleSize int, fg, bg, logoPath, output, format string, term bool) error {
	svc := generator.New()
	img, err := svc.Generate(generator.Request{
		Text:       text,
		Level:      generator.ParseLevel(level),
		ModuleSize: moduleSize,
		Foreground: fg,
		Background: bg,
		LogoPath:   logoPath,
	})
	if err != nil {
		return err
	}

	if term {
		ascii, err := preview.Terminal(img.Text, img.Level)
		if err != nil {
			return err
		}
		fmt.Print(ascii)
	}

	sess := session.New()
	sess.SetGenerated(img)
	path, err := sess.SaveTo(output, format)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %dx%d QR code (%s) to %s\n", img.Dimension, img.Dimension, img.Level, path)
	return nil
}

// newLogger builds the application logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}
