package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kiliankoe/faceoff/internal/ai"
	"github.com/kiliankoe/faceoff/internal/ai/cognitive"
	"github.com/kiliankoe/faceoff/internal/ai/ollama"
	"github.com/kiliankoe/faceoff/internal/api"
	"github.com/kiliankoe/faceoff/internal/config"
	"github.com/kiliankoe/faceoff/internal/game"
	"github.com/kiliankoe/faceoff/internal/telemetry"
	"github.com/kiliankoe/faceoff/internal/ws"
	staticserver "github.com/kiliankoe/faceoff/static"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "dev" // Set at build time via -ldflags

const envHelp = `Environment Variables:
  PORT                    Port to listen on (default: 8080)
  SCORING_PROVIDER        Emotion service: "cognitive" or "ollama" (default: cognitive)
  EMOTION_API_KEY         Emotion API subscription key (required for cognitive)
  EMOTION_ENDPOINT        Emotion API base URL
  OLLAMA_HOST             Ollama host URL (default: http://localhost:11434)
  OLLAMA_MODEL            Ollama vision model (default: llava)
  PLAYER1_NAME            Name shown for player 1 (default: Player 1)
  PLAYER2_NAME            Name shown for player 2 (default: Player 2)
  PHOTO_REVEAL_ANIMATION  Photo reveal animation length (default: 400ms)
  SCORE_REVEAL_ANIMATION  Score button animation length (default: 400ms)
  HOST_USER               Host page username for basic auth
  HOST_PASS               Host page password for basic auth
  SINGLE_SESSION          Allow only one active session (default: true)
  DEMO_MODE               Accept sample photos over the socket (default: false)
  MAX_PHOTO_BYTES         Upload size limit (default: 8388608)
  OTEL_ENDPOINT           OTLP/HTTP endpoint for traces (optional)
  LOG_LEVEL               zerolog level (default: info)

A .env file in the working directory is loaded first if present.`

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cobra.CheckErr(newCmd().ExecuteContext(ctx))
}

func newCmd() *cobra.Command {
	var port, logLevel string

	cmd := &cobra.Command{
		Use:           "faceoff",
		Short:         "FaceOff - two-player emotion selfie game",
		Long:          "FaceOff - two-player emotion selfie game\n\n" + envHelp,
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVarP(&port, "port", "p", "", "port to listen on (overrides PORT)")
	fs.StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("FaceOff {{.Version}}\n")
	return cmd
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(cw)
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func newScorer(cfg config.Config) ai.Scorer {
	switch cfg.ScoringProvider {
	case "ollama":
		return ollama.New(cfg.OllamaHost, cfg.OllamaModel)
	default:
		if cfg.EmotionAPIKey == "" {
			log.Warn().Msg("EMOTION_API_KEY is not set; every photo will score as Error")
		}
		return cognitive.New(cfg.EmotionAPIKey, cfg.EmotionEndpoint)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	setupLogging(cfg.LogLevel)

	shutdownTracing, err := telemetry.Setup(ctx, "faceoff", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("tracing shutdown")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.RequestLogger())

	rm := game.NewRoomManager(cfg.SingleSession)
	sock := ws.New(rm, cfg, newScorer(cfg), telemetry.New(log.Logger))
	io := sock.Mount(r)
	defer io.Close()

	a := api.New(rm, sock, cfg)
	a.Register(r)

	// Host-protected routes (serves the SPA index behind basic auth)
	if auth := a.HostAuth(); auth != nil {
		serveIndex := func(c *gin.Context) {
			staticserver.Handler().ServeHTTP(c.Writer, c.Request)
		}
		r.GET("/host", auth, serveIndex)
		r.GET("/host/*any", auth, serveIndex)
	}

	// Serve frontend for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("port", cfg.Port).Str("provider", cfg.ScoringProvider).Str("version", version).Msg("listening")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
