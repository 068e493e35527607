package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/internal/profile"
	"github.com/hrygo/ragcontext/server"
)

var version = "0.1.0"

var (
	cfgFile      string
	runExtractor bool

	rootCmd = &cobra.Command{
		Use:   "ragcontext",
		Short: "Answer questions from a folder of documents",
		Long: `ragcontext ingests the documents of a folder into a vector collection and
answers questions grounded on the most similar pages.

Without a subcommand it serves the chat page and the HTTP API.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
		RunE:              runServe,
	}
)

func init() {
	d := profile.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")

	pf.String("mode", d.Mode, `mode of server, can be "prod" or "dev"`)
	pf.String("addr", d.Addr, "address of server")
	pf.Int("port", d.Port, "port of server")
	pf.String("data", d.Data, "data directory")
	pf.String("driver", d.Driver, "vector store driver (sqlite or postgres)")
	pf.String("dsn", d.DSN, "vector store dsn; defaults to <data>/database/ragcontext.db for sqlite")
	pf.String("collection", d.Collection, "vector collection name")
	pf.String("metric", d.Metric, "distance metric (cosine or l2)")
	pf.String("datasources", d.Datasources, "directory of documents to ingest")

	pf.String("embedding-model", d.EmbeddingModel, "embedding model")
	pf.Int("embedding-dimensions", d.EmbeddingDimensions, "embedding dimensions, 0 for the model default")
	pf.String("chat-model", d.ChatModel, "chat completion model")
	pf.Float32("temperature", d.Temperature, "completion temperature")
	pf.Int("max-retries", d.MaxRetries, "attempts per provider call")
	pf.String("persona", d.Persona, "persona line of the system prompt")
	pf.String("intent-classifier", d.IntentClassifier, "intent classifier (rule, llm or layered)")

	pf.Int("history-capacity", d.HistoryCapacity, "turns kept per conversation")
	pf.Int("context-window", d.ContextWindow, "turns replayed into each prompt")
	pf.Int("top-k", d.TopK, "records retrieved per question")
	pf.String("memory-backend", d.MemoryBackend, "conversation memory backend (memory or redis)")
	pf.String("redis-addr", d.RedisAddr, "redis address for the redis memory backend")

	pf.String("tika-url", d.TikaServerURL, "Apache Tika server URL")
	pf.String("tika-jar", d.TikaJarPath, "path to tika-app.jar, used when the server is unreachable")

	pf.Int("max-concurrent-generations", d.MaxConcurrentGenerations, "completions served at once")
	pf.Float64("rate-limit", d.RateLimit, "requests per second per client on /generate")
	pf.Int("rate-burst", d.RateBurst, "burst per client on /generate")

	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text or json)")
	pf.String("log-file", "", "also write logs to this rotating file")

	rootCmd.Flags().BoolVar(&runExtractor, "run-extractor", false, "ingest the datasources directory before serving")

	pf.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if err := viper.BindPFlag(f.Name, f); err != nil {
			panic(err)
		}
	})

	viper.SetEnvPrefix("ragcontext")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// initConfig loads .env and the config file, then installs the logger.
func initConfig(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "failed to load .env")
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", cfgFile)
		}
	}

	slog.SetDefault(observability.NewLogger(observability.LoggerConfig{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
		File:   viper.GetString("log-file"),
	}))
	return nil
}

// loadProfile builds the validated profile from flags, env and config file.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:                     viper.GetString("mode"),
		Addr:                     viper.GetString("addr"),
		Port:                     viper.GetInt("port"),
		Data:                     viper.GetString("data"),
		Driver:                   viper.GetString("driver"),
		DSN:                      viper.GetString("dsn"),
		Collection:               viper.GetString("collection"),
		Metric:                   viper.GetString("metric"),
		Datasources:              viper.GetString("datasources"),
		Version:                  version,
		OpenAIAPIKey:             viper.GetString("openai-api-key"),
		OpenAIBaseURL:            viper.GetString("openai-base-url"),
		EmbeddingModel:           viper.GetString("embedding-model"),
		EmbeddingDimensions:      viper.GetInt("embedding-dimensions"),
		ChatModel:                viper.GetString("chat-model"),
		Temperature:              float32(viper.GetFloat64("temperature")),
		MaxRetries:               viper.GetInt("max-retries"),
		Persona:                  viper.GetString("persona"),
		IntentClassifier:         viper.GetString("intent-classifier"),
		HistoryCapacity:          viper.GetInt("history-capacity"),
		ContextWindow:            viper.GetInt("context-window"),
		TopK:                     viper.GetInt("top-k"),
		MemoryBackend:            viper.GetString("memory-backend"),
		RedisAddr:                viper.GetString("redis-addr"),
		TikaServerURL:            viper.GetString("tika-url"),
		TikaJarPath:              viper.GetString("tika-jar"),
		MaxConcurrentGenerations: viper.GetInt("max-concurrent-generations"),
		RateLimit:                viper.GetFloat64("rate-limit"),
		RateBurst:                viper.GetInt("rate-burst"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, p)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.enableAnswering(ctx); err != nil {
		return err
	}

	if runExtractor {
		report, err := a.ingestRunner(ctx).Ingest(ctx, p.Datasources)
		if err != nil {
			return err
		}
		printReport(cmd, report)
	}

	s := server.NewServer(p, a.answer, a.store, a.metrics)
	if err := s.Start(ctx); err != nil {
		return err
	}
	printGreetings(cmd, p, s.Addr())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-c:
		slog.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}
	s.Shutdown(context.Background())
	return nil
}

func printGreetings(cmd *cobra.Command, p *profile.Profile, addr string) {
	cmd.Printf("ragcontext %s started\n", p.Version)
	cmd.Printf("Data directory: %s\n", p.Data)
	cmd.Printf("Collection: %s (%s, %s)\n", p.Collection, p.Driver, p.Metric)
	cmd.Printf("Chat page: http://%s\n", addr)
	cmd.Printf("Config: %s\n", p)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
