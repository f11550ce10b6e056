package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/botgpt/internal/profile"
	"github.com/hrygo/botgpt/server"
	"github.com/hrygo/botgpt/store"
	"github.com/hrygo/botgpt/store/db"
)

const version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:   "botgpt",
		Short: "A conversation API in front of an OpenAI-compatible language model.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
)

// loadProfile reads BOTGPT_* variables first, then applies flags, which win.
func loadProfile() *profile.Profile {
	p := &profile.Profile{Version: version}
	p.FromEnv()

	// Viper resolves flag > env > default for these keys.
	p.Mode = viper.GetString("mode")
	p.Addr = viper.GetString("addr")
	p.Port = viper.GetInt("port")
	p.Data = viper.GetString("data")
	p.Driver = viper.GetString("driver")
	if dsn := viper.GetString("dsn"); dsn != "" {
		p.DSN = dsn
	}
	if model := viper.GetString("llm-model"); model != "" {
		p.LLMModel = model
	}
	if redisURL := viper.GetString("redis-url"); redisURL != "" {
		p.RedisURL = redisURL
	}
	return p
}

func run(parent context.Context) error {
	instanceProfile := loadProfile()
	if err := instanceProfile.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		slog.Error("failed to create db driver", "error", err)
		return err
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		slog.Error("failed to migrate", "error", err)
		_ = storeInstance.Close()
		return err
	}

	s, err := server.NewServer(ctx, instanceProfile, storeInstance)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		_ = storeInstance.Close()
		return err
	}
	if err := s.Start(ctx); err != nil {
		slog.Error("failed to start server", "error", err)
		s.Shutdown(context.Background())
		return err
	}
	printGreetings(instanceProfile)

	<-ctx.Done()
	s.Shutdown(context.Background())
	return nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("data", ".")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver, sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("llm-model", "", "chat completion model name")
	rootCmd.PersistentFlags().String("redis-url", "", "redis URL; empty uses the in-memory cache")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "llm-model", "redis-url"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("botgpt")
	viper.AutomaticEnv()
	for key, env := range map[string]string{"llm-model": "BOTGPT_LLM_MODEL", "redis-url": "BOTGPT_REDIS_URL"} {
		if err := viper.BindEnv(key, env); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(serveCmd)
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("botgpt %s started successfully!\n", profile.Version)
	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Model: %s\n", profile.LLMModel)
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Accessing botgpt at http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on address %s and port %d\n", profile.Addr, profile.Port)
		fmt.Printf("Accessing botgpt at http://%s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
