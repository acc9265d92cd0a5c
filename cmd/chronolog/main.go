package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/chronolog/internal/logging"
	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/internal/version"
	"github.com/hrygo/chronolog/plugin/ai/logparse"
	"github.com/hrygo/chronolog/plugin/ai/router"
	"github.com/hrygo/chronolog/server"
	"github.com/hrygo/chronolog/server/middleware"
	"github.com/hrygo/chronolog/server/timezone"
	"github.com/hrygo/chronolog/store"
	"github.com/hrygo/chronolog/store/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:           "chronolog",
		Short:         "Log what you did in plain words.",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver, sqlite or postgres")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("instance-url", "", "the url of your chronolog instance")
	flags.String("timezone", "", "default timezone of requests without an offset")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "instance-url", "timezone"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	v.SetEnvPrefix("chronolog")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(newParseCmd(v), newTokenCmd(v), newVersionCmd(v))
	return rootCmd
}

// loadProfile builds the profile from flags, CHRONOLOG_* variables and defaults.
func loadProfile(v *viper.Viper) *profile.Profile {
	p := &profile.Profile{
		Mode:            v.GetString("mode"),
		Addr:            v.GetString("addr"),
		Port:            v.GetInt("port"),
		Data:            v.GetString("data"),
		Driver:          v.GetString("driver"),
		DSN:             v.GetString("dsn"),
		InstanceURL:     v.GetString("instance-url"),
		DefaultTimezone: v.GetString("timezone"),
	}
	p.FromEnv()
	p.Version = version.GetCurrentVersion(p.Mode)
	return p
}

func runServe(ctx context.Context, v *viper.Viper) error {
	p := loadProfile(v)
	logging.Init(p.LogFormat, logging.ParseLevel(p.LogLevel))
	if err := p.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return errors.Wrap(err, "failed to create db driver")
	}
	storeInstance := store.New(dbDriver, p)
	if err := storeInstance.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate")
	}

	s, err := server.NewServer(ctx, p, storeInstance)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}
	if err := s.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start server")
	}
	printGreetings(p)

	<-ctx.Done()
	s.Shutdown(context.Background())
	return nil
}

func newParseCmd(v *viper.Viper) *cobra.Command {
	var (
		now     string
		lastEnd string
		offset  int
		tz      string
		useLLM  bool
	)
	cmd := &cobra.Command{
		Use:   "parse MESSAGE",
		Short: "Route a message and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := logparse.RouteContext{}
			current := time.Now().UTC()
			if now != "" {
				t, err := time.Parse(time.RFC3339, now)
				if err != nil {
					return errors.Wrap(err, "invalid --now")
				}
				current = t.UTC()
			}
			rc.CurrentTime = &current
			if lastEnd != "" {
				t, err := time.Parse(time.RFC3339, lastEnd)
				if err != nil {
					return errors.Wrap(err, "invalid --last-end")
				}
				rc.LastEventEndTime = &t
			}

			var explicit *int
			if cmd.Flags().Changed("offset") {
				explicit = &offset
			}
			resolved, err := timezone.ResolveOffset(explicit, tz, "UTC", current)
			if err != nil {
				return err
			}
			rc.UTCOffsetMinutes = &resolved

			message := strings.Join(args, " ")
			if !useLLM {
				return writeJSON(cmd, logparse.RouteRequest(message, rc))
			}

			p := loadProfile(v)
			logging.Init(p.LogFormat, logging.ParseLevel(p.LogLevel))
			rt, closeRouter, err := router.NewServiceFromProfile(p)
			if err != nil {
				return err
			}
			defer closeRouter()
			decision, err := rt.Route(cmd.Context(), message, rc)
			if err != nil {
				return err
			}
			return writeJSON(cmd, decision)
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "current time, RFC 3339 (default: wall clock)")
	cmd.Flags().StringVar(&lastEnd, "last-end", "", "end of the previous event, RFC 3339")
	cmd.Flags().IntVar(&offset, "offset", 0, "UTC offset of the user in minutes")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone of the user, used when --offset is not set")
	cmd.Flags().BoolVar(&useLLM, "llm", false, "interpret tier-2 results with the configured LLM")
	return cmd
}

func newTokenCmd(v *viper.Viper) *cobra.Command {
	var (
		userID int32
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token signed with CHRONOLOG_JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := loadProfile(v)
			if p.JWTSecret == "" {
				return errors.New("CHRONOLOG_JWT_SECRET is not set")
			}
			token, err := middleware.GenerateAccessToken(p.JWTSecret, userID, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int32Var(&userID, "user", middleware.DefaultUserID, "user id of the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "lifetime of the token")
	return cmd
}

func newVersionCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetCurrentVersion(v.GetString("mode")))
		},
	}
}

// writeJSON prints v indented. Decisions are flattened to their wire form.
func writeJSON(cmd *cobra.Command, v any) error {
	if d, ok := v.(*router.Decision); ok {
		v = struct {
			Route          logparse.RouteResult   `json:"route"`
			Interpretation *router.Interpretation `json:"interpretation,omitempty"`
			Cached         bool                   `json:"cached"`
		}{d.Result, d.Interpretation, d.Cached}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printGreetings(p *profile.Profile) {
	slog.Info("chronolog started",
		"version", p.Version,
		"mode", p.Mode,
		"driver", p.Driver,
		"port", p.Port,
		"llm", p.IsAIEnabled())
	fmt.Printf("Server running on port %d\n", p.Port)
	if p.IsDev() {
		fmt.Printf("Data directory: %s\n", p.Data)
	}
}
