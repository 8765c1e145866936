package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/percona/percona-dbcopy-mongodb/clone"
	"github.com/percona/percona-dbcopy-mongodb/config"
	"github.com/percona/percona-dbcopy-mongodb/errors"
	"github.com/percona/percona-dbcopy-mongodb/log"
	"github.com/percona/percona-dbcopy-mongodb/metrics"
	"github.com/percona/percona-dbcopy-mongodb/sel"
	"github.com/percona/percona-dbcopy-mongodb/topo"
	"github.com/percona/percona-dbcopy-mongodb/util"
)

// ServerReadHeaderTimeout bounds header reads on the metrics listener.
const ServerReadHeaderTimeout = 3 * time.Second

// contextKey is a type for context keys used in this package.
type contextKey string

// configContextKey is the context key for storing *config.Config.
const configContextKey contextKey = "config"

var (
	Version   = "v0.3.0" //nolint:gochecknoglobals
	Platform  = ""       //nolint:gochecknoglobals
	GitCommit = ""       //nolint:gochecknoglobals
	GitBranch = ""       //nolint:gochecknoglobals
	BuildTime = ""       //nolint:gochecknoglobals
)

func buildVersion() string {
	return Version + " " + GitCommit + " " + BuildTime
}

//nolint:gochecknoglobals
var rootCmd = &cobra.Command{
	Use:   "pdcm",
	Short: "Percona DBCopy for MongoDB database copy tool",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return errors.Wrap(err, "load config")
		}

		logLevel, err := zerolog.ParseLevel(cfg.Log.Level)
		if err != nil {
			logLevel = zerolog.InfoLevel
		}

		lg := log.InitGlobals(logLevel, cfg.Log.JSON, cfg.Log.NoColor)
		ctx := lg.WithContext(cmd.Context())
		ctx = context.WithValue(ctx, configContextKey, cfg)
		cmd.SetContext(ctx)

		if cmd.Name() != "version" {
			log.Ctx(ctx).Info("Percona DBCopy for MongoDB " + buildVersion())
		}

		return nil
	},
}

//nolint:gochecknoglobals
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		info := fmt.Sprintf("Version:   %s\nPlatform:  %s\nGitCommit: "+
			"%s\nGitBranch: %s\nBuildTime: %s\nGoVersion: %s",
			Version,
			Platform,
			GitCommit,
			GitBranch,
			BuildTime,
			runtime.Version(),
		)

		cmd.Println(info)
	},
}

//nolint:gochecknoglobals
var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Clone a database directly between two MongoDB deployments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := ctx.Value(configContextKey).(*config.Config) //nolint:forcetypeassert

		err := config.ValidateClone(cfg)
		if err != nil {
			return err
		}

		source, err := connect(ctx, "source", cfg.Source, cfg)
		if err != nil {
			return err
		}
		defer disconnect(ctx, "source", source)

		target, err := connect(ctx, "target", cfg.Target, cfg)
		if err != nil {
			return err
		}
		defer disconnect(ctx, "target", target)

		res := runOperation(ctx, cfg, func(ctx context.Context, eng *clone.Engine) *clone.Result {
			return eng.DirectClone(ctx, cfg.SourceDB, cfg.ResolvedTargetDB())
		}, source, target)

		return operationError(res)
	},
}

//nolint:gochecknoglobals
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump a database to a directory of Extended JSON line files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := ctx.Value(configContextKey).(*config.Config) //nolint:forcetypeassert

		err := config.ValidateDump(cfg)
		if err != nil {
			return err
		}

		source, err := connect(ctx, "source", cfg.Source, cfg)
		if err != nil {
			return err
		}
		defer disconnect(ctx, "source", source)

		res := runOperation(ctx, cfg, func(ctx context.Context, eng *clone.Engine) *clone.Result {
			return eng.Dump(ctx, cfg.DB, cfg.Dir)
		}, source, nil)

		return operationError(res)
	},
}

//nolint:gochecknoglobals
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a database from a dump directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := ctx.Value(configContextKey).(*config.Config) //nolint:forcetypeassert

		err := config.ValidateRestore(cfg)
		if err != nil {
			return err
		}

		target, err := connect(ctx, "target", cfg.Target, cfg)
		if err != nil {
			return err
		}
		defer disconnect(ctx, "target", target)

		res := runOperation(ctx, cfg, func(ctx context.Context, eng *clone.Engine) *clone.Result {
			return eng.Restore(ctx, cfg.DB, cfg.Dir)
		}, nil, target)

		return operationError(res)
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output log in JSON format")
	rootCmd.PersistentFlags().Bool("log-no-color", false, "Disable log color")

	rootCmd.PersistentFlags().Int("batch-size", config.DefaultBatchSize,
		"Number of pending upserts flushed as one batch")
	rootCmd.PersistentFlags().Bool("no-uri-cleanup", false,
		"Disable stripping of the trailing dot before the port in connection strings")
	rootCmd.PersistentFlags().String("metrics-listen", "",
		"Address serving Prometheus /metrics during the operation (e.g. localhost:2250)")

	rootCmd.PersistentFlags().StringSlice("include-collections", nil,
		"Collections to include (default: all non-system collections)")
	rootCmd.PersistentFlags().StringSlice("exclude-collections", nil,
		"Collections to exclude")

	rootCmd.PersistentFlags().String("mongodb-operation-timeout",
		config.DefaultMongoDBOperationTimeout.String(),
		"Timeout for MongoDB operations (e.g., 30s, 5m)")

	cloneCmd.Flags().String("source", "", "MongoDB connection string for the source")
	cloneCmd.Flags().String("target", "", "MongoDB connection string for the target")
	cloneCmd.Flags().String("source-db", "", "Source database name")
	cloneCmd.Flags().String("target-db", "", "Target database name (default: source database name)")

	dumpCmd.Flags().String("source", "", "MongoDB connection string for the source")
	dumpCmd.Flags().String("db", "", "Database name")
	dumpCmd.Flags().String("dir", "", "Output directory for dump files")

	restoreCmd.Flags().String("target", "", "MongoDB connection string for the target")
	restoreCmd.Flags().String("db", "", "Database name")
	restoreCmd.Flags().String("dir", "", "Input directory with dump files")

	rootCmd.AddCommand(
		versionCmd,
		cloneCmd,
		dumpCmd,
		restoreCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		zerolog.Ctx(context.Background()).Fatal().Err(err).Msg("")
	}
}

// connect resolves one side of the operation, logging the server version
// on success. Failure aborts the entire run.
func connect(
	ctx context.Context,
	side, uri string,
	cfg *config.Config,
) (*mongo.Client, error) {
	client, err := topo.Connect(ctx, uri, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", side)
	}

	version, err := topo.ServerVersion(ctx, client)
	if err != nil {
		_ = client.Disconnect(ctx)

		return nil, errors.Wrapf(err, "%s version", side)
	}

	log.Ctx(ctx).Infof("Connected to %s [%s]", side, version)

	return client, nil
}

func disconnect(ctx context.Context, side string, client *mongo.Client) {
	err := util.CtxWithTimeout(ctx, config.DisconnectTimeout, client.Disconnect)
	if err != nil {
		log.Ctx(ctx).Warnf("Disconnect %s: %s", side, err.Error())
	}
}

// runOperation builds the engine and runs op, serving /metrics alongside
// it when configured. Progress lines are logged as they are emitted.
func runOperation(
	ctx context.Context,
	cfg *config.Config,
	op func(ctx context.Context, eng *clone.Engine) *clone.Result,
	source, target *mongo.Client,
) *clone.Result {
	registry := prometheus.NewRegistry()
	metrics.Init(registry)

	progressLog := log.New("progress")

	eng := clone.New(source, target, &clone.Options{
		BatchSize: cfg.BatchSize,
		Filter:    sel.MakeFilter(cfg.IncludeCollections, cfg.ExcludeCollections),
		OnProgress: func(line string) {
			progressLog.Info(line)
		},
	})

	var srv *http.Server

	grp := errgroup.Group{}

	if cfg.MetricsListen != "" {
		srv = &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: ServerReadHeaderTimeout,
		}

		grp.Go(func() error {
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}

			return errors.Wrap(err, "metrics listener")
		})

		log.Ctx(ctx).Infof("Serving metrics at http://%s/metrics", cfg.MetricsListen)
	}

	res := op(ctx, eng)

	if srv != nil {
		err := util.CtxWithTimeout(ctx, config.DisconnectTimeout, srv.Shutdown)
		if err == nil {
			err = grp.Wait()
		}

		if err != nil {
			log.Ctx(ctx).Warn("Metrics listener: " + err.Error())
		}
	}

	return res
}

// operationError maps a Result to the command error. The engine already
// logged the "ERROR: ..." line; the returned error sets the exit status.
func operationError(res *clone.Result) error {
	if res.Status == 0 {
		return nil
	}

	return res.Err
}
