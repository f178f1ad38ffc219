// Package cli implements the ngsiadmin command tree.
//
// On the root command --fetch, --delete, --upload and --generate can be
// combined in one invocation and run in that order. A failing operation is
// logged and the next one still runs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iudanet/ngsiadmin/internal/client/api"
	"github.com/iudanet/ngsiadmin/internal/client/auth"
	"github.com/iudanet/ngsiadmin/internal/client/entities"
	"github.com/iudanet/ngsiadmin/internal/client/iocli"
	"github.com/iudanet/ngsiadmin/internal/config"
	"github.com/iudanet/ngsiadmin/internal/generator"
	"github.com/iudanet/ngsiadmin/internal/logging"
	"github.com/iudanet/ngsiadmin/internal/metrics"
)

// DefaultConfigPath is the config file used when --config is not given.
const DefaultConfigPath = "config_file.json"

// BuildInfo содержит информацию о версии, выставляемую через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// options содержит значения флагов
type options struct {
	configPath  string
	entityType  string
	service     string
	metadata    string
	metricsFile string
	upload      []string
	attrs       []string
	min         uint16
	max         uint16
	batchSize   uint16
	interval    uint16
	fetch       bool
	delete      bool
	generate    bool
	keyValues   bool
	yes         bool
	debug       bool
}

// Cli хранит зависимости одного запуска команды
type Cli struct {
	io        iocli.IO
	logOut    io.Writer
	logger    *slog.Logger
	entities  *entities.Service
	generator *generator.Generator
	metrics   *metrics.Metrics
	now       func() time.Time
	opts      options
}

// New creates the CLI state. Logs are written to logOut.
func New(ioCli iocli.IO, logOut io.Writer) *Cli {
	return &Cli{
		io:        ioCli,
		logOut:    logOut,
		logger:    logging.Discard(),
		generator: generator.New(),
		now:       time.Now,
	}
}

// generatorFlags нельзя использовать без --generate
var generatorFlags = []string{"min", "max", "batch-size", "interval", "metadata", "yes"}

// NewRootCommand builds the command tree.
func (c *Cli) NewRootCommand(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "ngsiadmin",
		Short: "Admin tool for NGSI v2 context brokers",
		Long: `ngsiadmin fetches, uploads, updates and deletes entities of an NGSI v2
context broker and generates synthetic time series for testing.`,
		Example: `  ngsiadmin -c config_file.json --fetch --type Room
  ngsiadmin -c config_file.json --delete --type SimpleTimeSeries
  ngsiadmin -c config_file.json -u rooms.json -u sensors.json
  ngsiadmin -c config_file.json -g -m 10 -M 20 -b 50 -t WaterLevel --metadata location.json
  ngsiadmin -c config_file.json query urn:ngsi-ld:Room:001 temperature`,
		Version:       fmt.Sprintf("%s (built %s, commit %s)", info.Version, info.BuildDate, info.GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runRoot,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.opts.configPath, "config", "c", DefaultConfigPath, "Path to config file")
	pf.StringVarP(&c.opts.service, "service", "s", "", "Name of the Fiware-Service tenant")
	pf.BoolVar(&c.opts.keyValues, "key-values", false, "Send entities in keyValues mode")
	pf.BoolVar(&c.opts.debug, "debug", false, "Enable debug output")
	pf.StringVar(&c.opts.metricsFile, "metrics-file", "", "Write prometheus metrics of the run to this file")

	f := root.Flags()
	f.BoolVarP(&c.opts.fetch, "fetch", "f", false, "Fetches all entities of a given type (all entities if no type specified)")
	f.StringVarP(&c.opts.entityType, "type", "t", "", "Specifies the type of the entity to be fetched, deleted or generated")
	f.StringSliceVar(&c.opts.attrs, "attrs", nil, "Attributes to fetch (comma separated or repeated)")
	f.BoolVarP(&c.opts.delete, "delete", "d", false, "Delete all the entities of the given type (all entities if no type given)")
	f.StringArrayVarP(&c.opts.upload, "upload", "u", nil, "Path to JSON file with an array of entities to upload. Can be specified multiple times")
	f.BoolVarP(&c.opts.generate, "generate", "g", false, "Generates random time series data")
	f.Uint16VarP(&c.opts.min, "min", "m", 0, "Minimum value for random data")
	f.Uint16VarP(&c.opts.max, "max", "M", 100, "Maximum value (exclusive) for random data")
	f.Uint16VarP(&c.opts.batchSize, "batch-size", "b", 100, "Number of data points to generate")
	f.Uint16Var(&c.opts.interval, "interval", 1, "Minutes between generated data points")
	f.StringVar(&c.opts.metadata, "metadata", "", "Path to JSON file with fields merged into every generated entity")
	f.BoolVarP(&c.opts.yes, "yes", "y", false, "Upload generated data without asking")

	root.AddCommand(c.newQueryCommand(), c.newUpdateCommand())
	return root
}

// runRoot выполняет выбранные операции по порядку: fetch, delete, upload, generate
func (c *Cli) runRoot(cmd *cobra.Command, _ []string) error {
	if !c.opts.fetch && !c.opts.delete && len(c.opts.upload) == 0 && !c.opts.generate {
		return cmd.Help()
	}

	if !c.opts.generate {
		var misused string
		cmd.Flags().Visit(func(f *pflag.Flag) {
			if misused == "" && slices.Contains(generatorFlags, f.Name) {
				misused = f.Name
			}
		})
		if misused != "" {
			return fmt.Errorf("flag --%s requires --generate", misused)
		}
	}

	ctx := cmd.Context()
	if err := c.setup(ctx); err != nil {
		return err
	}
	defer c.writeMetrics()

	var failed []string
	if c.opts.fetch {
		if err := c.runFetch(ctx); err != nil {
			failed = append(failed, "fetch")
		}
	}
	if c.opts.delete {
		if err := c.runDelete(ctx); err != nil {
			failed = append(failed, "delete")
		}
	}
	for _, path := range c.opts.upload {
		if err := c.runUpload(ctx, path); err != nil {
			failed = append(failed, "upload "+path)
		}
	}
	if c.opts.generate {
		if err := c.runGenerate(ctx); err != nil {
			failed = append(failed, "generate")
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("operations failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

// setup загружает конфигурацию и собирает клиент брокера
func (c *Cli) setup(ctx context.Context) error {
	c.logger = logging.New(c.logOut, c.opts.debug)

	cfg, err := config.Load(c.opts.configPath)
	if err != nil {
		c.logger.Error("Could not load configuration file", "path", c.opts.configPath, "error", err)
		return fmt.Errorf("failed to load config: %w", err)
	}

	service := c.opts.service
	if service == "" {
		service = cfg.Client.Service
	}

	token, err := c.resolveToken(cfg.Client.Token)
	if err != nil {
		return err
	}
	c.checkToken(token)

	c.metrics = metrics.New()
	apiClient := api.NewClient(cfg.Client.Endpoint, token,
		api.WithService(service),
		api.WithTimeout(cfg.Client.Timeout),
		api.WithRateLimit(cfg.Client.RateLimit),
		api.WithLogger(c.logger),
		api.WithMetrics(c.metrics),
	)
	c.entities = entities.NewService(apiClient, c.logger)

	c.logger.Debug("Client configured",
		"platform", cfg.Platform,
		"endpoint", cfg.Client.Endpoint,
		"service", service,
	)
	return nil
}

// resolveToken возвращает токен из конфигурации или запрашивает его в терминале
func (c *Cli) resolveToken(token string) (string, error) {
	if token != "" {
		return token, nil
	}
	if !c.io.IsTerminal() {
		return "", errors.New("config.token is empty and stdin is not a terminal")
	}

	token, err := c.io.ReadPassword("X-Auth-Token: ")
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("token cannot be empty")
	}
	return token, nil
}

// checkToken предупреждает об истекшем JWT. Непрозрачные токены не проверяются.
func (c *Cli) checkToken(token string) {
	info, err := auth.InspectToken(token)
	if err != nil {
		c.logger.Debug("Token is not inspectable", "reason", err)
		return
	}
	if info.Expired(c.now()) {
		c.logger.Warn("Configured token has expired, the broker will likely reject requests",
			"expires_at", info.ExpiresAt.Format(time.RFC3339),
			"subject", info.Subject,
		)
	}
}

// writeMetrics пишет метрики запуска, если задан --metrics-file
func (c *Cli) writeMetrics() {
	if c.opts.metricsFile == "" || c.metrics == nil {
		return
	}
	if err := c.metrics.WriteTextfile(c.opts.metricsFile); err != nil {
		c.logger.Error("Failed to write metrics", "path", c.opts.metricsFile, "error", err)
	}
}
