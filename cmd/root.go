package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/AnyUserName/img2ascii-cli/internal/config"
	"github.com/AnyUserName/img2ascii-cli/internal/device"
	"github.com/AnyUserName/img2ascii-cli/internal/engine"
	"github.com/AnyUserName/img2ascii-cli/internal/kernel"
	"github.com/AnyUserName/img2ascii-cli/internal/logging"
	"github.com/AnyUserName/img2ascii-cli/internal/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version      = "0.1.0"
	verbose      bool
	envFile      string
	logFile      string
	profilesFile string
	deviceName   string
	lanes        int

	cfg      = &config.Config{Profile: config.DefaultProfile}
	logger   = zap.NewNop()
	profiles = profile.NewSet()
)

var rootCmd = &cobra.Command{
	Use:   "img2ascii",
	Short: "Turn images into monospace text art",
	Long: `img2ascii converts raster images into text where every character
stands for the brightness of one image region.

Each output character is computed by an independent kernel invocation,
dispatched in threadgroups across all available cores.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command, cancelling its context on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer func() { _ = logger.Sync() }()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file with IMG2ASCII_* defaults")
	pf.StringVar(&logFile, "log-file", "", "also write JSON logs to this file (rotated)")
	pf.StringVar(&profilesFile, "profiles", "", "YAML file with custom profiles")
	pf.StringVar(&deviceName, "device", "", "compute device (see 'img2ascii devices')")
	pf.IntVar(&lanes, "lanes", 0, "threadgroups run at once on the host device (0 = GOMAXPROCS)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"img2ascii %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// setup loads configuration, builds the logger and loads custom profiles.
// Flags take precedence over the environment.
func setup(_ *cobra.Command, _ []string) error {
	c, err := config.Load(envFile)
	if err != nil {
		return err
	}
	cfg = c
	if logFile == "" {
		logFile = cfg.LogFile
	}
	if profilesFile == "" {
		profilesFile = cfg.ProfilesFile
	}
	if deviceName == "" {
		deviceName = cfg.Device
	}
	if lanes <= 0 {
		lanes = cfg.Lanes
	}

	logger, err = logging.New(logging.Options{Verbose: verbose, FilePath: logFile})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if profilesFile != "" {
		s, err := profile.LoadFile(profilesFile)
		if err != nil {
			return err
		}
		profiles = s
		logVerbose("profiles: %s", profilesFile)
	}
	return nil
}

// resolveProfile picks the named profile, or the configured default.
func resolveProfile(name string) profile.Profile {
	if name == "" {
		name = cfg.Profile
	}
	return profiles.Get(name)
}

func newRegistry() *device.Registry {
	return device.HostRegistry(lanes)
}

// newEngine creates an engine on the selected device.
func newEngine(src kernel.Source) (*engine.Engine, error) {
	e, err := engine.Create(engine.Options{
		Registry:   newRegistry(),
		DeviceName: deviceName,
		Kernel:     src,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return e, nil
}

// logVerbose logs a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	logger.Sugar().Debugf(format, args...)
}
