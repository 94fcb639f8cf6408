package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crowbar-packages/internal/app"
	"crowbar-packages/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "CROWBAR_PACKAGES"

type RootConfig struct {
	ConfigFile   string
	LogLevel     string
	Type         string
	Dest         string
	ValidateOnly bool
}

func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
// Every failure maps to 1, and so does an explicit --help.
func run(args []string, stdout io.Writer, stderr io.Writer) int {
	root := newRootCommand()
	helpShown := false
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpShown = true
		defaultHelp(cmd, args)
	})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		reportError(stderr, err)
		return exitCodeForError(err)
	}
	if helpShown {
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "crowbar-packages [flags] <module-dir>...",
		Short:         "Validate and package Crowbar barclamps",
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(resolveString(cmd, cfg.LogLevel, "log_level", "log-level"), cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(cmd, cfg, args)
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&cfg.Type, "type", string(types.BackendArchive), "Package type (archive, rpm, deb)")
	cmd.Flags().StringVar(&cfg.Dest, "dest", ".", "Destination directory for built packages")
	cmd.Flags().BoolVar(&cfg.ValidateOnly, "validate-only", false, "Stop after schema and data validation")
	return cmd
}

func runPackage(cmd *cobra.Command, cfg RootConfig, args []string) error {
	backend, err := types.ParseBackend(resolveString(cmd, cfg.Type, "type", "type"))
	if err != nil {
		return err
	}
	dest := resolveString(cmd, cfg.Dest, "dest", "dest")
	if strings.TrimSpace(dest) == "" {
		dest = "."
	}
	service := app.NewService(app.Config{
		BaseDir:             viper.GetString("base_dir"),
		Dest:                dest,
		PackagePrefix:       viper.GetString("package_prefix"),
		CoreBarclamp:        viper.GetString("core_barclamp"),
		TempDir:             viper.GetString("temp_dir"),
		TarBin:              viper.GetString("tar_bin"),
		RpmbuildBin:         viper.GetString("rpmbuild_bin"),
		DpkgBuildpackageBin: viper.GetString("dpkg_buildpackage_bin"),
	})
	ctx := log.Logger.WithContext(cmdContext(cmd))
	_, err = service.Package(ctx, app.PackageRequest{
		Barclamps:    args,
		Backend:      backend,
		ValidateOnly: resolveBool(cmd, cfg.ValidateOnly, "validate_only", "validate-only"),
	})
	return err
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("crowbar-packages")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/crowbar-packages")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read config file").
			WithCause(err)
	}
	return nil
}

func setupLogging(level string, out io.Writer) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// reportError prints validation problems one per line and anything else
// as a single error line.
func reportError(w io.Writer, err error) {
	var failure *types.ValidationFailure
	if errors.As(err, &failure) {
		for _, validationErr := range failure.Errors {
			fmt.Fprintln(w, validationErr.String())
		}
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
