// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formctl/internal/config"
	"github.com/xkilldash9x/formctl/internal/observability"
)

// app carries the state shared by every subcommand of one root command.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     config.Interface
	logger  *zap.Logger
}

// NewRootCmd builds a fresh command tree. Tests call it to get isolated
// instances; Execute uses it once.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	root := &cobra.Command{
		Use:           "formctl",
		Short:         "formctl validates and submits HTML forms without a browser.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./formctl.yaml)")
	root.PersistentFlags().String("url", "", "document URL used to resolve relative form actions")
	root.PersistentFlags().String("log-level", "", "override logger.level")
	root.PersistentFlags().Bool("no-scripts", false, "do not compile inline on* handler attributes")

	root.AddCommand(newCheckCmd(a), newSubmitCmd(a), newVersionCmd())
	return root
}

// initialize reads configuration, applies flag overrides and installs the logger.
func (a *app) initialize(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		path, err := homedir.Expand(a.cfgFile)
		if err != nil {
			return fmt.Errorf("expanding config path: %w", err)
		}
		a.v.SetConfigFile(path)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("formctl")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	flags := cmd.Flags()
	if err := a.v.BindPFlag("document.url", flags.Lookup("url")); err != nil {
		return err
	}
	if err := a.v.BindPFlag("logger.level", flags.Lookup("log-level")); err != nil {
		return err
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "formctl"})
		return fmt.Errorf("failed to load or validate config: %w", err)
	}
	if noScripts, _ := flags.GetBool("no-scripts"); noScripts {
		cfg.SetFormsScripts(false)
	}
	a.cfg = cfg

	observability.InitializeLogger(cfg.Logger())
	a.logger = observability.GetLogger()
	a.logger.Debug("Configuration loaded", zap.String("config_file", a.v.ConfigFileUsed()))
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	defer observability.Sync()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, ErrInvalidForms) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return 1
	}
	return 0
}
