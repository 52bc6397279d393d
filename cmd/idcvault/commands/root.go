package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	idcerrors "github.com/yairfalse/idcvault/internal/errors"
	"github.com/yairfalse/idcvault/internal/logger"
	"github.com/yairfalse/idcvault/pkg/config"
)

var (
	cfgFile string
	cfg     *config.Config
	log     logger.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idcvault",
		Short: "Back up and diff AWS IAM Identity Center",
		Long: `idcvault captures point-in-time backups of an AWS IAM Identity Center
instance and shows what changed between any two of them.

A backup holds users, groups with their members, permission sets with
their policies, and account assignments. Backups are stored locally or
in S3.

  idcvault backup create        # capture the current state
  idcvault backup list          # list stored backups
  idcvault diff                 # compare the two most recent backups
  idcvault diff a b -o html     # compare two backups as an HTML report`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				runVersion(cmd, []string{})
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return initConfig()
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.idcvault/config.yaml)")
	flags.String("profile", "", "AWS shared config profile")
	flags.String("region", "", "AWS region of the Identity Center instance")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.StringP("output", "o", "console", "output format (console, json, yaml, csv, html)")
	flags.Bool("no-color", false, "disable colored output")
	flags.Bool("version", false, "show version information")

	// Bind flags to viper
	viper.BindPFlag("aws.profile", flags.Lookup("profile"))
	viper.BindPFlag("aws.region", flags.Lookup("region"))
	viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	viper.BindPFlag("output.format", flags.Lookup("output"))
	viper.BindPFlag("output.no_color", flags.Lookup("no-color"))

	// Add subcommands
	cmd.AddCommand(newBackupCommand())
	cmd.AddCommand(newDiffCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// exitError carries a non-zero exit status without an error message
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}

	idcerrors.DisplayError(err)
	os.Exit(idcerrors.GetExitCode(err))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return idcerrors.ConfigError(err)
	}

	if err := loaded.Validate(); err != nil {
		return idcerrors.ConfigError(err)
	}

	l, err := logger.New(logger.Options{
		Level:  loaded.Logging.Level,
		Format: loaded.Logging.Format,
	})
	if err != nil {
		return idcerrors.ConfigError(err)
	}

	cfg = loaded
	log = l
	return nil
}

// GetConfig returns the loaded configuration, or defaults before initConfig runs
func GetConfig() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

func getLogger() logger.Logger {
	if log == nil {
		log = logger.NewDiscard()
	}
	return log
}
