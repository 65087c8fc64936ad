package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var RootCmd = &cobra.Command{
	Use:   "db-migrate",
	Short: "Copy a relational database into PostgreSQL",
	Long: `
  ____  ____    __  __ ___ ____ ____      _  _____ _____
 |  _ \| __ )  |  \/  |_ _/ ___|  _ \    / \|_   _| ____|
 | | | |  _ \  | |\/| || | |  _| |_) |  / _ \ | | |  _|
 | |_| | |_) | | |  | || | |_| |  _ <  / ___ \| | | |___
 |____/|____/  |_|  |_|___\____|_| \_\/_/   \_\_| |_____|

DB MIGRATE - SQL Server / MySQL / Oracle / PostgreSQL to PostgreSQL
`,
	SilenceUsage: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./db-migrate.yaml)")
	flags.String("database", "", "source database name (default: the source connection's current database)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	viper.BindPFlag("source.database", flags.Lookup("database"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	loadEnvFiles()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		// 3. Home Directory
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(home)
		}

		viper.SetConfigName("db-migrate")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DBMIGRATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match
	setDefaults()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
