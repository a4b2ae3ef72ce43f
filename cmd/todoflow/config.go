package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/server"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration file",
	}
	cmd.AddCommand(configPathCmd(), configShowCmd(), configInitCmd(), configSetCmd())
	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(viper.GetString("config"))
		},
	}
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			entries := configEntries(cfg)
			if viper.GetBool("json") {
				out := make(map[string]string, len(entries))
				for _, kv := range entries {
					out[kv[0]] = kv[1]
				}
				return printJSON(out)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"KEY", "VALUE"})
			for _, kv := range entries {
				tw.AppendRow(table.Row{kv[0], kv[1]})
			}
			tw.Render()
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("config")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := model.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting, e.g. 'config set remote.base_url https://tasks.example.com'",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			path := viper.GetString("config")
			if err := model.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

// configEntries lists the settings in file order. Secrets are masked.
func configEntries(cfg *model.AppConfig) [][2]string {
	return [][2]string{
		{"storage.path", cfg.Storage.Path},
		{"storage.slot", cfg.Storage.Slot},
		{"remote.base_url", cfg.Remote.BaseURL},
		{"remote.api_key", mask(cfg.Remote.APIKey)},
		{"remote.timeout_sec", strconv.Itoa(cfg.Remote.TimeoutSec)},
		{"display.default_sort", cfg.Display.DefaultSort},
		{"display.default_direction", cfg.Display.DefaultDirection},
		{"server.addr", cfg.Server.Addr},
		{"server.driver", cfg.Server.Driver},
		{"server.dsn", cfg.Server.DSN},
		{"server.jwt_secret", mask(cfg.Server.JWTSecret)},
		{"server.api_key", mask(cfg.Server.APIKey)},
		{"server.token_ttl_min", strconv.Itoa(cfg.Server.TokenTTLMin)},
		{"log.level", cfg.Log.Level},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// setConfigValue assigns value to the setting named key, validating enums
// and numbers.
func setConfigValue(cfg *model.AppConfig, key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s must be a positive number", key)
		}
		return n, nil
	}

	switch key {
	case "storage.path":
		cfg.Storage.Path = value
	case "storage.slot":
		cfg.Storage.Slot = value
	case "remote.base_url":
		cfg.Remote.BaseURL = value
	case "remote.api_key":
		cfg.Remote.APIKey = value
	case "remote.timeout_sec":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.Remote.TimeoutSec = n
	case "display.default_sort":
		if !model.SortKey(value).Valid() {
			return fmt.Errorf("unknown sort key %q", value)
		}
		cfg.Display.DefaultSort = value
	case "display.default_direction":
		if value != string(model.SortAsc) && value != string(model.SortDesc) {
			return errors.New("direction must be asc or desc")
		}
		cfg.Display.DefaultDirection = value
	case "server.addr":
		cfg.Server.Addr = value
	case "server.driver":
		if value != server.DriverSQLite && value != server.DriverPostgres {
			return errors.New("driver must be sqlite or postgres")
		}
		cfg.Server.Driver = value
	case "server.dsn":
		cfg.Server.DSN = value
	case "server.jwt_secret":
		cfg.Server.JWTSecret = value
	case "server.api_key":
		cfg.Server.APIKey = value
	case "server.token_ttl_min":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.Server.TokenTTLMin = n
	case "log.level":
		cfg.Log.Level = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
