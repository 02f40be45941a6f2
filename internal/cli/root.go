// Package cli contains the commands of the fatstream binary.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aligator/fatstream/fat"
	"github.com/aligator/fatstream/internal/config"
	"github.com/aligator/fatstream/internal/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type ctxKey string

const configCtxKey ctxKey = "config"

// NewRootCommand creates the command tree. All images are opened through fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "fatstream",
		Short:         "fatstream reads and writes files of FAT12, FAT16 and FAT32 images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := log.Configure(cfg.LogLevel); err != nil {
				log.Warn("invalid log level in config, defaulting to info", log.Fields{
					log.FieldError: err.Error(),
				})
			}
			log.Debug("config loaded", log.Fields{
				log.FieldConfigPath: configPath,
			})

			cmd.SetContext(context.WithValue(cmd.Context(), configCtxKey, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (TOML)")
	rootCmd.PersistentFlags().String("log-level", "", "trace, debug, info, warn or error")

	rootCmd.AddCommand(formatCommand(fs))
	rootCmd.AddCommand(lsCommand(fs))
	rootCmd.AddCommand(catCommand(fs))
	rootCmd.AddCommand(putCommand(fs))
	rootCmd.AddCommand(chainCommand(fs))
	rootCmd.AddCommand(sumCommand(fs))

	return rootCmd
}

// getConfig returns the config loaded by the root command.
func getConfig(cmd *cobra.Command) *config.Config {
	if v := cmd.Context().Value(configCtxKey); v != nil {
		if cfg, ok := v.(*config.Config); ok {
			return cfg
		}
	}
	return &config.Config{}
}

// openVolume mounts the image at path. The returned volume has to be closed.
func openVolume(fs afero.Fs, path string, writable bool) (*fat.Volume, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	device, err := fs.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}

	v, err := fat.Open(device)
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return v, nil
}
