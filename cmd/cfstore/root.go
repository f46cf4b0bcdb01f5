// cmd/cfstore/root.go
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cfstore/pkg/pager"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "cfstore",
	Short: "cfstore",
	Long:  "cfstore inspects and manipulates paged compound file stores directly from the command line",

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetLevel(logrus.DebugLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file of store options")
	rootCmd.PersistentFlags().String("backend", "file", "storage backend: file or mmap")
	rootCmd.PersistentFlags().Bool("verify-on-read", false, "validate each page checksum while reading")
	rootCmd.PersistentFlags().Bool("flush-at-write", false, "fsync durably after every mutating command")
	rootCmd.PersistentFlags().Bool("no-write-cache", false, "fsync durably after every mutating command, write-through")

	rootCmd.AddCommand(createCmd, allocCmd, writeCmd, readCmd, freeCmd, verifyCmd, statCmd)
}

// resolveOptions merges an optional --config file with the command's own
// flags, flags taking precedence only where the user actually set them.
func resolveOptions(cmd *cobra.Command) (pager.Options, error) {
	opts := pager.Options{Logger: log}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		fc, err := loadFileConfig(path)
		if err != nil {
			return opts, err
		}
		if fc.Backend == "mmap" {
			opts.Backend = pager.BackendMmap
		}
		opts.VerifyOnRead = fc.VerifyOnRead
		opts.FlushAtWrite = fc.FlushAtWrite
	}

	if cmd.Flags().Changed("backend") {
		opts.Backend = pager.BackendFile
		if backend, _ := cmd.Flags().GetString("backend"); backend == "mmap" {
			opts.Backend = pager.BackendMmap
		}
	}
	if cmd.Flags().Changed("verify-on-read") {
		opts.VerifyOnRead, _ = cmd.Flags().GetBool("verify-on-read")
	}
	if cmd.Flags().Changed("flush-at-write") {
		opts.FlushAtWrite, _ = cmd.Flags().GetBool("flush-at-write")
	}
	if v, _ := cmd.Flags().GetBool("no-write-cache"); v {
		cache := false
		opts.UseWriteCache = &cache
	}

	return opts, nil
}
