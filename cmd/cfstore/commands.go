// cmd/cfstore/commands.go
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"cfstore/pkg/pager"
)

var createCmd = &cobra.Command{
	Use:   "create <store-file>",
	Short: "create a new empty store file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := pager.Open(args[0], opts)
		if err != nil {
			return err
		}
		defer s.Close()
		log.WithField("chapters", s.ChapterCount()).Info("store created")
		return nil
	},
}

var allocCmd = &cobra.Command{
	Use:   "alloc <store-file> <size>",
	Short: "allocate a new stream of the given byte size and print its handle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", args[1], err)
		}

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := pager.Open(args[0], opts)
		if err != nil {
			return err
		}
		defer s.Close()

		h, err := s.Allocate(uint32(size))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <store-file> <handle>",
	Short: "overwrite a stream's entire contents with stdin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := parseHandle(args[1])
		if err != nil {
			return err
		}

		data, err := readAllStdin()
		if err != nil {
			return err
		}

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := pager.Open(args[0], opts)
		if err != nil {
			return err
		}
		defer s.Close()

		return s.Write(handle, data)
	},
}

var readCmd = &cobra.Command{
	Use:   "read <store-file> <handle>",
	Short: "print a stream's full contents to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := parseHandle(args[1])
		if err != nil {
			return err
		}

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := pager.Open(args[0], opts)
		if err != nil {
			return err
		}
		defer s.Close()

		data, err := s.ReadAll(handle)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var freeCmd = &cobra.Command{
	Use:   "free <store-file> <handle>",
	Short: "release a stream's pages back to the free list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := parseHandle(args[1])
		if err != nil {
			return err
		}

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := pager.Open(args[0], opts)
		if err != nil {
			return err
		}
		defer s.Close()

		return s.Free(handle)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <store-file> [handle...]",
	Short: "scan every page's checksum and report corruption",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var live []pager.Handle
		for _, a := range args[1:] {
			h, err := parseHandle(a)
			if err != nil {
				return err
			}
			live = append(live, h)
		}

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := pager.Open(args[0], opts)
		if err != nil {
			return err
		}
		defer s.Close()

		report, err := s.Validate(live)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pages scanned: %d\n", report.TotalPages)
		fmt.Fprintf(out, "checksum failures: %d\n", len(report.ChecksumFailures))
		fmt.Fprintf(out, "free list length: %d\n", report.FreeListLength)
		fmt.Fprintf(out, "orphan pages: %d\n", len(report.OrphanPages))
		if !report.OK() {
			log.Warn("store failed validation")
			os.Exit(1)
		}
		return nil
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <store-file> <handle>",
	Short: "print a stream's byte length",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := parseHandle(args[1])
		if err != nil {
			return err
		}

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := pager.Open(args[0], opts)
		if err != nil {
			return err
		}
		defer s.Close()

		length, err := s.GetLength(handle)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), length)
		return nil
	},
}

func parseHandle(s string) (pager.Handle, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid handle %q: %w", s, err)
	}
	return pager.Handle(v), nil
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
