package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/projectdiscovery/arpscan/internal/runner"
	"github.com/projectdiscovery/arpscan/pkg/peerdiscovery/arp"
	"github.com/projectdiscovery/arpscan/pkg/version"
	"github.com/projectdiscovery/gologger"
	"github.com/spf13/cobra"
)

func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup close handler
	go func() {
		<-c
		fmt.Println("\r- Ctrl+C pressed in Terminal, Exiting...")
		cancel()
	}()

	code := execute(ctx, os.Args[1:], os.Stderr)
	cancel()
	os.Exit(code)
}

// execute runs the command line and maps its result to a process exit code
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	return exitCode(cmd.ExecuteContext(ctx), stderr)
}

// exitCode maps err to a process exit code. Argument and input errors are
// written to stderr directly so they survive silent mode.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return runner.ExitOK
	}
	code := runner.ExitUsage
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		err = exitErr.Err
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "[ERR] %s\n", err)
	}
	return code
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "arpscan",
		Short:         "Discover hosts on the local network through ARP",
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScanCommand(), newMonitorCommand(), newVersionCommand())
	return root
}

func newScanCommand() *cobra.Command {
	options := runner.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "scan <ip-range>",
		Short: "Scan the specified IP range",
		Example: `  arpscan scan 192.168.1.0/24
  arpscan scan 192.168.1.1-192.168.1.50 --json hosts.json
  arpscan scan 10.0.0.10-20 -r 2 -c 64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(options, args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = r.Close()
			}()
			return r.Scan(cmd.Context())
		},
	}
	bindScanFlags(cmd, options)
	return cmd
}

func newMonitorCommand() *cobra.Command {
	options := runner.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "monitor <ip-range>",
		Short: "Continuously monitor the specified IP range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(options, args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = r.Close()
			}()
			return r.Monitor(cmd.Context())
		},
	}
	bindScanFlags(cmd, options)
	cmd.Flags().IntVarP(&options.Delay, "delay", "d", options.Delay, "delay between each scan in seconds")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version of arpscan",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			gologger.Info().Msgf("Current Version: %s\n", version.GetVersion())
		},
	}
}

func prepare(options *runner.Options, ipRange string) (*runner.Runner, error) {
	options.IPRange = ipRange
	options.ConfigureOutput()
	return runner.NewRunner(options)
}

func bindScanFlags(cmd *cobra.Command, options *runner.Options) {
	flags := cmd.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&options.Silent, "silent", "s", false, "only print the result table")
	flags.IntVarP(&options.Retry, "retry", "r", 0, "number of retries for each ARP request")
	flags.IntVarP(&options.Concurrency, "concurrency", "c", 0, "number of concurrent ARP requests (0 = 256, capped at the range size)")
	flags.StringVar(&options.JSONPath, "json", "", "path to the JSON file to save the results")
	flags.StringVar(&options.CSVPath, "csv", "", "path to the CSV file to save the results")
	flags.StringVar(&options.HistoryPath, "history", "", "path to a SQLite database every scan is appended to")
	flags.StringVarP(&options.Method, "method", "m", options.Method, fmt.Sprintf("resolution method (%s, %s)", arp.MethodTable, arp.MethodArping))
	flags.StringVarP(&options.Interface, "interface", "i", "", "network interface to send ARP requests on (arping only)")
	flags.DurationVarP(&options.Timeout, "timeout", "t", options.Timeout, "timeout of a single ARP request")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output")
	flags.BoolVar(&options.NoColor, "no-color", false, "disable output content coloring (ANSI escape codes)")
}
