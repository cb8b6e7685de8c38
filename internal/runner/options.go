package runner

import (
	"fmt"
	"time"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/arpscan/pkg/monitor"
	"github.com/projectdiscovery/arpscan/pkg/peerdiscovery/arp"
	"github.com/projectdiscovery/arpscan/pkg/sweep"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
)

var au = aurora.New(aurora.WithColors(true))

// Options contains the configuration options for a scan or monitor run
type Options struct {
	IPRange     string
	Silent      bool
	Verbose     bool
	NoColor     bool
	Retry       int
	Concurrency int
	JSONPath    string
	CSVPath     string
	HistoryPath string
	Method      string
	Interface   string
	Timeout     time.Duration

	// Delay is the pause between monitor cycles in seconds
	Delay int
}

// DefaultOptions returns the options used when no flag is given
func DefaultOptions() *Options {
	return &Options{
		Method:  arp.MethodTable,
		Timeout: sweep.DefaultTimeout,
		Delay:   int(monitor.DefaultDelay / time.Second),
	}
}

// Validate checks flag values that cobra cannot
func (options *Options) Validate() error {
	if options.Retry < 0 {
		return fmt.Errorf("retry must not be negative: %d", options.Retry)
	}
	if options.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", options.Timeout)
	}
	if options.Delay < 0 {
		return fmt.Errorf("delay must not be negative: %d", options.Delay)
	}
	switch options.Method {
	case "", arp.MethodTable, arp.MethodArping:
	default:
		return fmt.Errorf("unknown method %q, expected %s or %s", options.Method, arp.MethodTable, arp.MethodArping)
	}
	if options.Interface != "" && options.Method != arp.MethodArping {
		return fmt.Errorf("interface can only be used with the %s method", arp.MethodArping)
	}
	return nil
}

// ConfigureOutput configures the output on the screen
func (options *Options) ConfigureOutput() {
	// If the user desires verbose output, show verbose output
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		au = aurora.New(aurora.WithColors(false))
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

func (options *Options) sweepOptions() sweep.Options {
	return sweep.Options{
		Concurrency: options.Concurrency,
		Retries:     options.Retry,
		Timeout:     options.Timeout,
		Silent:      options.Silent,
	}
}

func (options *Options) delay() time.Duration {
	if options.Delay <= 0 {
		return monitor.DefaultDelay
	}
	return time.Duration(options.Delay) * time.Second
}
