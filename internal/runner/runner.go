package runner

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/projectdiscovery/arpscan/internal/config"
	"github.com/projectdiscovery/arpscan/pkg/client"
	"github.com/projectdiscovery/arpscan/pkg/history"
	"github.com/projectdiscovery/arpscan/pkg/iprange"
	"github.com/projectdiscovery/arpscan/pkg/macvendor"
	"github.com/projectdiscovery/arpscan/pkg/monitor"
	"github.com/projectdiscovery/arpscan/pkg/output"
	"github.com/projectdiscovery/arpscan/pkg/peerdiscovery/arp"
	"github.com/projectdiscovery/arpscan/pkg/peerdiscovery/common"
	"github.com/projectdiscovery/arpscan/pkg/sweep"
	"github.com/projectdiscovery/arpscan/pkg/types"
	"github.com/projectdiscovery/gologger"
)

// Runner contains the internal logic of the program
type Runner struct {
	options  *Options
	rng      *iprange.Range
	resolver arp.Resolver
	vendors  *macvendor.Cache
	history  *history.Store

	out   io.Writer
	outMu sync.Mutex
	now   func() time.Time
}

// NewRunner validates options and prepares every collaborator of a run. The
// returned error is an *ExitError.
func NewRunner(options *Options) (*Runner, error) {
	if err := options.Validate(); err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}

	rng, err := iprange.Parse(options.IPRange)
	if err != nil {
		return nil, &ExitError{Code: ExitInvalidRange, Err: err}
	}
	if cidrs, err := rng.CIDRs(); err == nil {
		gologger.Verbose().Msgf("Range %s covers %s (%s)", rng, english.Plural(int(rng.Count()), "address", "addresses"), joinNetworks(cidrs))
	}

	if err := arp.Supported(); err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	resolver, err := arp.New(arp.Options{
		Method:    options.Method,
		Interface: options.Interface,
		Timeout:   options.Timeout,
	})
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	cachePath, err := cfg.VendorCachePath()
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	fetcher := macvendor.NewHTTPFetcher(cfg.Vendor.URL, client.New(cfg.Vendor.FetchTimeout))
	vendors := macvendor.New(cachePath, fetcher, macvendor.WithStaleAfter(cfg.Vendor.StaleAfter))

	r := &Runner{
		options:  options,
		rng:      rng,
		resolver: resolver,
		vendors:  vendors,
		out:      os.Stdout,
		now:      time.Now,
	}

	if options.HistoryPath != "" {
		store, err := history.Open(options.HistoryPath)
		if err != nil {
			return nil, exitError(ExitOutput, "could not open history %s: %w", options.HistoryPath, err)
		}
		r.history = store
		r.logLatestScan()
	}

	r.checkLocalNetworks()
	return r, nil
}

// Close releases the history database
func (r *Runner) Close() error {
	if r.history != nil {
		return r.history.Close()
	}
	return nil
}

// Scan performs a single sweep and reports it
func (r *Runner) Scan(ctx context.Context) error {
	r.initializeVendors(ctx)

	_, code := r.cycle(ctx, nil)
	if code != ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

// Monitor sweeps repeatedly and reports changes between consecutive sweeps
// until ctx is cancelled or a sweep fails
func (r *Runner) Monitor(ctx context.Context) error {
	r.initializeVendors(ctx)

	loop := &monitor.Loop{
		Delay:     r.options.delay(),
		Cycle:     r.cycle,
		Countdown: r.countdown,
	}
	if code := loop.Run(ctx); code != ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

func (r *Runner) initializeVendors(ctx context.Context) {
	r.vendors.Initialize(ctx, r.options.Silent)
	if r.vendors.Len() == 0 {
		gologger.Verbose().Msgf("Vendor database %s is empty, every vendor is %s", r.vendors.Path(), macvendor.Unknown)
		return
	}
	gologger.Verbose().Msgf("Vendor database %s holds %s entries updated %s", r.vendors.Path(), humanize.Comma(int64(r.vendors.Len())), humanize.Time(r.vendors.LastUpdate()))
}

// cycle sweeps the range, reports the result and persists configured outputs.
// An interrupted sweep is neither reported nor persisted.
func (r *Runner) cycle(ctx context.Context, previous *types.Snapshot) (*types.Snapshot, int) {
	if !r.options.Silent {
		r.println(au.Yellow("Starting scan..."))
	}

	opts := r.options.sweepOptions()
	opts.OnAttemptError = func(addr netip.Addr, attempt int, err error) {
		gologger.Warning().Msgf("Failed to lookup MAC address for %s (attempt %d): %s", addr, attempt, err)
	}
	digits := len(strconv.FormatUint(r.rng.Count(), 10))
	snapshot, err := sweep.Run(ctx, r.rng, r.resolver, r.vendors.Lookup, opts, func(p sweep.Progress) {
		r.progress(p, digits)
	})
	if err != nil {
		if ctx.Err() != nil {
			gologger.Info().Msgf("Scan interrupted, discarding partial results")
			return previous, ExitOK
		}
		gologger.Error().Msgf("Could not run sweep: %s", err)
		return nil, ExitUsage
	}
	if !r.options.Silent {
		r.println()
	}

	var changes *monitor.Changes
	if previous != nil {
		diff := monitor.Diff(snapshot, previous)
		changes = &diff
	}
	r.report(snapshot, changes)

	return snapshot, r.persist(ctx, snapshot, changes)
}

func (r *Runner) progress(p sweep.Progress, digits int) {
	percent := 100 * float64(p.Processed) / float64(p.Total)
	line := fmt.Sprintf("Progress: %*d/%d [%6.2f%%] | %8s: %s", digits, p.Processed, p.Total, percent, p.Outcome, p.Address)
	if p.Outcome == types.Active {
		r.println(au.Green(line))
	} else {
		r.println(au.Red(line))
	}
}

// report prints the result table. The table is printed even in silent mode.
func (r *Runner) report(snapshot *types.Snapshot, changes *monitor.Changes) {
	hosts := snapshot.Hosts

	if changes != nil {
		switch {
		case changes.Empty():
			if !r.options.Silent {
				r.println(au.Yellow("No changes since the previous scan"))
			}
		default:
			r.render("New hosts:", changes.Added)
			r.render("Removed hosts:", changes.Removed)
		}
	} else {
		r.render("Active hosts:", hosts)
	}

	if r.options.Silent {
		return
	}
	if len(hosts) == 0 {
		r.println(au.Red("No active hosts found"))
		return
	}
	r.println()
	r.println(au.Green("Found " + english.Plural(len(hosts), "active host", "")))
}

func (r *Runner) render(title string, hosts []types.HostRecord) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	if err := output.Render(r.out, title, hosts, !r.options.NoColor); err != nil {
		gologger.Warning().Msgf("Could not render table: %s", err)
	}
}

// persist writes every configured output and returns ExitOutput when any of
// them failed. Remaining outputs are still attempted after a failure.
func (r *Runner) persist(ctx context.Context, snapshot *types.Snapshot, changes *monitor.Changes) int {
	code := ExitOK
	if !r.options.Silent && (r.options.JSONPath != "" || r.options.CSVPath != "") {
		r.println()
	}

	if r.options.JSONPath != "" {
		path := output.UniquePath(r.options.JSONPath, r.now())
		if err := output.WriteJSON(path, snapshot, changes); err != nil {
			gologger.Error().Msgf("Failed to save JSON to '%s': %s", path, err)
			code = ExitOutput
		} else if !r.options.Silent {
			r.println(au.Green(fmt.Sprintf("Saved JSON to '%s'", path)))
		}
	}

	if r.options.CSVPath != "" {
		path := output.UniquePath(r.options.CSVPath, r.now())
		if err := output.WriteCSV(path, snapshot.Hosts); err != nil {
			gologger.Error().Msgf("Failed to save CSV to '%s': %s", path, err)
			code = ExitOutput
		} else if !r.options.Silent {
			r.println(au.Green(fmt.Sprintf("Saved CSV to '%s'", path)))
		}
	}

	if r.history != nil {
		// A completed sweep is recorded even when shutdown started meanwhile
		if err := r.history.Save(context.WithoutCancel(ctx), snapshot); err != nil {
			gologger.Error().Msgf("Failed to save scan to history '%s': %s", r.options.HistoryPath, err)
			code = ExitOutput
		} else if count, err := r.history.Count(ctx); err == nil {
			gologger.Verbose().Msgf("Saved scan %s to history (%s recorded)", snapshot.ID, english.Plural(count, "scan", ""))
		}
	}
	return code
}

// logLatestScan prints the most recent scan recorded in the history
func (r *Runner) logLatestScan() {
	latest, err := r.history.Latest(context.Background())
	if err != nil {
		gologger.Warning().Msgf("Could not read history %s: %s", r.options.HistoryPath, err)
		return
	}
	if latest == nil {
		gologger.Verbose().Msgf("History %s is empty", r.options.HistoryPath)
		return
	}
	gologger.Verbose().Msgf("Last recorded scan %s found %s %s", latest.ID, english.Plural(len(latest.Hosts), "active host", ""), humanize.Time(latest.TakenAt))
}

func (r *Runner) countdown(remaining time.Duration) {
	if r.options.Silent {
		return
	}
	r.outMu.Lock()
	defer r.outMu.Unlock()
	if remaining <= 0 {
		_, _ = fmt.Fprintf(r.out, "\r%s\r", strings.Repeat(" ", 40))
		return
	}
	seconds := int(remaining.Round(time.Second) / time.Second)
	_, _ = fmt.Fprintf(r.out, "\rNext scan in %s...   ", english.Plural(seconds, "second", ""))
}

// checkLocalNetworks warns when the range is not on a local segment
func (r *Runner) checkLocalNetworks() {
	networks, err := common.LocalNetworks()
	if err != nil || len(networks) == 0 {
		return
	}
	if !common.Covers(networks, r.rng.Start(), r.rng.End()) {
		gologger.Verbose().Msgf("%s is not inside a local network (%s), only on-link hosts can be resolved", r.rng, joinPrefixes(networks))
	}
}

func joinNetworks(networks []*net.IPNet) string {
	parts := make([]string, 0, len(networks))
	for _, network := range networks {
		parts = append(parts, network.String())
	}
	return strings.Join(parts, ", ")
}

func joinPrefixes(networks []netip.Prefix) string {
	parts := make([]string, 0, len(networks))
	for _, network := range networks {
		parts = append(parts, network.String())
	}
	return strings.Join(parts, ", ")
}

func (r *Runner) println(a ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	_, _ = fmt.Fprintln(r.out, a...)
}
