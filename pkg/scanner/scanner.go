// Package scanner runs matchers over sources, files, and directories and
// aggregates the results into reports.
//
// Matchers are synchronous; all fan-out happens here, bounded by
// Config.Concurrency.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/guardian/pkg/enum"
	"github.com/praetorian-inc/guardian/pkg/logger"
	"github.com/praetorian-inc/guardian/pkg/matcher"
	"github.com/praetorian-inc/guardian/pkg/source"
	"github.com/praetorian-inc/guardian/pkg/types"
)

// Config controls scan fan-out and column handling.
type Config struct {
	// Concurrency bounds the number of sources or files scanned at once
	// (0 = number of CPUs).
	Concurrency int

	// IncludeComment scans column comments along with column names.
	IncludeComment bool

	// Logger receives per-unit failures. Defaults to a no-op logger.
	Logger *logger.Logger
}

// Scanner applies a fixed set of matchers, one per catalog.
type Scanner struct {
	matchers []*matcher.Matcher
	config   Config
	logger   *logger.Logger
}

// New creates a scanner. Results of each input are reported catalog by
// catalog, in the order of matchers.
func New(matchers []*matcher.Matcher, config Config) (*Scanner, error) {
	if len(matchers) == 0 {
		return nil, fmt.Errorf("at least one matcher is required")
	}
	if config.Concurrency < 1 {
		config.Concurrency = runtime.NumCPU()
	}
	log := config.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Scanner{
		matchers: matchers,
		config:   config,
		logger:   log.WithComponent("scanner"),
	}, nil
}

// Categories returns the category of every matcher, in order.
func (s *Scanner) Categories() []string {
	categories := make([]string, len(s.matchers))
	for i, m := range s.matchers {
		categories[i] = m.Category()
	}
	return categories
}

// MatchOne returns the result of a single word against every catalog. Unlike
// MatchWords it does not skip the empty word.
func (s *Scanner) MatchOne(word string) []*types.MatchResult {
	results := make([]*types.MatchResult, 0)
	for _, m := range s.matchers {
		if result := m.MatchOne(word); result != nil {
			results = append(results, result)
		}
	}
	return results
}

// MatchWords returns the results of words against every catalog.
func (s *Scanner) MatchWords(words []string) []*types.MatchResult {
	results := make([]*types.MatchResult, 0)
	for _, m := range s.matchers {
		results = append(results, m.MatchMany(words)...)
	}
	return results
}

// ScanWords builds a single-source report for words.
func (s *Scanner) ScanWords(src string, words []string) types.Report {
	return types.NewReport(src, s.MatchWords(words))
}

// ScanBatch scans several named word lists. Report entries follow item order.
func (s *Scanner) ScanBatch(items []Item) types.Report {
	var report types.Report
	for _, item := range items {
		report.Append(s.ScanWords(item.Source, item.Words))
	}
	if report.Results == nil {
		report.Results = []types.ReportResults{}
	}
	return report
}

// ScanFile matches each line of a text file. The file is read once and the
// lines are shared by every catalog.
func (s *Scanner) ScanFile(path string) (types.Report, error) {
	lines, err := matcher.ReadLines(path)
	if err != nil {
		return types.Report{}, err
	}
	return s.ScanWords(path, lines), nil
}

// ScanSource reads the columns of src and matches them. The report source is
// the path of src.
func (s *Scanner) ScanSource(ctx context.Context, src source.Source) (types.Report, error) {
	cols, err := src.Columns(ctx)
	if err != nil {
		return types.Report{}, fmt.Errorf("%s source %s: %w", src.Type(), src.Path(), err)
	}
	return s.ScanWords(src.Path(), source.Words(cols, s.config.IncludeComment)), nil
}

// ScanSources scans every source concurrently. A failing source does not stop
// the others: its error is joined into the returned error and the report
// holds the sources that succeeded, in input order.
func (s *Scanner) ScanSources(ctx context.Context, srcs []source.Source) (types.Report, error) {
	reports := make([]*types.Report, len(srcs))
	errs := make([]error, len(srcs))

	g := new(errgroup.Group)
	g.SetLimit(s.config.Concurrency)
	for i, src := range srcs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			report, err := s.ScanSource(ctx, src)
			if err != nil {
				s.logger.Warn("source scan failed", zap.String("source", src.Path()), zap.Error(err))
				errs[i] = err
				return nil
			}
			reports[i] = &report
			return nil
		})
	}
	_ = g.Wait()

	report := types.Report{Results: []types.ReportResults{}}
	for _, r := range reports {
		if r != nil {
			report.Append(*r)
		}
	}
	return report, errors.Join(errs...)
}

// ScanDirectory scans every eligible text file under config.Root. Report
// entries are sorted by path. Files that cannot be read as text are skipped
// and their errors joined into the returned error; a walk failure or
// cancellation aborts the scan.
func (s *Scanner) ScanDirectory(ctx context.Context, config enum.Config) (types.Report, error) {
	if config.Concurrency < 1 {
		config.Concurrency = s.config.Concurrency
	}

	var (
		mu      sync.Mutex
		entries []types.ReportResults
		errs    []error
	)

	enumerator := enum.NewFilesystemEnumerator(config)
	err := enumerator.Enumerate(ctx, func(path string) error {
		report, err := s.ScanFile(path)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			var ioErr *matcher.IOError
			if !errors.As(err, &ioErr) {
				return err
			}
			s.logger.Debug("skipping file", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
			return nil
		}
		entries = append(entries, report.Results...)
		return nil
	})
	if err != nil {
		return types.Report{}, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Source < entries[j].Source
	})
	if entries == nil {
		entries = []types.ReportResults{}
	}

	s.logger.Debug("directory scanned",
		zap.String("root", config.Root),
		zap.Int("files", len(entries)),
		zap.Int("skipped", len(errs)))

	return types.Report{Results: entries}, errors.Join(errs...)
}
