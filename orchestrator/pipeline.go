package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	cfg "github.com/phonlab/tgpipe/config"
	"github.com/phonlab/tgpipe/textgrid"
)

type Pipeline struct {
	cfg      *cfg.Root
	log      logrus.FieldLogger
	dec      *textgrid.Decoder
	opts     textgrid.Options
	classify *Classifier
	pattern  *regexp.Regexp
}

func NewPipeline(c *cfg.Root, log logrus.FieldLogger) (*Pipeline, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	dec, err := textgrid.NewDecoder(c.Extract.Encodings...)
	if err != nil {
		return nil, err
	}
	pattern, err := regexp.Compile(c.Batch.Pattern)
	if err != nil {
		return nil, fmt.Errorf("file pattern: %w", err)
	}
	return &Pipeline{
		cfg:      c,
		log:      log,
		dec:      dec,
		opts:     c.Options(),
		classify: NewClassifier(c.Classify.Tables, c.Classify.StripFirstFallback),
		pattern:  pattern,
	}, nil
}

type fileResult struct {
	all     []Record
	records []Record
	status  textgrid.Status
	err     *DocumentError
}

// Collect extracts the target tier from every matching document of dir. A
// document that fails is recorded in Batch.Failures and the rest carry on;
// only cancellation or an unreadable dir stops the batch.
func (p *Pipeline) Collect(ctx context.Context, dir string) (*Batch, error) {
	files, err := discover(dir, p.pattern)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{"dir": dir, "files": len(files), "tier": p.cfg.Extract.Tier}).Info("discovered documents")

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Batch.Workers)
	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := &Batch{Dir: dir}
	for i, f := range files {
		name := filepath.Base(f)
		b.Files = append(b.Files, name)
		r := results[i]
		switch {
		case r.err != nil:
			b.Failures = append(b.Failures, *r.err)
		case r.status == textgrid.StatusTierNotFound:
			b.Skipped = append(b.Skipped, name)
		case r.status == textgrid.StatusEmptyTier:
			b.Empty = append(b.Empty, name)
		default:
			b.Intervals = append(b.Intervals, r.all...)
			b.Records = append(b.Records, r.records...)
		}
	}
	return b, nil
}

func (p *Pipeline) processFile(path string) fileResult {
	name := filepath.Base(path)
	log := p.log.WithField("file", name)

	res, err := textgrid.ExtractFile(path, p.cfg.Extract.Tier, p.dec, p.opts)
	if err != nil {
		code := ErrorCode(err)
		log.WithField("code", code).WithError(err).Warn("document failed")
		return fileResult{err: &DocumentError{File: name, Code: code, Err: err}}
	}
	switch res.Status {
	case textgrid.StatusTierNotFound:
		log.WithField("tier", res.Tier).Warn("tier not found")
		return fileResult{status: res.Status}
	case textgrid.StatusEmptyTier:
		log.WithField("tier", res.Tier).Info("tier is empty")
		return fileResult{status: res.Status}
	}

	all := make([]Record, 0, len(res.Intervals))
	records := make([]Record, 0, len(res.Intervals))
	for _, iv := range res.Intervals {
		r := Record{File: name, Interval: iv}
		if iv.Label.Valid {
			r.Classes = p.classify.Classify(iv.Key())
		}
		all = append(all, r)
		if p.cfg.Batch.DropAbsent && !iv.Label.Valid {
			continue
		}
		records = append(records, r)
	}
	log.WithFields(logrus.Fields{"intervals": len(all), "kept": len(records)}).Debug("document parsed")
	return fileResult{all: all, records: records, status: res.Status}
}

// Stats summarizes b once per configured grouping.
func (p *Pipeline) Stats(b *Batch) []StatRow {
	groupBy := p.cfg.Stats.GroupBy
	if len(groupBy) == 0 {
		groupBy = []string{GroupBySymbol}
	}
	var rows []StatRow
	for _, g := range groupBy {
		rows = append(rows, Summarize(b.Records, g, p.cfg.Stats.Precision)...)
	}
	return rows
}

// Run extracts every document of dir, summarizes the intervals and writes the
// session outputs under paths.outputs.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Summary, error) {
	b, err := p.Collect(ctx, dir)
	if err != nil {
		return nil, err
	}
	rows := p.Stats(b)

	runID, sessionDir, err := persist(p.cfg.Paths.Outputs, p.runInfo(), b, rows, p.classify.Tables())
	if err != nil {
		return nil, err
	}

	s := &Summary{
		RunID:      runID,
		SessionDir: sessionDir,
		Files:      len(b.Files),
		Parsed:     len(b.Files) - len(b.Failures) - len(b.Skipped),
		Intervals:  len(b.Records),
		Skipped:    b.Skipped,
		Empty:      b.Empty,
		Failures:   b.Failures,
		Stats:      rows,
	}
	p.log.WithFields(logrus.Fields{
		"run_id":    s.RunID,
		"session":   s.SessionDir,
		"files":     s.Files,
		"intervals": s.Intervals,
		"skipped":   len(s.Skipped),
		"failed":    len(s.Failures),
	}).Info("run finished")
	return s, nil
}

func (p *Pipeline) runInfo() runInfo {
	return runInfo{Tier: p.cfg.Extract.Tier, Mode: p.opts.Mode.String(), GroupBy: p.cfg.Stats.GroupBy}
}
