package ingest

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/riskmap/internal/model"
)

// Options configures Load.
type Options struct {
	Sheet       string        // XLSX sheet name; first sheet when empty
	FTPTimeout  time.Duration // timeout for ftp:// sources
	HTTPTimeout time.Duration // timeout for http(s):// sources
}

// Stats summarizes one load.
type Stats struct {
	Rows          int
	Records       int
	SkippedRows   int // rows without a region name
	MalformedYear int
}

// Load reads records from a local CSV/XLSX file or an ftp:// or http(s)://
// URL. The format is chosen by file extension.
func Load(ctx context.Context, src string, opts Options) ([]model.Record, error) {
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "ftp://"):
		return loadRemote(ctx, src, opts, NewFTPFetcher(opts.FTPTimeout))
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return loadRemote(ctx, src, opts, NewHTTPFetcher(opts.HTTPTimeout))
	}

	switch strings.ToLower(filepath.Ext(src)) {
	case ".csv", ".txt":
		f, err := os.Open(src)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", src)
		}
		defer f.Close() //nolint:errcheck
		records, stats, err := LoadCSV(ctx, f)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: load %s", src)
		}
		logStats(src, stats)
		return records, nil

	case ".xlsx":
		records, stats, err := LoadXLSX(src, opts.Sheet)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: load %s", src)
		}
		logStats(src, stats)
		return records, nil

	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(src))
	}
}

type downloader interface {
	DownloadToFile(ctx context.Context, rawURL, path string) (int64, error)
}

func loadRemote(ctx context.Context, src string, opts Options, d downloader) ([]model.Record, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: parse %s", src)
	}
	ext := path.Ext(u.Path)
	tmp, err := os.CreateTemp("", "riskmap-*"+ext)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create temp file")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath) //nolint:errcheck

	n, err := d.DownloadToFile(ctx, src, tmpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: download %s", src)
	}
	zap.L().Info("ingest: downloaded", zap.String("url", src), zap.Int64("bytes", n))

	return Load(ctx, tmpPath, opts)
}

// LoadCSV parses CSV rows (header first) into records.
func LoadCSV(ctx context.Context, r io.Reader) ([]model.Record, Stats, error) {
	rowCh, errCh := StreamCSV(ctx, r, CSVOptions{LazyQuotes: true})

	p := &rowParser{}
	var parseErr error
	for row := range rowCh {
		if parseErr != nil {
			continue // drain
		}
		parseErr = p.add(row)
	}
	if err := <-errCh; err != nil {
		return nil, p.stats, err
	}
	if parseErr != nil {
		return nil, p.stats, parseErr
	}
	return p.finish()
}

// LoadXLSX parses an XLSX sheet (header first) into records.
func LoadXLSX(filePath, sheet string) ([]model.Record, Stats, error) {
	rows, err := ReadXLSX(filePath, XLSXOptions{SheetName: sheet})
	if err != nil {
		return nil, Stats{}, err
	}

	p := &rowParser{}
	for _, row := range rows {
		if err := p.add(row); err != nil {
			return nil, p.stats, err
		}
	}
	return p.finish()
}

// rowParser converts source rows into records once the header is resolved.
type rowParser struct {
	header     Header
	haveHeader bool
	records    []model.Record
	stats      Stats
}

func (p *rowParser) add(row []string) error {
	if !p.haveHeader {
		if isBlank(row) {
			return nil
		}
		h, err := ResolveHeader(row)
		if err != nil {
			return err
		}
		p.header, p.haveHeader = h, true
		return nil
	}

	if isBlank(row) {
		return nil
	}
	p.stats.Rows++

	region := p.header.Field(row, ColRegion)
	if model.NormalizeRegion(region) == "" {
		p.stats.SkippedRows++
		return nil
	}

	year, ok := parseYear(p.header.Field(row, ColYear))
	if !ok {
		p.stats.MalformedYear++
	}

	p.records = append(p.records, model.NewRecord(
		region,
		year,
		p.header.Field(row, ColGender),
		p.header.Field(row, ColAge),
		p.header.Field(row, ColCases),
	))
	return nil
}

func (p *rowParser) finish() ([]model.Record, Stats, error) {
	if !p.haveHeader {
		return nil, p.stats, eris.New("ingest: no header row")
	}
	p.stats.Records = len(p.records)
	return p.records, p.stats, nil
}

// parseYear accepts "2023" and spreadsheet-style "2023.0". Failures yield 0.
func parseYear(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func logStats(src string, s Stats) {
	zap.L().Info("ingest: loaded records",
		zap.String("source", src),
		zap.Int("rows", s.Rows),
		zap.Int("records", s.Records),
		zap.Int("skipped_rows", s.SkippedRows),
		zap.Int("malformed_year", s.MalformedYear),
	)
}
