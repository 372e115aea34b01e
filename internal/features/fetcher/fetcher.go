package fetcher

import (
	"context"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/connectors"

	"go.uber.org/zap"
)

// MaxRecords bounds a single FetchAll so a runaway filter cannot pull an
// entire source system into memory.
const MaxRecords = 10000

const defaultPageSize = 100

// QueryConfig describes the records to fetch.
type QueryConfig struct {
	Module         string
	Filter         []connectors.Predicate
	Fields         []string
	PageSize       int
	OrderBy        string
	OrderDirection string
}

// Page is handed to the per-page callback.
type Page struct {
	Number  int
	Offset  int
	Records []map[string]any
	HasMore bool
}

// Result holds every record fetched across pages.
type Result struct {
	Records      []map[string]any
	TotalFetched int
	Pages        int
	Truncated    bool
}

type Fetcher struct {
	client connectors.SourceClient
	logger *zap.Logger
	limit  int
}

func New(client connectors.SourceClient, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger, limit: MaxRecords}
}

// FetchAll walks the source pages sequentially starting at offset 0. Any page
// error discards everything fetched so far.
func (f *Fetcher) FetchAll(ctx context.Context, cfg QueryConfig, onPage func(Page)) (*Result, error) {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := &Result{}
	offset := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, errs.E(errs.KindTransport, "fetcher.fetch_all", err)
		}

		resp, err := f.client.Query(ctx, connectors.QueryRequest{
			Module:         cfg.Module,
			Filter:         cfg.Filter,
			Fields:         cfg.Fields,
			PageSize:       pageSize,
			Offset:         offset,
			OrderBy:        cfg.OrderBy,
			OrderDirection: cfg.OrderDirection,
		})
		if err != nil {
			return nil, err
		}

		result.Pages++
		result.Records = append(result.Records, resp.Records...)
		result.TotalFetched = len(result.Records)

		f.logger.Debug("Fetched page",
			zap.String("module", cfg.Module),
			zap.Int("page", result.Pages),
			zap.Int("offset", offset),
			zap.Int("records", len(resp.Records)),
			zap.Bool("has_more", resp.HasMore))

		if onPage != nil {
			onPage(Page{Number: result.Pages, Offset: offset, Records: resp.Records, HasMore: resp.HasMore})
		}

		if !resp.HasMore {
			break
		}

		if result.TotalFetched > f.limit {
			f.logger.Warn("Record limit exceeded, stopping fetch",
				zap.String("module", cfg.Module),
				zap.Int("fetched", result.TotalFetched),
				zap.Int("limit", f.limit))
			result.Truncated = true
			break
		}

		if resp.NextOffset <= offset {
			return nil, errs.Errorf(errs.KindTransport, "fetcher.fetch_all",
				"source returned non-advancing next_offset %d at offset %d", resp.NextOffset, offset)
		}
		offset = resp.NextOffset
	}

	return result, nil
}
