package virk

import (
	"context"
	"log/slog"
)

// Searcher is the transport used by Service. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, creds Credentials, body []byte) ([]byte, error)
}

var _ Searcher = (*Client)(nil)

// Service combines the query builder, the search client and the extractor
// into the three lookups offered by the register.
type Service struct {
	builder  *QueryBuilder
	searcher Searcher
	logger   *slog.Logger
}

func NewService(builder *QueryBuilder, searcher Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		builder:  builder,
		searcher: searcher,
		logger:   logger,
	}
}

// SearchByNameAndAddress looks up a legal entity by name and address and
// succeeds only if the register answers with exactly one hit. Otherwise the
// error is a *NoMatchError carrying the search name.
func (s *Service) SearchByNameAndAddress(ctx context.Context, p Params) (*Record, error) {
	hits, err := s.search(ctx, QueryNameAddress, p)
	if err != nil {
		return nil, err
	}

	log := s.logger.With("mode", QueryNameAddress.String(), "org_name", p.OrgName)

	if len(hits) != 1 {
		err := &NoMatchError{Name: p.OrgName, Hits: len(hits)}
		log.Warn("virk search without unique hit", "hits", len(hits))

		return nil, err
	}

	rec, err := Extract(hits[0], EntityVirksomhed)
	if err != nil {
		log.Error("virk extract failed", "error", err)

		return nil, err
	}

	log.Info("virk search found organisation", "cvr_no", rec.CVRNo, "navn", rec.Navn)

	return rec, nil
}

// LookupCVR returns every legal entity registered under p.CVRNumber. No hit
// is not an error.
func (s *Service) LookupCVR(ctx context.Context, p Params) ([]Record, error) {
	return s.lookup(ctx, QueryCVRNumber, EntityVirksomhed, p)
}

// LookupPNumber returns every production unit registered under p.PNumber.
func (s *Service) LookupPNumber(ctx context.Context, p Params) ([]Record, error) {
	return s.lookup(ctx, QueryPNumber, EntityProduktionsEnhed, p)
}

func (s *Service) lookup(ctx context.Context, kind QueryKind, entity EntityKind, p Params) ([]Record, error) {
	hits, err := s.search(ctx, kind, p)
	if err != nil {
		return nil, err
	}

	records, err := ExtractAll(hits, entity)
	if err != nil {
		s.logger.Error("virk extract failed", "mode", kind.String(), "error", err)

		return nil, err
	}

	s.logger.Info("virk lookup done", "mode", kind.String(), "records", len(records))

	return records, nil
}

func (s *Service) search(ctx context.Context, kind QueryKind, p Params) ([]Hit, error) {
	log := s.logger.With("mode", kind.String())

	if err := p.ValidateCredentials(); err != nil {
		log.Error("virk search not attempted", "error", err)

		return nil, err
	}

	body, err := s.builder.Build(kind, p)
	if err != nil {
		log.Error("virk query build failed", "error", err)

		return nil, err
	}

	resp, err := s.searcher.Search(ctx, p.Credentials, body)
	if err != nil {
		log.Error("virk search failed", "error", err)

		return nil, err
	}

	hits, err := ParseHits(resp)
	if err != nil {
		log.Error("virk response parse failed", "error", err)

		return nil, err
	}

	log.Debug("virk search hits", "hits", len(hits))

	return hits, nil
}
