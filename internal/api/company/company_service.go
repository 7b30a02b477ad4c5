package company

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

// Remote is the company collaborator of the remote API.
type Remote interface {
	Company(ctx context.Context, id int64) (types.Company, error)
	CompanyTours(ctx context.Context, id int64) ([]types.Tour, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Profile(ctx context.Context, id int64) (*types.CompanyProfile, error)
}

type ServiceImpl struct {
	remote Remote
	cache  *cache.Cache
	logger *slog.Logger
}

func NewService(remote Remote, ttl time.Duration, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		remote: remote,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Profile returns the company and its tours, fetched together and cached.
func (s *ServiceImpl) Profile(ctx context.Context, id int64) (*types.CompanyProfile, error) {
	ctx, span := otel.Tracer("CompanyService").Start(ctx, "Profile", trace.WithAttributes(
		attribute.Int64("company.id", id),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Profile"), slog.Int64("companyID", id))

	key := strconv.FormatInt(id, 10)
	if v, ok := s.cache.Get(key); ok {
		l.DebugContext(ctx, "Company profile served from cache")
		return v.(*types.CompanyProfile), nil
	}

	var company types.Company
	var tours []types.Tour
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		company, err = s.remote.Company(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		tours, err = s.remote.CompanyTours(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		l.ErrorContext(ctx, "Failed to fetch company profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "company fetch failed")
		return nil, fmt.Errorf("failed to fetch company %d: %w", id, err)
	}
	if company.ID == 0 {
		company.ID = id
	}
	if tours == nil {
		tours = []types.Tour{}
	}

	profile := &types.CompanyProfile{Company: company, Tours: tours}
	s.cache.SetDefault(key, profile)
	span.SetAttributes(attribute.Int("company.tours", len(tours)))
	return profile, nil
}
