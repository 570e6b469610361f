package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/foodielens/dishbook/internal/domain"
)

var tracer = otel.Tracer("usecase")

// AssetUsecase uploads assets idempotently: the same bytes are written to the
// backend at most once and always resolve to the same reference.
type AssetUsecase struct {
	backend AssetBackend
	index   AssetIndex
	flight  singleflight.Group
	now     func() time.Time
}

func NewAssetUsecase(backend AssetBackend, index AssetIndex) *AssetUsecase {
	return &AssetUsecase{
		backend: backend,
		index:   index,
		now:     time.Now,
	}
}

func (uc *AssetUsecase) Upload(ctx context.Context, data []byte, contentType string) (domain.AssetRef, error) {
	ctx, span := tracer.Start(ctx, "Asset.Usecase.Upload")
	defer span.End()

	if len(data) == 0 {
		err := domain.UploadError{Err: fmt.Errorf("empty asset")}
		span.RecordError(err)
		return domain.AssetRef{}, err
	}

	hash := domain.ContentHash(data)
	span.SetAttributes(attribute.String("hash", hash), attribute.Int("size", len(data)))

	// callers with the same hash share one upload; it must outlive any single
	// caller's cancellation, while each caller still stops waiting on its own ctx
	ch := uc.flight.DoChan(hash, func() (any, error) {
		return uc.upload(context.WithoutCancel(ctx), hash, data, contentType)
	})

	select {
	case <-ctx.Done():
		err := domain.UploadError{Err: ctx.Err()}
		span.RecordError(err)
		return domain.AssetRef{}, err
	case res := <-ch:
		if res.Err != nil {
			span.RecordError(res.Err)
			return domain.AssetRef{}, res.Err
		}
		if res.Shared {
			span.SetAttributes(attribute.Bool("shared", true))
		}
		return res.Val.(domain.AssetRef), nil
	}
}

func (uc *AssetUsecase) upload(ctx context.Context, hash string, data []byte, contentType string) (domain.AssetRef, error) {
	asset, found, err := uc.index.Lookup(ctx, hash)
	if err != nil {
		return domain.AssetRef{}, domain.UploadError{Err: errors.Wrap(err, "index lookup")}
	}
	if found {
		return asset.Ref(), nil
	}

	location, exists, err := uc.backend.Exists(ctx, hash)
	if err != nil {
		return domain.AssetRef{}, domain.UploadError{Err: errors.Wrap(err, "backend exists")}
	}
	if exists {
		slog.InfoContext(
			ctx, "adopting stored asset missing from index",
			slog.String("hash", hash),
			slog.String("module", "asset"),
		)
	} else {
		location, err = uc.backend.Put(ctx, hash, data, contentType)
		if err != nil {
			return domain.AssetRef{}, domain.UploadError{Err: errors.Wrap(err, "backend put")}
		}
	}

	asset = domain.Asset{
		ContentHash: hash,
		Location:    location,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   uc.now().UTC(),
	}
	if err := uc.index.Save(ctx, asset); err != nil {
		return domain.AssetRef{}, domain.UploadError{Err: errors.Wrap(err, "index save")}
	}

	return asset.Ref(), nil
}

// Lookup returns the index entry for hash, or NotFoundError.
func (uc *AssetUsecase) Lookup(ctx context.Context, hash string) (domain.Asset, error) {
	asset, found, err := uc.index.Lookup(ctx, hash)
	if err != nil {
		return domain.Asset{}, err
	}
	if !found {
		return domain.Asset{}, domain.NotFoundError{Resource: "asset"}
	}
	return asset, nil
}

// Open returns the stored bytes of the asset with the given hash.
func (uc *AssetUsecase) Open(ctx context.Context, hash string) (domain.Asset, []byte, error) {
	ctx, span := tracer.Start(ctx, "Asset.Usecase.Open")
	defer span.End()

	asset, err := uc.Lookup(ctx, hash)
	if err != nil {
		return domain.Asset{}, nil, err
	}

	data, err := uc.backend.Get(ctx, asset.Location)
	if err != nil {
		span.RecordError(err)
		return domain.Asset{}, nil, errors.Wrap(err, "backend get")
	}
	return asset, data, nil
}

// Resolves reports whether ref points at an asset this service stored.
func (uc *AssetUsecase) Resolves(ctx context.Context, ref domain.AssetRef) (bool, error) {
	asset, found, err := uc.index.Lookup(ctx, ref.ContentHash)
	if err != nil {
		return false, err
	}
	return found && asset.Location == ref.Location, nil
}
