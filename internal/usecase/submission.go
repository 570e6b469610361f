package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"

	"github.com/foodielens/dishbook"
	"github.com/foodielens/dishbook/internal/domain"
)

// SubmitInput is one form submission: metadata plus the raw photo.
type SubmitInput struct {
	Fields domain.Fields
	Image  []byte
}

// SubmissionUsecase validates a submission, stores its photo and appends its record.
type SubmissionUsecase struct {
	assets    *AssetUsecase
	records   *RecordUsecase
	publisher EventPublisher
	policy    domain.SubmissionPolicy
}

func NewSubmissionUsecase(
	assets *AssetUsecase,
	records *RecordUsecase,
	publisher EventPublisher,
	policy domain.SubmissionPolicy,
) *SubmissionUsecase {
	return &SubmissionUsecase{
		assets:    assets,
		records:   records,
		publisher: publisher,
		policy:    policy,
	}
}

func (uc *SubmissionUsecase) Submit(ctx context.Context, input SubmitInput) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Submission.Usecase.Submit")
	defer span.End()

	fields := input.Fields.Normalize()
	contentType, err := uc.check(fields, input.Image)
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, err
	}
	span.SetAttributes(attribute.String("contentType", contentType))

	ref, err := uc.assets.Upload(ctx, input.Image, contentType)
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, err
	}

	record, err := uc.records.Append(ctx, fields, ref)
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, err
	}

	uc.publish(ctx, record)
	return record, nil
}

// Resume appends a record for an asset that was stored by an earlier
// submission whose table write failed.
func (uc *SubmissionUsecase) Resume(ctx context.Context, fields domain.Fields, ref domain.AssetRef) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Submission.Usecase.Resume")
	defer span.End()

	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return domain.Record{}, err
	}

	ok, err := uc.assets.Resolves(ctx, ref)
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, err
	}
	if !ok {
		return domain.Record{}, domain.ValidationError{
			Fields: []string{domain.FieldAsset},
			Reason: "asset is not stored here",
		}
	}

	record, err := uc.records.Append(ctx, fields, ref)
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, err
	}

	uc.publish(ctx, record)
	return record, nil
}

// check validates everything that can be rejected before touching storage
// and returns the detected image type.
func (uc *SubmissionUsecase) check(fields domain.Fields, image []byte) (string, error) {
	var verr domain.ValidationError
	if err := fields.Validate(); err != nil {
		verr = err.(domain.ValidationError)
	}

	if len(image) == 0 {
		verr.Fields = append(verr.Fields, domain.FieldImage)
		return "", verr
	}
	if uc.policy.MaxImageBytes > 0 && int64(len(image)) > uc.policy.MaxImageBytes {
		verr.Fields = append(verr.Fields, domain.FieldImage)
		verr.Reason = fmt.Sprintf("image larger than %d bytes", uc.policy.MaxImageBytes)
		return "", verr
	}

	detected := mimetype.Detect(image)
	contentType, _, _ := strings.Cut(detected.String(), ";")
	if !uc.policy.Allows(contentType) {
		verr.Fields = append(verr.Fields, domain.FieldImage)
		verr.Reason = fmt.Sprintf("unsupported image type %s", detected.String())
		return "", verr
	}

	if len(verr.Fields) > 0 {
		return "", verr
	}
	return contentType, nil
}

func (uc *SubmissionUsecase) publish(ctx context.Context, record domain.Record) {
	if uc.publisher == nil {
		return
	}

	event := dishbook.Event{
		Type:      domain.EventRecordAppended,
		Record:    record,
		Timestamp: time.Now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, domain.RecordsChannel, event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish record event",
			slog.String("record", record.ID),
			slog.String("error", err.Error()),
			slog.String("module", "submission"),
		)
	}
}
