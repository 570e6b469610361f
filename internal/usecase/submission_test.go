package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/foodielens/dishbook/internal/domain"
)

type submissionFixture struct {
	backend   *mockBackend
	table     *mockRewriteTable
	publisher *mockPublisher
	uc        *SubmissionUsecase
	records   *RecordUsecase
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		backend:   newMockBackend(),
		table:     &mockRewriteTable{},
		publisher: &mockPublisher{},
	}
	assets := NewAssetUsecase(f.backend, newMockIndex())
	f.records = NewRecordUsecase(f.table, newMockLocker())
	f.uc = NewSubmissionUsecase(assets, f.records, f.publisher, domain.DefaultSubmissionPolicy())
	return f
}

func (f *submissionFixture) list(t *testing.T) []domain.Record {
	t.Helper()
	var out []domain.Record
	for rec, err := range f.records.List(context.Background(), 0) {
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		out = append(out, rec)
	}
	return out
}

func TestSubmitJollofRice(t *testing.T) {
	f := newSubmissionFixture()
	image := fakeJPEG(10*1024, 3)

	rec, err := f.uc.Submit(context.Background(), SubmitInput{Fields: validFields(), Image: image})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	records := f.list(t)
	if len(records) != 1 {
		t.Fatalf("expected 1 record got %d", len(records))
	}
	got := records[0]
	if got.ID != rec.ID || got.Name != "Jollof Rice" || got.Country != "Nigeria" || got.State != "Lagos" || got.Tribe != "Yoruba" {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Asset.IsZero() {
		t.Fatalf("expected non-empty asset ref")
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Record.ID != rec.ID {
		t.Fatalf("expected one published event, got %+v", f.publisher.events)
	}
}

func TestSubmitSameImageTwice(t *testing.T) {
	f := newSubmissionFixture()
	image := fakeJPEG(10*1024, 3)

	first, err := f.uc.Submit(context.Background(), SubmitInput{Fields: validFields(), Image: image})
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	fields := validFields()
	fields.Name = "Jollof Rice 2"
	second, err := f.uc.Submit(context.Background(), SubmitInput{Fields: fields, Image: image})
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	if len(f.list(t)) != 2 {
		t.Fatalf("expected two records")
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids")
	}
	if first.Asset.Location != second.Asset.Location {
		t.Fatalf("expected shared location, got %s and %s", first.Asset.Location, second.Asset.Location)
	}
	if f.backend.putCount() != 1 {
		t.Fatalf("expected one upload got %d", f.backend.putCount())
	}
}

func TestSubmitMissingCountry(t *testing.T) {
	f := newSubmissionFixture()
	fields := validFields()
	fields.Country = ""

	_, err := f.uc.Submit(context.Background(), SubmitInput{Fields: fields, Image: fakeJPEG(1024, 0)})
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0] != domain.FieldCountry {
		t.Fatalf("unexpected fields %v", verr.Fields)
	}
	if len(f.list(t)) != 0 {
		t.Fatalf("expected no records")
	}
	if f.backend.putCount() != 0 {
		t.Fatalf("expected no upload")
	}
}

func TestSubmitInvalidUTF8UploadsNothing(t *testing.T) {
	f := newSubmissionFixture()
	fields := validFields()
	fields.Name = "Jollof \xff\xfe"

	_, err := f.uc.Submit(context.Background(), SubmitInput{Fields: fields, Image: fakeJPEG(1024, 3)})
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0] != domain.FieldName {
		t.Fatalf("unexpected fields %v", verr.Fields)
	}
	if f.backend.putCount() != 0 {
		t.Fatalf("expected no upload")
	}
	if len(f.list(t)) != 0 {
		t.Fatalf("expected no records")
	}
}

func TestSubmitRejectsImages(t *testing.T) {
	f := newSubmissionFixture()

	cases := map[string][]byte{
		"missing":     nil,
		"unsupported": []byte("GIF89a this is not a photo we accept"),
		"too large":   fakeJPEG(int(domain.DefaultSubmissionPolicy().MaxImageBytes)+1, 0),
	}
	for name, image := range cases {
		_, err := f.uc.Submit(context.Background(), SubmitInput{Fields: validFields(), Image: image})
		var verr domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error got %v", name, err)
		}
		if verr.Fields[len(verr.Fields)-1] != domain.FieldImage {
			t.Fatalf("%s: expected image field, got %v", name, verr.Fields)
		}
	}
	if f.backend.putCount() != 0 {
		t.Fatalf("expected no upload")
	}
}

func TestSubmitAcceptsPNG(t *testing.T) {
	f := newSubmissionFixture()
	if _, err := f.uc.Submit(context.Background(), SubmitInput{Fields: validFields(), Image: fakePNG(2048)}); err != nil {
		t.Fatalf("png submit failed: %v", err)
	}
}

func TestSubmitUploadFailure(t *testing.T) {
	f := newSubmissionFixture()
	f.backend.putErr = errors.New("drive unreachable")

	_, err := f.uc.Submit(context.Background(), SubmitInput{Fields: validFields(), Image: fakeJPEG(1024, 0)})
	if !errors.Is(err, domain.ErrUpload) {
		t.Fatalf("expected upload error got %v", err)
	}
	if len(f.list(t)) != 0 {
		t.Fatalf("expected no record after failed upload")
	}
}

func TestSubmitPersistenceFailureThenResume(t *testing.T) {
	f := newSubmissionFixture()
	f.table.writeErr = errors.New("sheet locked")

	_, err := f.uc.Submit(context.Background(), SubmitInput{Fields: validFields(), Image: fakeJPEG(1024, 9)})
	var perr domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected persistence error got %v", err)
	}
	if perr.Asset.IsZero() {
		t.Fatalf("expected the stored asset on the error")
	}

	f.table.writeErr = nil
	rec, err := f.uc.Resume(context.Background(), validFields(), perr.Asset)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if rec.Asset != perr.Asset {
		t.Fatalf("expected resumed record to reference %+v got %+v", perr.Asset, rec.Asset)
	}
	if f.backend.putCount() != 1 {
		t.Fatalf("resume must not upload again, got %d puts", f.backend.putCount())
	}
}

func TestResumeUnknownAsset(t *testing.T) {
	f := newSubmissionFixture()
	ref := domain.AssetRef{ContentHash: domain.ContentHash([]byte("nope")), Location: "mem://nope"}

	_, err := f.uc.Resume(context.Background(), validFields(), ref)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestSubmitPublishFailureIsNotFatal(t *testing.T) {
	f := newSubmissionFixture()
	f.publisher.err = errors.New("redis down")

	if _, err := f.uc.Submit(context.Background(), SubmitInput{Fields: validFields(), Image: fakeJPEG(1024, 4)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(f.list(t)) != 1 {
		t.Fatalf("expected record despite publish failure")
	}
}
