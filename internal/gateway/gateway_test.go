package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/leca/image-gateway/internal/config"
	"github.com/leca/image-gateway/internal/database"
	"github.com/leca/image-gateway/internal/model"
	"github.com/leca/image-gateway/internal/provider"
	"github.com/leca/image-gateway/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records calls and returns canned answers.
type fakeProvider struct {
	uploads      int
	lastFileName string
	lastMime     string
	uploadResult *provider.UploadResult
	uploadErr    error

	directUpload *provider.DirectUpload
	directErr    error

	deleteOK  bool
	deleteErr error
}

func (f *fakeProvider) Upload(ctx context.Context, file io.Reader, fileName, mimeType string) (*provider.UploadResult, error) {
	f.uploads++
	f.lastFileName = fileName
	f.lastMime = mimeType
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadResult != nil {
		return f.uploadResult, nil
	}
	return &provider.UploadResult{ID: "prov-id"}, nil
}

func (f *fakeProvider) CreateDirectUpload(ctx context.Context) (*provider.DirectUpload, error) {
	if f.directErr != nil {
		return nil, f.directErr
	}
	if f.directUpload != nil {
		return f.directUpload, nil
	}
	return &provider.DirectUpload{ID: "pending", UploadURL: "https://upload.example.com/x"}, nil
}

func (f *fakeProvider) GetImage(ctx context.Context, imageID string) (*provider.Details, error) {
	return &provider.Details{ID: imageID}, nil
}

func (f *fakeProvider) Delete(ctx context.Context, imageID string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.deleteOK, nil
}

// fakeStore records calls and can fail on demand.
type fakeStore struct {
	saved      *model.Image
	savedURLs  map[string]string
	saveErr    error
	variantErr error

	getResult *model.Image
	getErr    error

	listImages []*model.Image
	listTotal  int
	listErr    error
	lastLimit  int
	lastOffset int

	deleted   []string
	deleteErr error
}

func (f *fakeStore) SaveImage(img *model.Image) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = img
	return 1, nil
}

func (f *fakeStore) SaveVariantURLs(rowID int64, urls map[string]string) error {
	if f.variantErr != nil {
		return f.variantErr
	}
	f.savedURLs = urls
	return nil
}

func (f *fakeStore) GetImageByProviderID(providerID string) (*model.Image, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResult, nil
}

func (f *fakeStore) ListImages(limit, offset int) ([]*model.Image, int, error) {
	f.lastLimit, f.lastOffset = limit, offset
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.listImages, f.listTotal, nil
}

func (f *fakeStore) DeleteImage(providerID string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = append(f.deleted, providerID)
	return 1, nil
}

func (f *fakeStore) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		AccountID:      "acct",
		APIToken:       "token",
		AccountHash:    "hash",
		DeliveryURL:    "https://imagedelivery.net",
		MaxUploadBytes: config.MaxUploadBytes,
	}
}

func testGateway(p provider.API, store database.Store) *Gateway {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(p, store, variant.Default(), testConfig(), logger)
}

func pngRequest() *UploadRequest {
	return &UploadRequest{Data: []byte("fake-png-bytes"), MimeType: "image/png"}
}

// ---------------------------------------------------------------------------
// Upload validation: failures must answer before any outbound call
// ---------------------------------------------------------------------------

func TestUploadRejectsOversizedFile(t *testing.T) {
	p := &fakeProvider{}
	g := testGateway(p, nil)

	req := &UploadRequest{Data: make([]byte, 6<<20), MimeType: "image/png"}
	_, err := g.Upload(context.Background(), req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, vErr.Status)
	assert.Zero(t, p.uploads)
}

func TestUploadRejectsDisallowedMime(t *testing.T) {
	p := &fakeProvider{}
	g := testGateway(p, nil)

	for _, mime := range []string{"image/gif", "application/pdf", "text/html", ""} {
		req := &UploadRequest{Data: []byte("data"), MimeType: mime}
		_, err := g.Upload(context.Background(), req)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "mime %q", mime)
		assert.Equal(t, http.StatusUnsupportedMediaType, vErr.Status)
	}
	assert.Zero(t, p.uploads)
}

func TestUploadRejectsUnsafeFileName(t *testing.T) {
	p := &fakeProvider{}
	g := testGateway(p, nil)

	for _, name := range []string{"bad name", "slash/name", "dot.name", "q?"} {
		req := pngRequest()
		req.NewFileName = name
		_, err := g.Upload(context.Background(), req)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "name %q", name)
		assert.Equal(t, http.StatusBadRequest, vErr.Status)
	}
	assert.Zero(t, p.uploads)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	p := &fakeProvider{}
	g := testGateway(p, nil)

	_, err := g.Upload(context.Background(), &UploadRequest{MimeType: "image/png"})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, http.StatusBadRequest, vErr.Status)
	assert.Zero(t, p.uploads)
}

func TestUploadRejectsUnknownVariant(t *testing.T) {
	p := &fakeProvider{}
	g := testGateway(p, nil)

	req := pngRequest()
	req.Variant = "enormous"
	_, err := g.Upload(context.Background(), req)

	var uvErr *variant.UnknownVariantError
	require.ErrorAs(t, err, &uvErr)
	assert.Equal(t, []string{"public", "thumbnail"}, uvErr.Valid)
	assert.Zero(t, p.uploads)
}

func TestUploadRequiresProviderConfig(t *testing.T) {
	p := &fakeProvider{}
	g := testGateway(p, nil)
	g.Config.APIToken = ""

	_, err := g.Upload(context.Background(), pngRequest())
	assert.ErrorIs(t, err, ErrConfig)
	assert.Zero(t, p.uploads)
}

// ---------------------------------------------------------------------------
// Upload workflow
// ---------------------------------------------------------------------------

func TestUploadSuccess(t *testing.T) {
	p := &fakeProvider{uploadResult: &provider.UploadResult{ID: "img-42"}}
	store := &fakeStore{}
	g := testGateway(p, store)

	req := pngRequest()
	req.NewFileName = "my_photo-1"
	req.Variant = "thumbnail"
	req.Description = "holiday"

	out, err := g.Upload(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "img-42", out.ID)
	assert.Equal(t, "https://imagedelivery.net/hash/img-42/thumbnail", out.URL)
	assert.Equal(t, map[string]string{
		"public":    "https://imagedelivery.net/hash/img-42/public",
		"thumbnail": "https://imagedelivery.net/hash/img-42/thumbnail",
	}, out.URLs)

	// Metadata and every variant URL were persisted together.
	require.NotNil(t, store.saved)
	assert.Equal(t, "img-42", store.saved.ID)
	assert.Equal(t, "my_photo-1", store.saved.FileName)
	assert.Equal(t, "holiday", store.saved.Description)
	assert.Equal(t, "image/png", store.saved.MimeType)
	assert.Equal(t, int64(len(req.Data)), store.saved.SizeBytes)
	assert.Equal(t, out.URLs, store.savedURLs)
}

func TestUploadDefaultsToPublicVariant(t *testing.T) {
	p := &fakeProvider{uploadResult: &provider.UploadResult{ID: "img-7"}}
	g := testGateway(p, nil)

	out, err := g.Upload(context.Background(), pngRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://imagedelivery.net/hash/img-7/public", out.URL)
}

func TestUploadGeneratesFileName(t *testing.T) {
	p := &fakeProvider{}
	g := testGateway(p, nil)

	_, err := g.Upload(context.Background(), pngRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, p.lastFileName)
	assert.Equal(t, "image/png", p.lastMime)
}

func TestUploadProviderFailureIsTerminal(t *testing.T) {
	apiErr := &provider.APIError{StatusCode: 502, Messages: []string{"upstream down"}}
	p := &fakeProvider{uploadErr: apiErr}
	store := &fakeStore{}
	g := testGateway(p, store)

	_, err := g.Upload(context.Background(), pngRequest())
	require.ErrorIs(t, err, apiErr)

	// No partial record anywhere.
	assert.Nil(t, store.saved)
	assert.Nil(t, store.savedURLs)
}

func TestUploadSucceedsWhenSaveImageFails(t *testing.T) {
	p := &fakeProvider{uploadResult: &provider.UploadResult{ID: "img-9"}}
	store := &fakeStore{saveErr: errors.New("database is locked")}
	g := testGateway(p, store)

	out, err := g.Upload(context.Background(), pngRequest())
	require.NoError(t, err)
	assert.Equal(t, "img-9", out.ID)
	assert.Equal(t, "https://imagedelivery.net/hash/img-9/public", out.URL)
}

func TestUploadSucceedsWhenVariantSaveFails(t *testing.T) {
	p := &fakeProvider{uploadResult: &provider.UploadResult{ID: "img-10"}}
	store := &fakeStore{variantErr: errors.New("disk I/O error")}
	g := testGateway(p, store)

	out, err := g.Upload(context.Background(), pngRequest())
	require.NoError(t, err)
	assert.Equal(t, "img-10", out.ID)
	assert.Len(t, out.URLs, 2)
}

func TestUploadWithoutStore(t *testing.T) {
	p := &fakeProvider{}
	g := testGateway(p, nil)

	out, err := g.Upload(context.Background(), pngRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
}

// ---------------------------------------------------------------------------
// Presigned workflow
// ---------------------------------------------------------------------------

func TestCreateDirectUpload(t *testing.T) {
	p := &fakeProvider{directUpload: &provider.DirectUpload{ID: "du-1", UploadURL: "https://up.example.com/du-1"}}
	g := testGateway(p, nil)

	du, err := g.CreateDirectUpload(context.Background(), "my-file")
	require.NoError(t, err)
	assert.Equal(t, "du-1", du.ID)
	assert.Equal(t, "https://up.example.com/du-1", du.UploadURL)
}

func TestCreateDirectUploadValidatesFileName(t *testing.T) {
	g := testGateway(&fakeProvider{}, nil)

	_, err := g.CreateDirectUpload(context.Background(), "bad name!")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, http.StatusBadRequest, vErr.Status)
}

// ---------------------------------------------------------------------------
// Retrieval
// ---------------------------------------------------------------------------

func TestGetImageFromStore(t *testing.T) {
	stored := &model.Image{
		ID:       "img-1",
		FileName: "photo",
		Variants: map[string]string{
			"public":    "https://imagedelivery.net/hash/img-1/public",
			"thumbnail": "https://imagedelivery.net/hash/img-1/thumbnail",
		},
	}
	g := testGateway(&fakeProvider{}, &fakeStore{getResult: stored})

	res, err := g.GetImage(context.Background(), "img-1", "thumbnail")
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.Equal(t, "photo", res.Image.FileName)
	assert.Equal(t, "https://imagedelivery.net/hash/img-1/thumbnail", res.URL)
}

func TestGetImageFallsBackOnStoreMiss(t *testing.T) {
	g := testGateway(&fakeProvider{}, &fakeStore{getErr: database.ErrNotFound})

	res, err := g.GetImage(context.Background(), "img-2", "")
	require.NoError(t, err)
	assert.False(t, res.Stored)
	assert.Equal(t, "https://imagedelivery.net/hash/img-2/public", res.URL)
	assert.Equal(t, map[string]string{
		"public":    "https://imagedelivery.net/hash/img-2/public",
		"thumbnail": "https://imagedelivery.net/hash/img-2/thumbnail",
	}, res.Image.Variants)
}

func TestGetImageFallsBackOnStoreError(t *testing.T) {
	g := testGateway(&fakeProvider{}, &fakeStore{getErr: errors.New("database is locked")})

	res, err := g.GetImage(context.Background(), "img-3", "public")
	require.NoError(t, err)
	assert.False(t, res.Stored)
	assert.Equal(t, "https://imagedelivery.net/hash/img-3/public", res.URL)
}

func TestGetImageRecomputedMatchesPersistedShape(t *testing.T) {
	// The fallback mapping must be byte-identical to what an upload
	// would have persisted for the same provider ID.
	p := &fakeProvider{uploadResult: &provider.UploadResult{ID: "img-4"}}
	store := &fakeStore{getErr: database.ErrNotFound}
	g := testGateway(p, store)

	out, err := g.Upload(context.Background(), pngRequest())
	require.NoError(t, err)

	res, err := g.GetImage(context.Background(), "img-4", "")
	require.NoError(t, err)
	assert.Equal(t, out.URLs, res.Image.Variants)
}

func TestGetImageUnknownVariant(t *testing.T) {
	g := testGateway(&fakeProvider{}, nil)

	_, err := g.GetImage(context.Background(), "img-5", "mystery")
	var uvErr *variant.UnknownVariantError
	require.ErrorAs(t, err, &uvErr)
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

func TestListImagesRequiresStore(t *testing.T) {
	g := testGateway(&fakeProvider{}, nil)

	_, err := g.ListImages(context.Background(), ListRequest{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestListImagesDefaultsAndClamps(t *testing.T) {
	store := &fakeStore{listTotal: 25}
	g := testGateway(&fakeProvider{}, store)

	_, err := g.ListImages(context.Background(), ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 20, store.lastLimit)
	assert.Equal(t, 0, store.lastOffset)

	_, err = g.ListImages(context.Background(), ListRequest{Limit: 101})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestListImagesPageComputesOffset(t *testing.T) {
	store := &fakeStore{listTotal: 25, listImages: make([]*model.Image, 5)}
	g := testGateway(&fakeProvider{}, store)

	page, err := g.ListImages(context.Background(), ListRequest{Limit: 20, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 20, store.lastOffset)
	assert.Equal(t, 25, page.Total)
	assert.False(t, page.HasMore)

	page, err = g.ListImages(context.Background(), ListRequest{Limit: 20, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, store.lastOffset)
	assert.True(t, page.HasMore)
}

func TestListImagesStoreErrorSurfaces(t *testing.T) {
	store := &fakeStore{listErr: errors.New("database is locked")}
	g := testGateway(&fakeProvider{}, store)

	_, err := g.ListImages(context.Background(), ListRequest{})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Deletion
// ---------------------------------------------------------------------------

func TestDeleteImage(t *testing.T) {
	p := &fakeProvider{deleteOK: true}
	store := &fakeStore{}
	g := testGateway(p, store)

	confirmed, err := g.DeleteImage(context.Background(), "img-6")
	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.Equal(t, []string{"img-6"}, store.deleted)
}

func TestDeleteImageStoreFailureIsNonFatal(t *testing.T) {
	p := &fakeProvider{deleteOK: true}
	store := &fakeStore{deleteErr: errors.New("database is locked")}
	g := testGateway(p, store)

	confirmed, err := g.DeleteImage(context.Background(), "img-7")
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestDeleteImageProviderFailure(t *testing.T) {
	apiErr := &provider.APIError{StatusCode: 403}
	p := &fakeProvider{deleteErr: apiErr}
	store := &fakeStore{}
	g := testGateway(p, store)

	_, err := g.DeleteImage(context.Background(), "img-8")
	require.ErrorIs(t, err, apiErr)
	assert.Empty(t, store.deleted)
}
