// Package gateway implements the upload orchestration workflow: request
// validation, provider upload, variant URL expansion and best-effort
// metadata persistence.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/leca/image-gateway/internal/config"
	"github.com/leca/image-gateway/internal/database"
	"github.com/leca/image-gateway/internal/imageproc"
	"github.com/leca/image-gateway/internal/model"
	"github.com/leca/image-gateway/internal/provider"
	"github.com/leca/image-gateway/internal/variant"
)

// fileNamePattern is the safe-character set for caller-supplied names.
var fileNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// allowedMimeTypes is the fixed upload allow-list.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/jpg":     {},
	"image/png":     {},
	"image/svg+xml": {},
}

// Gateway coordinates the provider client, the variant registry and the
// optional metadata store. Store is nil when persistence is disabled.
type Gateway struct {
	Provider provider.API
	Store    database.Store
	Registry variant.Registry
	Config   *config.Config
	Logger   *slog.Logger
}

func New(p provider.API, store database.Store, reg variant.Registry, cfg *config.Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{Provider: p, Store: store, Registry: reg, Config: cfg, Logger: logger}
}

// UploadRequest carries one validated-to-be-parsed upload.
type UploadRequest struct {
	Data        []byte
	MimeType    string
	NewFileName string
	Variant     string
	Description string
}

// UploadOutcome is the user-visible result of a successful upload. URL is
// the requested (or default) variant; URLs covers every registry variant.
type UploadOutcome struct {
	ID   string
	URL  string
	URLs map[string]string
}

// Upload runs the upload workflow: validate, provider upload, variant
// expansion, best-effort persistence. Persistence failures are logged and
// swallowed; the upload's success is defined solely by the provider
// accepting the image.
func (g *Gateway) Upload(ctx context.Context, req *UploadRequest) (*UploadOutcome, error) {
	if err := g.Config.ValidateProvider(); err != nil {
		g.Logger.Error("missing provider configuration", "error", err)
		return nil, ErrConfig
	}

	variantName := req.Variant
	if variantName == "" {
		variantName = variant.DefaultName
	}
	if _, err := g.Registry.Resolve(variantName); err != nil {
		return nil, err
	}

	if req.NewFileName != "" && !fileNamePattern.MatchString(req.NewFileName) {
		return nil, badRequest("Invalid new_file_name. Only alphanumeric characters, underscores, and hyphens are allowed.")
	}

	if len(req.Data) == 0 {
		return nil, badRequest("Missing or invalid file")
	}

	if int64(len(req.Data)) > g.Config.MaxUploadBytes {
		return nil, tooLarge(fmt.Sprintf("File size exceeds %dMB limit", g.Config.MaxUploadBytes>>20))
	}

	if _, ok := allowedMimeTypes[req.MimeType]; !ok {
		return nil, unsupportedMedia("Unsupported file type. Allowed: " + strings.Join(allowedMimeList(), ", "))
	}

	fileName := req.NewFileName
	if fileName == "" {
		fileName = uuid.New().String()
	}

	// Best-effort: an undecodable raster leaves dimensions at zero.
	width, height := imageproc.Probe(req.Data)

	res, err := g.Provider.Upload(ctx, bytes.NewReader(req.Data), fileName, req.MimeType)
	if err != nil {
		g.Logger.Error("provider upload failed", "file_name", fileName, "error", err)
		return nil, err
	}

	urls := g.Registry.ExpandAll(g.Config.DeliveryURL, g.Config.AccountHash, res.ID)

	g.persist(&model.Image{
		ID:          res.ID,
		FileName:    fileName,
		Description: req.Description,
		MimeType:    req.MimeType,
		SizeBytes:   int64(len(req.Data)),
		Width:       width,
		Height:      height,
	}, urls)

	g.Logger.Info("image uploaded", "id", res.ID, "file_name", fileName, "size", len(req.Data))

	return &UploadOutcome{ID: res.ID, URL: urls[variantName], URLs: urls}, nil
}

// persist writes the record and its variant rows. Any failure is logged
// and discarded: the provider is authoritative, the store is an index.
func (g *Gateway) persist(img *model.Image, urls map[string]string) {
	if g.Store == nil {
		return
	}
	rowID, err := g.Store.SaveImage(img)
	if err != nil {
		g.Logger.Error("saving image metadata failed, continuing", "id", img.ID, "error", err)
		return
	}
	if err := g.Store.SaveVariantURLs(rowID, urls); err != nil {
		g.Logger.Error("saving variant urls failed, continuing", "id", img.ID, "error", err)
	}
}

// CreateDirectUpload runs the presigned workflow: no file bytes transit
// the gateway and nothing is persisted, because no image exists yet.
func (g *Gateway) CreateDirectUpload(ctx context.Context, fileName string) (*provider.DirectUpload, error) {
	if err := g.Config.ValidateProvider(); err != nil {
		g.Logger.Error("missing provider configuration", "error", err)
		return nil, ErrConfig
	}
	if fileName != "" && !fileNamePattern.MatchString(fileName) {
		return nil, badRequest("Invalid new_file_name. Only alphanumeric characters, underscores, and hyphens are allowed.")
	}

	du, err := g.Provider.CreateDirectUpload(ctx)
	if err != nil {
		g.Logger.Error("creating direct upload failed", "error", err)
		return nil, err
	}
	g.Logger.Info("direct upload created", "id", du.ID)
	return du, nil
}

// GetResult is the retrieval answer. Stored reports whether the record
// came from the metadata store or was recomputed from the registry.
type GetResult struct {
	Image  *model.Image
	URL    string
	Stored bool
}

// GetImage looks the image up in the store and falls back to recomputing
// the variant mapping when the store misses or errors. The fallback URLs
// are byte-identical to the persisted ones.
func (g *Gateway) GetImage(ctx context.Context, imageID, variantName string) (*GetResult, error) {
	if err := g.Config.ValidateProvider(); err != nil {
		g.Logger.Error("missing provider configuration", "error", err)
		return nil, ErrConfig
	}

	if variantName == "" {
		variantName = variant.DefaultName
	}
	if _, err := g.Registry.Resolve(variantName); err != nil {
		return nil, err
	}

	if g.Store != nil {
		img, err := g.Store.GetImageByProviderID(imageID)
		if err == nil {
			if url, ok := img.Variants[variantName]; ok {
				return &GetResult{Image: img, URL: url, Stored: true}, nil
			}
			// Stored before this variant existed; derive the missing URL.
			token, _ := g.Registry.Resolve(variantName)
			url := variant.URL(g.Config.DeliveryURL, g.Config.AccountHash, imageID, token)
			return &GetResult{Image: img, URL: url, Stored: true}, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			g.Logger.Error("store lookup failed, recomputing urls", "id", imageID, "error", err)
		}
	}

	urls := g.Registry.ExpandAll(g.Config.DeliveryURL, g.Config.AccountHash, imageID)
	img := &model.Image{ID: imageID, Variants: urls}
	return &GetResult{Image: img, URL: urls[variantName]}, nil
}

// ListRequest carries pagination input. Page, when positive, computes the
// offset as (page-1)*limit and wins over Offset.
type ListRequest struct {
	Limit  int
	Offset int
	Page   int
}

// ListImages pages over the metadata store, newest first. There is no
// fallback: listing without a store is a configuration error.
func (g *Gateway) ListImages(ctx context.Context, req ListRequest) (*model.ImagePage, error) {
	if g.Store == nil {
		return nil, ErrStoreUnavailable
	}

	limit := req.Limit
	if limit == 0 {
		limit = 20
	}
	if limit < 1 || limit > 100 {
		return nil, badRequest("limit must be between 1 and 100")
	}

	offset := req.Offset
	if req.Page > 0 {
		offset = (req.Page - 1) * limit
	}
	if offset < 0 {
		return nil, badRequest("offset must not be negative")
	}

	images, total, err := g.Store.ListImages(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	if images == nil {
		images = []*model.Image{}
	}

	return &model.ImagePage{
		Images:  images,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: total > offset+limit,
	}, nil
}

// DeleteImage asks the provider to remove the image, then clears the
// store entry best-effort. It reports whether the provider confirmed.
func (g *Gateway) DeleteImage(ctx context.Context, imageID string) (bool, error) {
	if err := g.Config.ValidateProvider(); err != nil {
		g.Logger.Error("missing provider configuration", "error", err)
		return false, ErrConfig
	}

	confirmed, err := g.Provider.Delete(ctx, imageID)
	if err != nil {
		return false, err
	}

	if g.Store != nil {
		if _, err := g.Store.DeleteImage(imageID); err != nil {
			g.Logger.Error("deleting stored metadata failed, continuing", "id", imageID, "error", err)
		}
	}

	g.Logger.Info("image deleted", "id", imageID, "confirmed", confirmed)
	return confirmed, nil
}

func allowedMimeList() []string {
	types := make([]string, 0, len(allowedMimeTypes))
	for t := range allowedMimeTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
