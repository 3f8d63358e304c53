package listings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/uow"
	domainlistings "rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/shared/apperr"
	"rentdesk/internal/infra/storage/s3"
)

const UploadPhotoKey = "listings.photos.upload"

var ErrPhotoRequired = apperr.New(apperr.ErrValidation, "listings: a photo file is required")

type UploadPhotoCommand struct {
	Actor       policies.Actor
	ListingID   string `validate:"required"`
	FileName    string
	ContentType string
	Caption     string `validate:"max=200"`
	Reader      io.Reader

	// Primary replaces the main photo instead of adding a secondary one.
	Primary bool
}

func (c UploadPhotoCommand) Key() string                { return UploadPhotoKey }
func (c UploadPhotoCommand) ActingUser() policies.Actor { return c.Actor }

type UploadPhotoHandler struct {
	Logger   *slog.Logger
	Uploader s3.Uploader
	Clock    func() time.Time
}

func (h *UploadPhotoHandler) Handle(ctx context.Context, cmd UploadPhotoCommand) (*dto.PhotoUploadResult, error) {
	if cmd.Reader == nil {
		return nil, ErrPhotoRequired
	}
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().Lock(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := policies.Require(policies.CanManageListing(cmd.Actor, listing)); err != nil {
		return nil, err
	}
	uploader := h.Uploader
	if uploader == nil {
		uploader = s3.NoopUploader{}
	}

	key := photoKey(listing.ID, cmd.FileName)
	url, err := uploader.Upload(ctx, key, cmd.Reader, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	at := now(h.Clock).UTC()
	if cmd.Primary || listing.PrimaryPhoto == "" {
		listing.SetPrimaryPhoto(url, at)
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return nil, err
		}
	} else {
		photo := domainlistings.Photo{
			ID:         domainlistings.PhotoID(uuid.NewString()),
			ListingID:  listing.ID,
			ObjectKey:  key,
			URL:        url,
			Caption:    strings.TrimSpace(cmd.Caption),
			Position:   listing.NextPhotoPosition(),
			UploadedAt: at,
		}
		if err := unit.Listings().AddPhoto(ctx, photo); err != nil {
			return nil, err
		}
		listing.Photos = append(listing.Photos, photo)
	}

	if h.Logger != nil {
		h.Logger.Info("listing photo added", "listing_id", listing.ID, "object_key", key, "primary", listing.PrimaryPhoto == url)
	}
	return &dto.PhotoUploadResult{
		ListingID:    string(listing.ID),
		PrimaryPhoto: listing.PrimaryPhoto,
		Photos:       dto.MapPhotos(listing.Photos),
	}, nil
}

func photoKey(id domainlistings.ListingID, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if len(ext) > 8 {
		ext = ""
	}
	return path.Join("listings", string(id), uuid.NewString()+ext)
}

var _ commands.Handler[UploadPhotoCommand, *dto.PhotoUploadResult] = (*UploadPhotoHandler)(nil)
