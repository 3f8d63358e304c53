package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/domain/shared/apperr"
)

func TestNewRequiresEndpointAndBucket(t *testing.T) {
	_, err := New(Options{Bucket: "photos"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(Options{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)
}

func TestObjectURLUsesPublicEndpoint(t *testing.T) {
	c, err := New(Options{
		Endpoint:       "http://minio:9000",
		PublicEndpoint: "https://cdn.example.com/",
		Bucket:         "photos",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photos/listings/l1/a.jpg", c.ObjectURL("/listings/l1/a.jpg"))

	c, err = New(Options{Endpoint: "minio:9000", Bucket: "photos"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/photos/k.png", c.ObjectURL("k.png"))
}

func TestUploadRejectsNonImages(t *testing.T) {
	c, err := New(Options{Endpoint: "minio:9000", Bucket: "photos"}, nil)
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), "listings/l1/x.pdf", strings.NewReader("x"), "application/pdf")
	require.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Equal(t, apperr.ErrValidation, apperr.Kind(err))
}

func TestNoopUploader(t *testing.T) {
	_, err := NoopUploader{}.Upload(context.Background(), "k", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
