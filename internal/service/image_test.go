package service

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestDecodeDataURI(t *testing.T) {
	img, err := DecodeDataURI(testhelpers.PNGDataURI(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Extension)

	for _, uri := range []string{
		"not a data uri",
		"data:image/png,abc",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
		"data:image/png;base64,aGVsbG8=",
	} {
		_, err := DecodeDataURI(uri)
		var verr *errs.ValidationError
		require.ErrorAs(t, err, &verr, uri)
		assert.Contains(t, verr.Fields, "image")
	}
}

func TestDatabaseImageStore(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	store := NewDatabaseImageStore(db, "/media/", logger.Nop())
	ctx := context.Background()

	img, err := SniffImage(testhelpers.PNG(t))
	require.NoError(t, err)

	url, err := store.Save(ctx, img)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/media/recipes/"))
	require.True(t, strings.HasSuffix(url, ".png"))

	name := url[strings.LastIndex(url, "/")+1:]
	stored, err := store.Open(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.ContentType)
	assert.Equal(t, img.Data, stored.Data)

	require.NoError(t, store.Delete(ctx, url))
	_, err = store.Open(ctx, name)
	var nf *errs.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func TestS3ImageStore(t *testing.T) {
	client := &mockS3{}
	store := newS3ImageStore(client, "foodgram-media", "https://foodgram-media.s3.us-east-1.amazonaws.com", logger.Nop())
	ctx := context.Background()

	img, err := SniffImage(testhelpers.PNG(t))
	require.NoError(t, err)

	var key string
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		key = *in.Key
		return *in.Bucket == "foodgram-media" && *in.ContentType == "image/png" && strings.HasPrefix(*in.Key, "recipes/")
	})).Return(nil).Once()

	url, err := store.Save(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, "https://foodgram-media.s3.us-east-1.amazonaws.com/"+key, url)

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Key == key
	})).Return(nil).Once()
	require.NoError(t, store.Delete(ctx, url))

	client.AssertExpectations(t)
}
