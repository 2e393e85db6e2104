package images

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/princinho/catalogbackend/apperrors"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockImageReader struct {
	img    *models.Image
	err    error
	lastID string
}

func (m *mockImageReader) GetImage(_ context.Context, id string) (*models.Image, error) {
	m.lastID = id
	return m.img, m.err
}

type mockBlobs struct {
	putKey      string
	putData     []byte
	putType     string
	getKey      string
	deletedKeys []string
	data        []byte
	err         error
}

func (m *mockBlobs) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.putKey, m.putData, m.putType = key, data, contentType
	return m.err
}

func (m *mockBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.getKey = key
	return m.data, m.err
}

func (m *mockBlobs) Delete(_ context.Context, key string) error {
	m.deletedKeys = append(m.deletedKeys, key)
	return m.err
}

func TestIngest(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	testCases := []struct {
		name        string
		data        []byte
		contentType string
		wantNil     bool
		wantErr     error
		wantType    string
	}{
		{name: "empty payload", data: []byte{}, wantNil: true},
		{name: "labelled", data: png, contentType: "image/webp", wantType: "image/webp"},
		{name: "sniffed", data: png, wantType: "image/png"},
		{name: "exactly at the limit", data: make([]byte, models.MaxImageBytes), contentType: "image/jpeg", wantType: "image/jpeg"},
		{name: "one byte over", data: make([]byte, models.MaxImageBytes+1), wantErr: apperrors.ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAccessor(&mockImageReader{}, nil)

			img, err := a.Ingest(bytes.NewReader(tc.data), tc.contentType)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, img)
				return
			}
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, img)
				return
			}
			assert.Equal(t, tc.wantType, img.ContentType)
			assert.Len(t, img.Data, len(tc.data))
		})
	}
}

func TestIngestNilReader(t *testing.T) {
	img, err := NewAccessor(&mockImageReader{}, nil).Ingest(nil, "")
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestFetch(t *testing.T) {
	testCases := []struct {
		name    string
		reader  *mockImageReader
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing product",
			reader:  &mockImageReader{err: store.ErrNotFound},
			wantErr: apperrors.ErrNotFound,
			wantMsg: "product not found",
		},
		{
			name:    "product without image",
			reader:  &mockImageReader{},
			wantErr: apperrors.ErrNotFound,
			wantMsg: "image not found",
		},
		{
			name:    "store failure",
			reader:  &mockImageReader{err: errors.New("connection reset")},
			wantErr: apperrors.ErrStore,
			wantMsg: "failed to fetch product image",
		},
		{
			name:   "embedded image",
			reader: &mockImageReader{img: &models.Image{Data: []byte("abc"), ContentType: "image/png"}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAccessor(tc.reader, nil)

			img, err := a.Fetch(context.Background(), "p1")
			assert.Equal(t, "p1", tc.reader.lastID)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.wantMsg, apperrors.Message(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []byte("abc"), img.Data)
		})
	}
}

func TestFetchOffloaded(t *testing.T) {
	blobs := &mockBlobs{data: []byte("remote")}
	reader := &mockImageReader{img: &models.Image{ContentType: "image/png", ObjectKey: "products/mug/1-x"}}
	a := NewAccessor(reader, blobs)

	img, err := a.Fetch(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "products/mug/1-x", blobs.getKey)
	assert.Equal(t, []byte("remote"), img.Data)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestFetchOffloadedWithoutBackend(t *testing.T) {
	reader := &mockImageReader{img: &models.Image{ContentType: "image/png", ObjectKey: "products/mug/1-x"}}

	_, err := NewAccessor(reader, nil).Fetch(context.Background(), "p1")
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestPersist(t *testing.T) {
	blobs := &mockBlobs{}
	a := NewAccessor(&mockImageReader{}, blobs)
	img := &models.Image{Data: []byte("abc"), ContentType: "image/png"}

	require.NoError(t, a.Persist(context.Background(), "red-mug", img))
	assert.True(t, strings.HasPrefix(blobs.putKey, "products/red-mug/"))
	assert.Equal(t, []byte("abc"), blobs.putData)
	assert.Equal(t, "image/png", blobs.putType)
	assert.Equal(t, blobs.putKey, img.ObjectKey)
	assert.Nil(t, img.Data)
}

func TestPersistFailure(t *testing.T) {
	blobs := &mockBlobs{err: errors.New("bucket gone")}
	a := NewAccessor(&mockImageReader{}, blobs)
	img := &models.Image{Data: []byte("abc"), ContentType: "image/png"}

	err := a.Persist(context.Background(), "red-mug", img)
	assert.ErrorIs(t, err, apperrors.ErrStore)
	assert.Empty(t, img.ObjectKey)
	assert.Equal(t, []byte("abc"), img.Data)
}

func TestPersistEmbeddedIsNoop(t *testing.T) {
	a := NewAccessor(&mockImageReader{}, nil)
	img := &models.Image{Data: []byte("abc"), ContentType: "image/png"}

	require.NoError(t, a.Persist(context.Background(), "red-mug", img))
	assert.Equal(t, []byte("abc"), img.Data)
	assert.Empty(t, img.ObjectKey)
	assert.False(t, a.Offloading())
}

func TestDiscard(t *testing.T) {
	blobs := &mockBlobs{err: errors.New("ignored")}
	a := NewAccessor(&mockImageReader{}, blobs)

	a.Discard(context.Background(), nil)
	a.Discard(context.Background(), &models.Image{Data: []byte("embedded")})
	a.Discard(context.Background(), &models.Image{ObjectKey: "products/mug/1-x"})

	assert.Equal(t, []string{"products/mug/1-x"}, blobs.deletedKeys)
}
