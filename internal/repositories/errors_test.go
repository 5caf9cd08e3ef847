package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/absen_backend/internal/models"
)

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(sql.ErrNoRows), ErrNotFound)
	other := errors.New("conn reset")
	assert.Equal(t, other, notFound(other))
}

func TestJSONColumn(t *testing.T) {
	var nilMeta map[string]string
	v, err := jsonColumn(nilMeta)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = jsonColumn(map[string]string{models.MetaDeviceName: "Lobby"})
	require.NoError(t, err)
	assert.Equal(t, `{"device_name":"Lobby"}`, v)

	v, err = jsonColumn(models.Dimensions{Width: 800, Height: 400})
	require.NoError(t, err)
	assert.Equal(t, `{"width":800,"height":400}`, v)
}

func TestDecodeJSON(t *testing.T) {
	var meta map[string]string
	require.NoError(t, decodeJSON(nil, &meta))
	assert.Nil(t, meta)

	require.NoError(t, decodeJSON([]byte(`{"ip_address":"10.0.0.2"}`), &meta))
	assert.Equal(t, "10.0.0.2", meta[models.MetaIPAddress])

	assert.Error(t, decodeJSON([]byte(`{`), &meta))
}

func TestUpsertPhotoSQL_OneRowPerRecord(t *testing.T) {
	q := strings.Join(strings.Fields(upsertPhotoSQL), " ")
	assert.Contains(t, q, "ON CONFLICT (attendance_id) DO UPDATE")
	assert.Contains(t, q, "WHERE EXCLUDED.file_size > 0 OR attendance_photos.file_size = 0")
	assert.Contains(t, q, "RETURNING id, created_at")
}
