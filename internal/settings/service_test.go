package settings

import (
	"context"
	"testing"

	"github.com/angelmondragon/adminkit-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func TestGetCreatesDefaults(t *testing.T) {
	svc := newTestService(t)

	row, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxFileSize, row.MaxFileSize)
	assert.Equal(t, DefaultMaxFileCount, row.MaxFileCount)
	assert.Contains(t, row.AllowedMimeTypes, "application/pdf")

	pub, err := svc.Public(context.Background())
	require.NoError(t, err)
	assert.Equal(t, row.MaxFileSize, pub.MaxFileSize)
}

func TestUpdateAppliesValidPatch(t *testing.T) {
	svc := newTestService(t)
	types := []string{"image/png", "IMAGE/PNG", "text/plain"}

	row, err := svc.Update(context.Background(), "admin-1", Patch{MaxFileSize: intPtr(25), AllowedMimeTypes: &types})
	require.NoError(t, err)
	assert.Equal(t, 25, row.MaxFileSize)
	assert.Equal(t, DefaultMaxFileCount, row.MaxFileCount)
	assert.Equal(t, []string{"image/png", "text/plain"}, []string(row.AllowedMimeTypes))
	require.NotNil(t, row.UpdatedBy)
	assert.Equal(t, "admin-1", *row.UpdatedBy)
}

func TestUpdateRejectsWholePatchAtomically(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "", Patch{MaxFileSize: intPtr(10), MaxFileCount: intPtr(0)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, "", Patch{MaxFileSize: intPtr(51)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	row, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxFileSize, row.MaxFileSize)
	assert.Equal(t, DefaultMaxFileCount, row.MaxFileCount)
}

func TestUpdateListsOffendingMimeTypes(t *testing.T) {
	svc := newTestService(t)
	types := []string{"image/png", "application/x-msdownload", "foo/bar"}

	_, err := svc.Update(context.Background(), "", Patch{AllowedMimeTypes: &types})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"application/x-msdownload", "foo/bar"}, details["invalidMimeTypes"])
	supported, ok := details["supportedMimeTypes"].([]string)
	require.True(t, ok)
	assert.Contains(t, supported, "image/png")
	assert.NotContains(t, supported, "foo/bar")
}
