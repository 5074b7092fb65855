package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

func sampleOptions() model.Options {
	return model.Options{
		RefreshTime: 60,
		Endpoint:    "https://go-review.googlesource.com",
		Credentials: model.Credentials{Email: "gopher@golang.org", Password: "http-password"},
	}
}

func TestOptionsRepo_LoadAbsent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOptionsRepo(db, testKey)

	opts, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, opts)
}

func TestOptionsRepo_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOptionsRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleOptions()))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleOptions(), *got)
}

func TestOptionsRepo_PasswordEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOptionsRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleOptions()))

	var blob string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM options WHERE key = ?`, optionsKey).Scan(&blob)
	require.NoError(t, err)
	assert.NotContains(t, blob, "http-password")
	assert.Contains(t, blob, "gopher@golang.org")
}

func TestOptionsRepo_SaveOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOptionsRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleOptions()))

	updated := sampleOptions()
	updated.RefreshTime = 15
	updated.Endpoint = "https://gerrit.example.com"
	require.NoError(t, repo.Save(ctx, updated))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 15, got.RefreshTime)
	assert.Equal(t, "https://gerrit.example.com", got.Endpoint)
}

func TestOptionsRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOptionsRepo(db, nil)
	ctx := context.Background()

	err := repo.Save(ctx, sampleOptions())
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	noPassword := sampleOptions()
	noPassword.Credentials.Password = ""
	require.NoError(t, repo.Save(ctx, noPassword), "options without a password need no key")

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, noPassword, *got)
}

func TestOptionsRepo_LoadWithoutKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewOptionsRepo(db, testKey).Save(ctx, sampleOptions()))

	_, err := NewOptionsRepo(db, nil).Load(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}
