package accesscode

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&AccessCode{}))
	return db
}

func TestRepository_CreateBatchAndLookup(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	batch := []*AccessCode{
		{Code: "QRG11111111", Tier: TierNormal},
		{Code: "QRG22222222", Tier: TierNormal},
		{Code: "PREM3333333", Tier: TierPremium},
	}
	require.NoError(t, repo.CreateBatch(batch))

	exists, err := repo.Exists("QRG11111111")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists("QRG99999999")
	require.NoError(t, err)
	assert.False(t, exists)

	row, err := repo.FindByCode("PREM3333333")
	require.NoError(t, err)
	assert.Equal(t, TierPremium, row.Tier)
	assert.False(t, row.IsUsed)
	assert.NotZero(t, row.ID)

	_, err = repo.FindByCode("QRG99999999")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestRepository_CreateBatchDuplicateRollsBack(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	require.NoError(t, repo.CreateBatch([]*AccessCode{
		{Code: "QRG11111111", Tier: TierNormal},
	}))

	// The second batch collides on its last row; the unique index aborts
	// the whole transaction.
	err := repo.CreateBatch([]*AccessCode{
		{Code: "QRG22222222", Tier: TierNormal},
		{Code: "QRG11111111", Tier: TierNormal},
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	exists, err := repo.Exists("QRG22222222")
	require.NoError(t, err)
	assert.False(t, exists)
}
