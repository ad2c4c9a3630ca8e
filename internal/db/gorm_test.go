package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db/dbtest"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/models"
)

func TestNewGormClientSQLite(t *testing.T) {
	cfg := &config.Config{
		DBDriver:      config.DriverSQLite,
		DBPath:        ":memory:",
		DBWaitTimeout: time.Second,
	}

	gdb, err := db.NewGormClient(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)

	for _, table := range []string{"users", "tokens", "tags", "ingredients", "recipes", "recipe_tags", "recipe_ingredients"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}

func TestWaitForDB(t *testing.T) {
	gdb := dbtest.New(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, db.WaitForDB(ctx, gdb, 10*time.Millisecond, zap.NewNop().Sugar()))
}

func TestWaitForDBTimeout(t *testing.T) {
	gdb := dbtest.New(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, db.WaitForDB(ctx, gdb, 10*time.Millisecond, zap.NewNop().Sugar()))
}

func TestRecipeAssociations(t *testing.T) {
	gdb := dbtest.New(t)

	user := db.User{Email: "cook@example.com", Password: "x", IsActive: true}
	require.NoError(t, gdb.Create(&user).Error)
	tag := db.Tag{Name: "Dinner", UserID: user.ID}
	require.NoError(t, gdb.Create(&tag).Error)
	ing := db.Ingredient{Name: "Rice", UserID: user.ID}
	require.NoError(t, gdb.Create(&ing).Error)

	recipe := db.Recipe{
		Title:       "Fried rice",
		TimeMinutes: 20,
		Price:       models.Price(550),
		UserID:      user.ID,
		Tags:        []db.Tag{tag},
		Ingredients: []db.Ingredient{ing},
	}
	require.NoError(t, gdb.Create(&recipe).Error)

	got := db.Recipe{}
	require.NoError(t, gdb.Preload("Tags").Preload("Ingredients").First(&got, recipe.ID).Error)
	assert.Equal(t, models.Price(550), got.Price)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "Dinner", got.Tags[0].Name)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, "Rice", got.Ingredients[0].Name)
}

func TestDuplicateEmailTranslated(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: ":memory:"}
	gdb, err := db.Open(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	require.NoError(t, gdb.Create(&db.User{Email: "a@x.com", Password: "x"}).Error)
	err = gdb.Create(&db.User{Email: "a@x.com", Password: "x"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
