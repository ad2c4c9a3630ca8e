package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/models"
)

const maxNameLength = 255

type (
	// Catalog gives a user access to their own tags, ingredients and recipes.
	// Every read is filtered by owner and every write stamps the owner.
	Catalog struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}

	// RecipeFilter narrows a recipe listing to recipes carrying any of the
	// given tags and any of the given ingredients.
	RecipeFilter struct {
		TagIDs        []uint64
		IngredientIDs []uint64
	}

	RecipeInput struct {
		Title         string
		TimeMinutes   *int
		Price         *models.Price
		Link          *string
		TagIDs        []uint64
		IngredientIDs []uint64
	}
)

func NewCatalog(db *gorm.DB, l *zap.SugaredLogger) *Catalog {
	return &Catalog{
		db:     db,
		logger: l,
	}
}

// ListTags returns the caller's tags ordered by name. With assignedOnly set
// only tags used by at least one of the caller's recipes are returned.
func (s *Catalog) ListTags(ctx context.Context, caller *db.User, assignedOnly bool) ([]db.Tag, error) {
	tags := make([]db.Tag, 0)
	if err := s.listOwned(ctx, caller, &tags, "recipe_tags", "tag_id", assignedOnly); err != nil {
		return nil, errors.Wrap(err, "list tags")
	}
	return tags, nil
}

func (s *Catalog) CreateTag(ctx context.Context, caller *db.User, name string) (*db.Tag, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	model := db.Tag{
		Name:   name,
		UserID: caller.ID,
	}
	if res := s.db.WithContext(ctx).Create(&model); res.Error != nil {
		return nil, errors.Wrap(res.Error, "create tag")
	}
	return &model, nil
}

func (s *Catalog) ListIngredients(ctx context.Context, caller *db.User, assignedOnly bool) ([]db.Ingredient, error) {
	ingredients := make([]db.Ingredient, 0)
	if err := s.listOwned(ctx, caller, &ingredients, "recipe_ingredients", "ingredient_id", assignedOnly); err != nil {
		return nil, errors.Wrap(err, "list ingredients")
	}
	return ingredients, nil
}

func (s *Catalog) CreateIngredient(ctx context.Context, caller *db.User, name string) (*db.Ingredient, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	model := db.Ingredient{
		Name:   name,
		UserID: caller.ID,
	}
	if res := s.db.WithContext(ctx).Create(&model); res.Error != nil {
		return nil, errors.Wrap(res.Error, "create ingredient")
	}
	return &model, nil
}

// ListRecipes returns the caller's recipes, newest first, with tags and
// ingredients loaded.
func (s *Catalog) ListRecipes(ctx context.Context, caller *db.User, f RecipeFilter) ([]db.Recipe, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	w := squirrel.And{squirrel.Eq{"r.user_id": caller.ID}}
	if len(f.TagIDs) != 0 {
		sub, err := inSubquery("r.id", squirrel.Select("recipe_id").From("recipe_tags").Where(squirrel.Eq{"tag_id": f.TagIDs}))
		if err != nil {
			return nil, err
		}
		w = append(w, sub)
	}
	if len(f.IngredientIDs) != 0 {
		sub, err := inSubquery("r.id", squirrel.Select("recipe_id").From("recipe_ingredients").Where(squirrel.Eq{"ingredient_id": f.IngredientIDs}))
		if err != nil {
			return nil, err
		}
		w = append(w, sub)
	}

	sql, args, err := squirrel.
		Select("r.id").From("recipes r").
		Where(w).
		OrderBy("r.id DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	ids := make([]uint64, 0)
	if res := s.db.WithContext(ctx).Raw(sql, args...).Scan(&ids); res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan recipe ids")
	}

	recipes := make([]db.Recipe, 0, len(ids))
	if len(ids) == 0 {
		return recipes, nil
	}
	res := s.db.WithContext(ctx).
		Preload("Tags", orderByName).
		Preload("Ingredients", orderByName).
		Where("id IN ?", ids).
		Order("id DESC").
		Find(&recipes)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load recipes")
	}
	return recipes, nil
}

// GetRecipe returns ErrNotFound both for missing recipes and for recipes of
// other users.
func (s *Catalog) GetRecipe(ctx context.Context, caller *db.User, id uint64) (*db.Recipe, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	recipe := db.Recipe{}
	res := s.db.WithContext(ctx).
		Preload("Tags", orderByName).
		Preload("Ingredients", orderByName).
		Where("id = ? AND user_id = ?", id, caller.ID).
		First(&recipe)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "get recipe")
	}
	return &recipe, nil
}

// CreateRecipe validates in, checks that every referenced tag and ingredient
// belongs to the caller and stores the recipe with its links in one
// transaction.
func (s *Catalog) CreateRecipe(ctx context.Context, caller *db.User, in RecipeInput) (*db.Recipe, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	verr := &ValidationError{}
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		verr.Add("title", "This field may not be blank.")
	case utf8.RuneCountInString(title) > maxNameLength:
		verr.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	if in.TimeMinutes == nil {
		verr.Add("time_minutes", "This field is required.")
	} else if *in.TimeMinutes < 0 {
		verr.Add("time_minutes", "Ensure this value is greater than or equal to 0.")
	}
	if in.Price == nil {
		verr.Add("price", "This field is required.")
	} else if *in.Price < 0 {
		verr.Add("price", "Ensure this value is greater than or equal to 0.")
	}

	tags := make([]db.Tag, 0)
	if err := s.loadOwned(ctx, caller, &tags, in.TagIDs, "tags", verr); err != nil {
		return nil, err
	}
	ingredients := make([]db.Ingredient, 0)
	if err := s.loadOwned(ctx, caller, &ingredients, in.IngredientIDs, "ingredients", verr); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	model := db.Recipe{
		Title:       title,
		TimeMinutes: *in.TimeMinutes,
		Price:       *in.Price,
		Link:        in.Link,
		UserID:      caller.ID,
		Tags:        tags,
		Ingredients: ingredients,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "create recipe")
	}

	s.logger.Debugw("recipe created", "user_id", caller.ID, "recipe_id", model.ID)
	return &model, nil
}

func (s *Catalog) listOwned(ctx context.Context, caller *db.User, dest interface{}, joinTable, joinColumn string, assignedOnly bool) error {
	if caller == nil {
		return ErrUnauthenticated
	}

	q := s.db.WithContext(ctx).Where("user_id = ?", caller.ID)
	if assignedOnly {
		sql, args, err := squirrel.
			Select("j." + joinColumn).From(joinTable + " j").
			Join("recipes r ON r.id = j.recipe_id").
			Where(squirrel.Eq{"r.user_id": caller.ID}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "build sql")
		}
		q = q.Where("id IN ("+sql+")", args...)
	}

	return orderByName(q).Find(dest).Error
}

// loadOwned fills dest with the caller's rows among ids and records a
// validation error on field for every id that is missing or foreign.
func (s *Catalog) loadOwned(ctx context.Context, caller *db.User, dest interface{}, ids []uint64, field string, verr *ValidationError) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Where("id IN ? AND user_id = ?", ids, caller.ID).Find(dest)
	if res.Error != nil {
		return errors.Wrap(res.Error, "load "+field)
	}

	owned := make(map[uint64]struct{}, len(ids))
	switch rows := dest.(type) {
	case *[]db.Tag:
		for _, row := range *rows {
			owned[row.ID] = struct{}{}
		}
	case *[]db.Ingredient:
		for _, row := range *rows {
			owned[row.ID] = struct{}{}
		}
	}
	for _, id := range ids {
		if _, ok := owned[id]; !ok {
			verr.Add(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	return nil
}

func orderByName(q *gorm.DB) *gorm.DB {
	return q.Order("name ASC").Order("id ASC")
}

func inSubquery(column string, sub squirrel.SelectBuilder) (squirrel.Sqlizer, error) {
	sql, args, err := sub.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build subquery")
	}
	return squirrel.Expr(column+" IN ("+sql+")", args...), nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errNameBlank()
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", NewValidationError("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	return name, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
