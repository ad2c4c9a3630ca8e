package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/models"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/service"
)

func (s *HTTPServer) UserCreate(c echo.Context) error {
	req := models.UserCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.identity.CreateUser(c.Request().Context(), req.Email, req.Password, service.UserFields{
		Name: req.Name,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, userResp(user))
}

func (s *HTTPServer) TokenCreate(c echo.Context) error {
	req := models.TokenReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	tok, err := s.tokens.Issue(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.TokenResp{Token: tok.Key})
}

func (s *HTTPServer) UserMe(c echo.Context) error {
	caller, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	user, err := s.identity.GetSelf(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResp(user))
}

// UserMeUpdate serves PATCH (partial) and PUT (email and password required).
func (s *HTTPServer) UserMeUpdate(c echo.Context) error {
	caller, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.UserUpdateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	if c.Request().Method == http.MethodPut {
		verr := &service.ValidationError{}
		if req.Email == nil {
			verr.Add("email", "This field is required.")
		}
		if req.Password == nil {
			verr.Add("password", "This field is required.")
		}
		if !verr.Empty() {
			return verr
		}
	}

	user, err := s.identity.UpdateSelf(c.Request().Context(), caller, service.ProfilePatch{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResp(user))
}

func (s *HTTPServer) AdminUsers(c echo.Context) error {
	caller, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	users, err := s.identity.ListUsers(c.Request().Context(), caller)
	if err != nil {
		return err
	}

	resp := make([]models.UserAdminResp, len(users))
	for i := range users {
		resp[i] = models.UserAdminResp{
			ID:          users[i].ID,
			Email:       users[i].Email,
			Name:        users[i].Name,
			IsActive:    users[i].IsActive,
			IsStaff:     users[i].IsStaff,
			IsSuperuser: users[i].IsSuperuser,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) TagGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	tags, err := s.catalog.ListTags(c.Request().Context(), user, parseBool(c.QueryParam("assigned_only")))
	if err != nil {
		return err
	}

	resp := make([]models.TagResp, len(tags))
	for i := range tags {
		resp[i] = tagResp(&tags[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) TagCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.TagReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	model, err := s.catalog.CreateTag(c.Request().Context(), user, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tagResp(model))
}

func (s *HTTPServer) IngredientGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	ingredients, err := s.catalog.ListIngredients(c.Request().Context(), user, parseBool(c.QueryParam("assigned_only")))
	if err != nil {
		return err
	}

	resp := make([]models.IngredientResp, len(ingredients))
	for i := range ingredients {
		resp[i] = ingredientResp(&ingredients[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) IngredientCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.IngredientReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	model, err := s.catalog.CreateIngredient(c.Request().Context(), user, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ingredientResp(model))
}

func (s *HTTPServer) RecipeGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	tagIDs, err := parseIDList("tags", c.QueryParam("tags"))
	if err != nil {
		return err
	}
	ingredientIDs, err := parseIDList("ingredients", c.QueryParam("ingredients"))
	if err != nil {
		return err
	}

	recipes, err := s.catalog.ListRecipes(c.Request().Context(), user, service.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return err
	}

	resp := make([]models.RecipeResp, len(recipes))
	for i := range recipes {
		resp[i] = recipeResp(&recipes[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) RecipeCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := models.RecipeReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	model, err := s.catalog.CreateRecipe(c.Request().Context(), user, service.RecipeInput{
		Title:         req.Title,
		TimeMinutes:   req.TimeMinutes,
		Price:         req.Price,
		Link:          req.Link,
		TagIDs:        req.Tags,
		IngredientIDs: req.Ingredients,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, recipeResp(model))
}

func (s *HTTPServer) RecipeDetail(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	model, err := s.catalog.GetRecipe(c.Request().Context(), user, id)
	if err != nil {
		return err
	}

	resp := models.RecipeDetailResp{
		ID:          model.ID,
		Title:       model.Title,
		TimeMinutes: model.TimeMinutes,
		Price:       model.Price,
		Link:        model.Link,
		Tags:        make([]models.TagResp, len(model.Tags)),
		Ingredients: make([]models.IngredientResp, len(model.Ingredients)),
	}
	for i := range model.Tags {
		resp.Tags[i] = tagResp(&model.Tags[i])
	}
	for i := range model.Ingredients {
		resp.Ingredients[i] = ingredientResp(&model.Ingredients[i])
	}
	return c.JSON(http.StatusOK, resp)
}

////////

func userResp(u *db.User) models.UserResp {
	return models.UserResp{
		Email: u.Email,
		Name:  u.Name,
	}
}

func tagResp(t *db.Tag) models.TagResp {
	return models.TagResp{
		ID:   t.ID,
		Name: t.Name,
	}
}

func ingredientResp(i *db.Ingredient) models.IngredientResp {
	return models.IngredientResp{
		ID:   i.ID,
		Name: i.Name,
	}
}

func recipeResp(r *db.Recipe) models.RecipeResp {
	resp := models.RecipeResp{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        make([]uint64, len(r.Tags)),
		Ingredients: make([]uint64, len(r.Ingredients)),
	}
	for i := range r.Tags {
		resp.Tags[i] = r.Tags[i].ID
	}
	for i := range r.Ingredients {
		resp.Ingredients[i] = r.Ingredients[i].ID
	}
	return resp
}
