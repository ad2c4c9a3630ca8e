package models

type UserCreateReq struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,min=5,max=72"`
	Name     string `json:"name" form:"name" validate:"required,max=80"`
}

type UserUpdateReq struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=5,max=72"`
	Name     *string `json:"name" validate:"omitempty,max=80"`
}

type UserResp struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UserAdminResp struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

type TokenReq struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type TokenResp struct {
	Token string `json:"token"`
}

type TagReq struct {
	Name string `json:"name" form:"name" validate:"required,max=255"`
}

type TagResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type IngredientReq struct {
	Name string `json:"name" form:"name" validate:"required,max=255"`
}

type IngredientResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type RecipeReq struct {
	Title       string   `json:"title" validate:"required,max=255"`
	TimeMinutes *int     `json:"time_minutes" validate:"required,min=0"`
	Price       *Price   `json:"price" validate:"required"`
	Link        *string  `json:"link" validate:"omitempty,url,max=255"`
	Tags        []uint64 `json:"tags"`
	Ingredients []uint64 `json:"ingredients"`
}

type RecipeResp struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	TimeMinutes int      `json:"time_minutes"`
	Price       Price    `json:"price"`
	Link        *string  `json:"link"`
	Tags        []uint64 `json:"tags"`
	Ingredients []uint64 `json:"ingredients"`
}

type RecipeDetailResp struct {
	ID          uint64           `json:"id"`
	Title       string           `json:"title"`
	TimeMinutes int              `json:"time_minutes"`
	Price       Price            `json:"price"`
	Link        *string          `json:"link"`
	Tags        []TagResp        `json:"tags"`
	Ingredients []IngredientResp `json:"ingredients"`
}

// ErrorResp is the body of non-validation errors.
type ErrorResp struct {
	Detail string `json:"detail"`
}
