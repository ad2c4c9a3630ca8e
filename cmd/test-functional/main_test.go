//go:build functional

package test_functional

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	u := endpoint("/user/create")

	t.Run("successful register", func(t *testing.T) {
		defer FlushDB()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		type Resp struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}

		resp, err := resty.New().
			R().
			SetHeader("Content-Type", "application/json").
			SetContext(ctx).
			SetResult(&Resp{}).
			SetBody(`
			{"email": "Test@Gmail.com", "password": "111111111111", "name": "Test"}
		`).
			Post(u)
		assert.Nil(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode())

		got, ok := resp.Result().(*Resp)
		assert.True(t, ok)
		assert.Equal(t, "test@gmail.com", got.Email)
		assert.Equal(t, "Test", got.Name)
		assert.NotContains(t, resp.String(), "password")

		var (
			id   uint64
			hash string
		)
		err = DBConn.QueryRow(ctx, "SELECT id, password FROM users WHERE email=$1", got.Email).Scan(&id, &hash)
		assert.Nil(t, err)
		assert.NotEqual(t, "111111111111", hash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		defer FlushDB()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		register(t, ctx, "test@gmail.com", "111111111111")

		resp, err := resty.New().
			R().
			SetContext(ctx).
			SetBody(map[string]string{"email": "test@gmail.com", "password": "111111111111", "name": "Test"}).
			Post(u)
		assert.Nil(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})

	t.Run("bad body", func(t *testing.T) {
		defer FlushDB()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		resp, err := resty.New().
			R().
			SetHeader("Content-Type", "application/json").
			SetContext(ctx).
			SetBody(`
			{"something": "???"}
		`).
			Post(u)
		assert.Nil(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})
}

func TestToken(t *testing.T) {
	defer FlushDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	token := register(t, ctx, "test@gmail.com", "111111111111")

	var stored string
	err := DBConn.QueryRow(ctx, "SELECT t.key FROM tokens t JOIN users u ON u.id = t.user_id WHERE u.email=$1", "test@gmail.com").Scan(&stored)
	require.Nil(t, err)
	assert.Equal(t, stored, token)

	resp, err := resty.New().
		R().
		SetContext(ctx).
		SetBody(map[string]string{"email": "test@gmail.com", "password": "wrong"}).
		Post(endpoint("/user/token"))
	assert.Nil(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.NotContains(t, resp.String(), "token\"")
}

func TestMe(t *testing.T) {
	defer FlushDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	resp, err := resty.New().R().SetContext(ctx).Get(endpoint("/user/me"))
	assert.Nil(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())

	token := register(t, ctx, "test@gmail.com", "111111111111")

	type Resp struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	resp, err = resty.New().
		R().
		SetContext(ctx).
		SetAuthScheme("Token").
		SetAuthToken(token).
		SetResult(&Resp{}).
		SetBody(map[string]string{"name": "New name"}).
		Patch(endpoint("/user/me"))
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "New name", resp.Result().(*Resp).Name)
}

func TestTagsCrud(t *testing.T) {
	defer FlushDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	type Tag struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}

	own := register(t, ctx, "test@gmail.com", "111111111111")
	other := register(t, ctx, "other@gmail.com", "111111111111")

	for _, name := range []string{"Vegan", "Dessert"} {
		resp, err := resty.New().
			R().
			SetContext(ctx).
			SetHeader("Authorization", "Token "+own).
			SetBody(map[string]string{"name": name}).
			Post(endpoint("/recipe/tags"))
		require.Nil(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode())
	}
	_, err := resty.New().
		R().
		SetContext(ctx).
		SetHeader("Authorization", "Token "+other).
		SetBody(map[string]string{"name": "Fruity"}).
		Post(endpoint("/recipe/tags"))
	require.Nil(t, err)

	resp, err := resty.New().
		R().
		SetContext(ctx).
		SetHeader("Authorization", "Token "+own).
		SetResult(&[]Tag{}).
		Get(endpoint("/recipe/tags"))
	require.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	got := *resp.Result().(*[]Tag)
	require.Len(t, got, 2)
	assert.Equal(t, "Dessert", got[0].Name)
	assert.Equal(t, "Vegan", got[1].Name)

	var count int
	err = DBConn.QueryRow(ctx, "SELECT count(*) FROM tags").Scan(&count)
	assert.Nil(t, err)
	assert.Equal(t, 3, count)
}
