package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"assetcontrol-backend/controllers"
	"assetcontrol-backend/models"
	"assetcontrol-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminToken(t *testing.T) (string, *testEnv) {
	env := newTestEnv(t)
	admin := createTestUser(t, env.db, "admin@test.com", "password123", models.RoleAdmin)
	return generateTestJWT(t, env.cfg, admin), env
}

func createAsset(t *testing.T, env *testEnv, token, name, code string) models.Asset {
	t.Helper()

	resp := doRequest(t, env.app, "POST", "/assets", controllers.CreateAssetRequest{Name: name, Code: code}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var asset models.Asset
	decodeJSON(t, resp, &asset)
	return asset
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	msg, _ := body["error"].(string)
	return msg
}

func TestCreateAndGetAsset(t *testing.T) {
	token, env := adminToken(t)

	resp := doRequest(t, env.app, "POST", "/assets", controllers.CreateAssetRequest{Name: " Monitor Dell ", Code: " MON-1 "}, token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	location := resp.Header.Get("Location")

	var created models.Asset
	decodeJSON(t, resp, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Monitor Dell", created.Name)
	assert.Equal(t, "MON-1", created.Code)
	assert.Equal(t, models.AssetStatusAvailable, created.Status)
	assert.Nil(t, created.CheckedOutBy)
	assert.Equal(t, fmt.Sprintf("/assets/%d", created.ID), location)

	resp = doRequest(t, env.app, "GET", fmt.Sprintf("/assets/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Asset
	decodeJSON(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Monitor Dell", fetched.Name)
}

func TestAssetResponseUsesCamelCase(t *testing.T) {
	token, env := adminToken(t)
	asset := createAsset(t, env, token, "Monitor", "MON-1")

	resp := doRequest(t, env.app, "GET", fmt.Sprintf("/assets/%d", asset.ID), nil, "")
	var body map[string]interface{}
	decodeJSON(t, resp, &body)

	for _, key := range []string{"id", "name", "code", "status", "checkedOutBy", "notes", "checkedOutAt", "createdAt", "updatedAt"} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, "Available", body["status"])
	assert.Nil(t, body["checkedOutBy"])
}

func TestCreateAssetDuplicateCode(t *testing.T) {
	token, env := adminToken(t)
	createAsset(t, env, token, "Monitor", "MON-1")

	resp := doRequest(t, env.app, "POST", "/assets", controllers.CreateAssetRequest{Name: "Outro", Code: "MON-1"}, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Asset code is already registered", errorMessage(t, resp))
}

func TestCreateAssetValidation(t *testing.T) {
	token, env := adminToken(t)

	tests := []struct {
		name    string
		request controllers.CreateAssetRequest
	}{
		{"empty name", controllers.CreateAssetRequest{Name: "", Code: "MON-1"}},
		{"blank name", controllers.CreateAssetRequest{Name: "   ", Code: "MON-1"}},
		{"short name", controllers.CreateAssetRequest{Name: "M", Code: "MON-1"}},
		{"long name", controllers.CreateAssetRequest{Name: strings.Repeat("a", 101), Code: "MON-1"}},
		{"empty code", controllers.CreateAssetRequest{Name: "Monitor", Code: ""}},
		{"short code", controllers.CreateAssetRequest{Name: "Monitor", Code: "M"}},
		{"long code", controllers.CreateAssetRequest{Name: "Monitor", Code: strings.Repeat("c", 51)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, env.app, "POST", "/assets", tt.request, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(t, resp))
		})
	}

	var count int64
	env.db.Model(&models.Asset{}).Count(&count)
	assert.Zero(t, count)

	// Длина считается в символах, а не в байтах
	resp := doRequest(t, env.app, "POST", "/assets", controllers.CreateAssetRequest{Name: strings.Repeat("é", 100), Code: "ÇÃ"}, token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestMutatingEndpointsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := createTestUser(t, env.db, "admin@test.com", "password123", models.RoleAdmin)
	user := createTestUser(t, env.db, "user@test.com", "password123", models.RoleUser)
	asset := createAsset(t, env, generateTestJWT(t, env.cfg, admin), "Monitor", "MON-1")
	userToken := generateTestJWT(t, env.cfg, user)

	id := asset.ID
	endpoints := []struct {
		method string
		path   string
		body   interface{}
	}{
		{"POST", "/assets", controllers.CreateAssetRequest{Name: "Mouse", Code: "MOU-1"}},
		{"PUT", fmt.Sprintf("/assets/%d", id), controllers.UpdateAssetRequest{Name: "Renamed"}},
		{"DELETE", fmt.Sprintf("/assets/%d", id), nil},
		{"POST", fmt.Sprintf("/assets/%d/checkout", id), controllers.CheckoutRequest{TakenBy: "Ana"}},
		{"POST", fmt.Sprintf("/assets/%d/checkin", id), nil},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			resp := doRequest(t, env.app, ep.method, ep.path, ep.body, "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			resp = doRequest(t, env.app, ep.method, ep.path, ep.body, "not-a-jwt")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			resp = doRequest(t, env.app, ep.method, ep.path, ep.body, userToken)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}

	// Ничего не изменилось
	var stored models.Asset
	require.NoError(t, env.db.First(&stored, id).Error)
	assert.Equal(t, "Monitor", stored.Name)
	assert.Equal(t, models.AssetStatusAvailable, stored.Status)
}

func TestUpdateAsset(t *testing.T) {
	token, env := adminToken(t)
	asset := createAsset(t, env, token, "Monitor", "MON-1")

	resp := doRequest(t, env.app, "PUT", fmt.Sprintf("/assets/%d", asset.ID), controllers.UpdateAssetRequest{Name: "  Monitor Dell  "}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Asset
	decodeJSON(t, resp, &updated)
	assert.Equal(t, "Monitor Dell", updated.Name)
	assert.Equal(t, "MON-1", updated.Code)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	resp = doRequest(t, env.app, "PUT", "/assets/9999", controllers.UpdateAssetRequest{Name: "Nothing"}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Asset not found", errorMessage(t, resp))

	resp = doRequest(t, env.app, "PUT", fmt.Sprintf("/assets/%d", asset.ID), controllers.UpdateAssetRequest{Name: "x"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutAndCheckinFlow(t *testing.T) {
	token, env := adminToken(t)
	asset := createAsset(t, env, token, "Teclado", "TEC-1")
	base := fmt.Sprintf("/assets/%d", asset.ID)

	resp := doRequest(t, env.app, "POST", base+"/checkin", nil, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Asset is already available", errorMessage(t, resp))

	note := " Mesa 2 "
	resp = doRequest(t, env.app, "POST", base+"/checkout", controllers.CheckoutRequest{TakenBy: " Rodrigo ", Note: &note}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var checkedOut models.Asset
	decodeJSON(t, resp, &checkedOut)
	assert.Equal(t, models.AssetStatusInUse, checkedOut.Status)
	require.NotNil(t, checkedOut.CheckedOutBy)
	assert.Equal(t, "Rodrigo", *checkedOut.CheckedOutBy)
	require.NotNil(t, checkedOut.Notes)
	assert.Equal(t, "Mesa 2", *checkedOut.Notes)
	assert.NotNil(t, checkedOut.CheckedOutAt)

	resp = doRequest(t, env.app, "POST", base+"/checkout", controllers.CheckoutRequest{TakenBy: "Bruno"}, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Asset is already in use", errorMessage(t, resp))

	resp = doRequest(t, env.app, "POST", base+"/checkin", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var checkedIn models.Asset
	decodeJSON(t, resp, &checkedIn)
	assert.Equal(t, models.AssetStatusAvailable, checkedIn.Status)
	assert.Nil(t, checkedIn.CheckedOutBy)
	assert.Nil(t, checkedIn.Notes)
	assert.Nil(t, checkedIn.CheckedOutAt)
	assert.Equal(t, asset.ID, checkedIn.ID)
	assert.Equal(t, asset.Code, checkedIn.Code)
}

func TestCheckoutValidation(t *testing.T) {
	token, env := adminToken(t)
	asset := createAsset(t, env, token, "Teclado", "TEC-1")
	path := fmt.Sprintf("/assets/%d/checkout", asset.ID)

	longNote := strings.Repeat("n", 201)
	tests := []struct {
		name    string
		request controllers.CheckoutRequest
	}{
		{"missing takenBy", controllers.CheckoutRequest{}},
		{"blank takenBy", controllers.CheckoutRequest{TakenBy: "  "}},
		{"long takenBy", controllers.CheckoutRequest{TakenBy: strings.Repeat("t", 101)}},
		{"long note", controllers.CheckoutRequest{TakenBy: "Ana", Note: &longNote}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, env.app, "POST", path, tt.request, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp := doRequest(t, env.app, "POST", "/assets/9999/checkout", controllers.CheckoutRequest{TakenBy: "Ana"}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, env.app, "POST", "/assets/9999/checkin", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAsset(t *testing.T) {
	token, env := adminToken(t)
	asset := createAsset(t, env, token, "Proj", "X1")
	path := fmt.Sprintf("/assets/%d", asset.ID)

	resp := doRequest(t, env.app, "DELETE", path, nil, token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, env.app, "GET", path, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Asset not found", errorMessage(t, resp))

	resp = doRequest(t, env.app, "DELETE", path, nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvalidAssetID(t *testing.T) {
	token, env := adminToken(t)

	for _, path := range []string{"/assets/abc", "/assets/0", "/assets/-1"} {
		resp := doRequest(t, env.app, "GET", path, nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}

	resp := doRequest(t, env.app, "DELETE", "/assets/abc", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAssets(t *testing.T) {
	token, env := adminToken(t)
	createAsset(t, env, token, "Monitor Dell", "A1")
	createAsset(t, env, token, "Monitor Samsung", "B1")
	createAsset(t, env, token, "Projetor Epson", "C1")

	tests := []struct {
		name          string
		query         string
		expectedTotal int64
		expectedNames []string
		expectedPage  int
		expectedSize  int
	}{
		{"defaults", "", 3, []string{"Monitor Dell", "Monitor Samsung", "Projetor Epson"}, 1, 10},
		{"page size two", "?pageSize=2", 3, []string{"Monitor Dell", "Monitor Samsung"}, 1, 2},
		{"second page", "?page=2&pageSize=2", 3, []string{"Projetor Epson"}, 2, 2},
		{"search is case-insensitive", "?search=MONITOR", 2, []string{"Monitor Dell", "Monitor Samsung"}, 1, 10},
		{"search by code", "?search=c1", 1, []string{"Projetor Epson"}, 1, 10},
		{"sort by name desc", "?sortBy=name&sortDir=desc", 3, []string{"Projetor Epson", "Monitor Samsung", "Monitor Dell"}, 1, 10},
		{"sort by code desc", "?sortBy=code&sortDir=desc", 3, []string{"Projetor Epson", "Monitor Samsung", "Monitor Dell"}, 1, 10},
		{"unknown sort falls back", "?sortBy=bogus&sortDir=bogus", 3, []string{"Monitor Dell", "Monitor Samsung", "Projetor Epson"}, 1, 10},
		{"page clamped", "?page=-4", 3, []string{"Monitor Dell", "Monitor Samsung", "Projetor Epson"}, 1, 10},
		{"page size clamped low", "?pageSize=0", 3, []string{"Monitor Dell"}, 1, 1},
		{"page size clamped high", "?pageSize=500", 3, []string{"Monitor Dell", "Monitor Samsung", "Projetor Epson"}, 1, 100},
		{"non-numeric paging uses defaults", "?page=x&pageSize=y", 3, []string{"Monitor Dell", "Monitor Samsung", "Projetor Epson"}, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, env.app, "GET", "/assets"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var page services.PagedResult[models.Asset]
			decodeJSON(t, resp, &page)

			names := make([]string, 0, len(page.Items))
			for _, item := range page.Items {
				names = append(names, item.Name)
			}
			assert.Equal(t, tt.expectedTotal, page.Total)
			assert.Equal(t, tt.expectedNames, names)
			assert.Equal(t, tt.expectedPage, page.Page)
			assert.Equal(t, tt.expectedSize, page.PageSize)
		})
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := doRequest(t, env.app, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	env := newTestEnv(t)
	env.app.Get("/failing", func(c *fiber.Ctx) error {
		return errors.New("pq: password authentication failed for user \"assets\"")
	})
	env.app.Get("/panicking", func(c *fiber.Ctx) error {
		panic("nil map write in handler")
	})

	for _, path := range []string{"/failing", "/panicking"} {
		resp := doRequest(t, env.app, "GET", path, nil, "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.Equal(t, "Internal server error", errorMessage(t, resp), path)
	}

	// Ошибки Fiber сохраняют свой статус и текст
	resp := doRequest(t, env.app, "GET", "/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Cannot GET /missing", errorMessage(t, resp))
}
