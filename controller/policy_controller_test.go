// api/controller/policy_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	testify_mock "github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/warden-labs/zerotrust/api/controller"
	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
	ztx_mock "github.com/warden-labs/zerotrust/api/test/mock"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	m.Run()
}

func setupPolicyRouter(svc *ztx_mock.MockPolicyService) *gin.Engine {
	router := gin.New()
	api := router.Group("/")
	controller.NewPolicyController(svc).RegisterRoutes(api)
	return router
}

func TestPolicyController(t *testing.T) {
	mockPolicyService := new(ztx_mock.MockPolicyService)
	router := setupPolicyRouter(mockPolicyService)

	t.Run("CreatePolicy_Success", func(t *testing.T) {
		mockPolicyService.On("CreatePolicy", testify_mock.Anything, testify_mock.Anything, testify_mock.Anything).
			Return(&model.Policy{ID: "1", Name: "Test Policy"}, nil).Once()

		body := strings.NewReader(`{"name":"Test Policy"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("CreatePolicy_Failure_InvalidData", func(t *testing.T) {
		mockPolicyService.On("CreatePolicy", testify_mock.Anything, testify_mock.Anything, testify_mock.Anything).
			Return(nil, ztx_errors.ErrInvalidPolicyData).Once()

		body := strings.NewReader(`{"name":""}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CreatePolicy_Failure_Conflict", func(t *testing.T) {
		mockPolicyService.On("CreatePolicy", testify_mock.Anything, testify_mock.Anything, testify_mock.Anything).
			Return(nil, ztx_errors.ErrPolicyConflict).Once()

		body := strings.NewReader(`{"name":"Existing"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("UpdatePolicy_Success", func(t *testing.T) {
		mockPolicyService.On("UpdatePolicy", testify_mock.Anything, testify_mock.Anything, testify_mock.Anything).
			Return(&model.Policy{ID: "1", Name: "Updated Policy"}, nil).Once()

		body := strings.NewReader(`{"name":"Updated Policy"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/policies/1", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("UpdatePolicy_Failure_NotFound", func(t *testing.T) {
		mockPolicyService.On("UpdatePolicy", testify_mock.Anything, testify_mock.Anything, testify_mock.Anything).
			Return(nil, ztx_errors.ErrPolicyNotFound).Once()

		body := strings.NewReader(`{"name":"Updated Policy"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/policies/1", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DeletePolicy_Success", func(t *testing.T) {
		mockPolicyService.On("DeletePolicy", testify_mock.Anything, "1", testify_mock.Anything).
			Return(nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/policies/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("DeletePolicy_Failure_NotFound", func(t *testing.T) {
		mockPolicyService.On("DeletePolicy", testify_mock.Anything, "1", testify_mock.Anything).
			Return(ztx_errors.ErrPolicyNotFound).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/policies/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GetPolicy_Success", func(t *testing.T) {
		mockPolicyService.On("GetPolicy", testify_mock.Anything, "1").
			Return(&model.Policy{ID: "1", Name: "Test Policy"}, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/policies/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var policy model.Policy
		json.NewDecoder(w.Body).Decode(&policy)
		assert.Equal(t, "1", policy.ID)
	})

	t.Run("GetPolicy_Failure_NotFound", func(t *testing.T) {
		mockPolicyService.On("GetPolicy", testify_mock.Anything, "1").
			Return(nil, ztx_errors.ErrPolicyNotFound).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/policies/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ListPolicies_Success", func(t *testing.T) {
		policies := []*model.Policy{
			{ID: "1", Name: "Policy 1"},
			{ID: "2", Name: "Policy 2"},
		}
		mockPolicyService.On("ListPolicies", testify_mock.Anything, testify_mock.Anything, testify_mock.Anything).
			Return(policies, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/policies", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ListPolicies_Failure_BadPagination", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/policies?limit=abc", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("SearchPolicies_Success", func(t *testing.T) {
		policies := []*model.Policy{
			{ID: "1", Name: "Policy 1"},
		}
		mockPolicyService.On("SearchPolicies", testify_mock.Anything, testify_mock.Anything).
			Return(policies, nil).Once()

		body := strings.NewReader(`{"name":"Policy"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies/search", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("BulkCreatePolicies_Success", func(t *testing.T) {
		mockPolicyService.On("BulkCreatePolicies", testify_mock.Anything, testify_mock.Anything, testify_mock.Anything).
			Return([]string{"1", "2"}, nil).Once()

		body := strings.NewReader(`[{"name":"Policy 1"},{"name":"Policy 2"}]`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/policies/bulk", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string][]string
		json.NewDecoder(w.Body).Decode(&response)
		assert.Len(t, response["policy_ids"], 2)
	})

	mockPolicyService.AssertExpectations(t)
}
