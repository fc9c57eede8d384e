package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mo-amir99/lms-progress-go/internal/testutil"
	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
	"github.com/mo-amir99/lms-progress-go/pkg/response"
)

func newRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Handler(testutil.Logger()))
	router.GET("/things/:thingId", handler)
	return router
}

func serve(t *testing.T, router *gin.Engine, path string) (int, response.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHandlerRendersAppError(t *testing.T) {
	forbidden := apperrors.New("Not enrolled.", http.StatusForbidden, apperrors.ErrForbidden, nil)
	router := newRouter(func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("lookup: %w", forbidden))
	})

	status, body := serve(t, router, "/things/x")
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Not enrolled.", body.Message)
	assert.Equal(t, string(apperrors.ErrForbidden), body.Error)
}

func TestHandlerClassifiesPlainErrors(t *testing.T) {
	router := newRouter(func(c *gin.Context) {
		switch c.Param("thingId") {
		case "missing":
			_ = c.Error(gorm.ErrRecordNotFound)
		default:
			_ = c.Error(errors.New("connection reset"))
		}
	})

	status, body := serve(t, router, "/things/missing")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(apperrors.ErrNotFound), body.Error)

	status, body = serve(t, router, "/things/other")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestUUIDParamRejectsGarbage(t *testing.T) {
	router := newRouter(func(c *gin.Context) {
		if _, ok := UUIDParam(c, "thingId"); !ok {
			return
		}
		response.OK(c, "fine")
	})

	status, body := serve(t, router, "/things/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(apperrors.ErrValidation), body.Error)

	status, body = serve(t, router, "/things/5f0c8c4e-7a2b-4e57-9d7c-1c2b3a4d5e6f")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
}
