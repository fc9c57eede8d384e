package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/probe/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/probe/:id", "418"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe/42", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/probe/:id", "418"))
	assert.Equal(t, before+1, after)
}

func TestProgressCounters(t *testing.T) {
	before := testutil.ToFloat64(progressUpdates.WithLabelValues("ok"))
	RecordProgressUpdate("ok")
	assert.Equal(t, before+1, testutil.ToFloat64(progressUpdates.WithLabelValues("ok")))

	completions := testutil.ToFloat64(courseCompletions)
	RecordCourseCompletion()
	assert.Equal(t, completions+1, testutil.ToFloat64(courseCompletions))
}
