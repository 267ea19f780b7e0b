package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/secure-task-api/internal/constants"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"", 1, constants.DefaultPageSize, 0},
		{"?page=3&limit=10", 3, 10, 20},
		{"?page=0&limit=1000", 1, constants.DefaultPageSize, 0},
		{"?page=abc&limit=-5", 1, constants.DefaultPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("POST", "/api/users/searchUsers"+tt.query, nil)

			params := GetPaginationParams(c)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
			assert.Equal(t, tt.wantOffset, params.Offset)
		})
	}
}

func TestPaginationResponse(t *testing.T) {
	response := NewPaginationParams(2, 5).Response(12)

	assert.Equal(t, PaginationResponse{Page: 2, Limit: 5, Total: 12}, response)
}
