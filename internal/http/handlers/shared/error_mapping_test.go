package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
)

func TestRespondServiceErrorVoucherStateIsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "insufficient", err: fmt.Errorf("redeem: %w", service.ErrVoucherInsufficient), want: response.CodeConflict},
		{name: "inactive", err: service.ErrVoucherInactive, want: response.CodeConflict},
		{name: "invalid input", err: service.ErrVoucherInvalidInput, want: response.CodeBadRequest},
		{name: "not owned", err: service.ErrVoucherNotOwned, want: response.CodeNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

		RespondServiceError(c, tc.err, "error.save_failed")

		var body struct {
			StatusCode int `json:"status_code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode response failed: %v", tc.name, err)
		}
		if body.StatusCode != tc.want {
			t.Fatalf("%s: want code %d got %d", tc.name, tc.want, body.StatusCode)
		}
	}
}
