package httputil_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/limbo/habitstreak/pkg/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.WriteErrorResponse(rec, http.StatusNotFound, "habit not found", errors.New("no rows"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := rec.Body.Bytes()
	assert.Equal(t, int64(404), gjson.GetBytes(body, "code").Int())
	assert.Equal(t, "habit not found", gjson.GetBytes(body, "message").String())
	assert.Equal(t, "no rows", gjson.GetBytes(body, "details").String())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}
	testCases := []struct {
		Desc      string
		Body      string
		ExpectErr bool
		Expected  string
	}{
		{Desc: "valid", Body: `{"title":"Read"}`, Expected: "Read"},
		{Desc: "empty", Body: "", ExpectErr: true},
		{Desc: "malformed", Body: `{"title":`, ExpectErr: true},
		{Desc: "too large", Body: `{"title":"` + strings.Repeat("a", httputil.MaxBodySize) + `"}`, ExpectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.Body))
			var p payload
			err := httputil.DecodeJSON(r, &p)
			if tc.ExpectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.Expected, p.Title)
		})
	}
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var p struct{}
	assert.ErrorIs(t, httputil.DecodeJSON(r, &p), httputil.ErrEmptyBody)
}
