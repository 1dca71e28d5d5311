package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/logging-api/internal/domain/mocks"
	"github.com/user/logging-api/pkg/util"
)

func TestToken_Issued(t *testing.T) {
	srv := newTestServer(t, &mocks.MockLogStore{})

	req := httptest.NewRequest(http.MethodPost, "/auth/token",
		strings.NewReader(`{"applicationName":"Bank"}`))
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d\nbody: %s", res.Code, http.StatusOK, res.Body.String())
	}

	env := decodeEnvelope(t, res)
	raw, _ := json.Marshal(env.Data)
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &data); err != nil || data.Token == "" {
		t.Fatalf("response carries no token: %v\nbody: %s", err, res.Body.String())
	}

	claims, err := util.ValidateToken(data.Token, testSecret)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.ApplicationName != "Bank" {
		t.Errorf("applicationName claim = %q, want Bank", claims.ApplicationName)
	}
}

func TestToken_MissingApplicationName(t *testing.T) {
	srv := newTestServer(t, &mocks.MockLogStore{})

	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"blank name", `{"applicationName":""}`},
		{"not json", `applicationName=Bank`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(tt.body))
			res := httptest.NewRecorder()
			srv.ServeHTTP(res, req)

			if res.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", res.Code, http.StatusBadRequest)
			}
		})
	}
}
