package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/example/nexkart/internal/services"
)

func performMutation(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()

	app := fiber.New()
	app.Post("/op", func(c *fiber.Ctx) error {
		return respondMutation(c, "done", err)
	})

	resp, reqErr := app.Test(httptest.NewRequest("POST", "/op", nil))
	if reqErr != nil {
		t.Fatalf("app.Test: %v", reqErr)
	}
	defer resp.Body.Close()

	// Thrown fiber errors come back as plain text; only envelopes are JSON.
	var body map[string]interface{}
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode, body
}

func TestRespondMutationSuccess(t *testing.T) {
	status, body := performMutation(t, nil)

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["success"] != true || body["message"] != "done" {
		t.Errorf("body = %v", body)
	}
}

func TestRespondMutationErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		envelope   bool
	}{
		{"validation", &services.ValidationError{Msg: "bad input"}, fiber.StatusBadRequest, false},
		{"authorization", &services.AuthorizationError{Msg: "not yours"}, fiber.StatusForbidden, false},
		{"not found", &services.NotFoundError{Msg: "missing"}, fiber.StatusNotFound, true},
		{"conflict", &services.ConflictError{Msg: "already shipped"}, fiber.StatusConflict, true},
		{"external", &services.ExternalError{Msg: "mail failed", Err: errors.New("smtp")}, fiber.StatusBadGateway, true},
	}

	for _, tc := range cases {
		status, body := performMutation(t, tc.err)
		if status != tc.wantStatus {
			t.Errorf("%s: status = %d, want %d", tc.name, status, tc.wantStatus)
			continue
		}
		if tc.envelope {
			if body["success"] != false {
				t.Errorf("%s: envelope success = %v, want false", tc.name, body["success"])
			}
			if body["message"] == "" {
				t.Errorf("%s: envelope message empty", tc.name)
			}
		}
	}
}

func TestRespondMutationUnknownErrorPassesThrough(t *testing.T) {
	status, _ := performMutation(t, errors.New("database exploded"))

	if status != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
}
