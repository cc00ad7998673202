//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func baseURL() string {
	if u := os.Getenv("E2E_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func authToken(t *testing.T) string {
	t.Helper()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}
	claims := jwt.MapClaims{
		"user_id": "e2e-user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, method, url, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp, result
}

func TestDebtLifecycleE2E(t *testing.T) {
	token := authToken(t)

	// create a debt
	resp, result := doJSON(t, http.MethodPost, baseURL()+"/api/v1/debts", token, map[string]interface{}{
		"type":       "debt",
		"party_name": "Budi E2E",
		"title":      "E2E loan",
		"amount":     1000000,
		"due_date":   time.Now().AddDate(0, 0, 10).Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating debt, got %d: %v", resp.StatusCode, result)
	}
	debt, ok := result["debt"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response missing debt: %v", result)
	}
	debtID := debt["id"].(string)

	// paying it without an account must fail fast
	resp, result = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/debts/%s/payments", baseURL(), debtID), token,
		map[string]interface{}{"amount": 1000000})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without account, got %d: %v", resp.StatusCode, result)
	}

	// paying without a mirror transaction settles the debt
	resp, result = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/debts/%s/payments", baseURL(), debtID), token,
		map[string]interface{}{
			"amount":             1000000,
			"record_transaction": false,
			"idempotency_key":    "e2e-" + time.Now().Format("20060102150405"),
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 creating payment, got %d: %v", resp.StatusCode, result)
	}
	paidDebt := result["debt"].(map[string]interface{})
	if paidDebt["status"] != "paid" {
		t.Errorf("Expected status paid, got %v", paidDebt["status"])
	}

	// overpaying a settled debt is rejected
	resp, result = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/debts/%s/payments", baseURL(), debtID), token,
		map[string]interface{}{
			"amount":             500,
			"record_transaction": false,
		})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 overpaying, got %d: %v", resp.StatusCode, result)
	}

	// cleanup
	resp, _ = doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/api/v1/debts/%s", baseURL(), debtID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 deleting debt, got %d", resp.StatusCode)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	resp, err := http.Get(baseURL() + "/api/v1/debts")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", resp.StatusCode)
	}
}
