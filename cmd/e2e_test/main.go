package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Add Stock
	id := addStock()
	fmt.Printf("Created Stock ID: %d\n", id)

	// 3. List Stocks
	checkEndpoint("GET", "/stocks/all", nil, 200)

	// 4. Get Stock By ID
	checkEndpoint("GET", fmt.Sprintf("/stocks/%d", id), nil, 200)

	// 5. Update Stock
	update := map[string]interface{}{
		"name":      "Infosys Ltd",
		"ticker":    "INFY",
		"quantity":  15,
		"buy_price": "18.50",
	}
	checkEndpoint("PUT", fmt.Sprintf("/stocks/%d", id), update, 200)

	// 6. Portfolio Value
	checkEndpoint("GET", "/portfolio/value", nil, 200)

	// 7. Portfolio Metrics
	checkEndpoint("GET", "/portfolio/metrics", nil, 200)

	// 8. Distribution
	checkEndpoint("GET", "/stocks/distribution", nil, 200)

	// 9. Delete Stock
	checkEndpoint("DELETE", fmt.Sprintf("/stocks/%d", id), nil, 204)

	// 10. Verify Gone
	checkEndpoint("GET", fmt.Sprintf("/stocks/%d", id), nil, 404)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
}

func addStock() int64 {
	fmt.Println("Adding stock...")
	reqBody := map[string]interface{}{
		"name":      "Infosys",
		"ticker":    "INFY",
		"quantity":  10,
		"buy_price": "17.25",
	}
	jsonBody, _ := json.Marshal(reqBody)
	resp, err := http.Post(baseURL+"/stocks/add", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Fatalf("Add stock failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Add stock failed with status %d: %s", resp.StatusCode, string(body))
	}

	var res struct {
		ID int64 `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&res)
	return res.ID
}
