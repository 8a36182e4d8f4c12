package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCompanyFlow_RegisterAndBrowse(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "Maria Empreendedora", "maria@empresa.com", "senha123")

	// Step 1: Register a company
	rec := app.request("POST", "/api/empresas",
		`{"name":"Bolo da Vovo","descricao":"Confeitaria artesanal com bolos caseiros sob encomenda","preco":25000,"setor":"Alimentacao"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	empresa := result["empresa"].(map[string]interface{})
	companyID := empresa["id"].(float64)
	if empresa["ownerId"].(float64) != userID {
		t.Errorf("expected ownerId %.0f, got %v", userID, empresa["ownerId"])
	}
	if _, ok := result["emailSent"]; !ok {
		t.Error("expected emailSent flag in the registration response")
	}

	// Step 2: The company is publicly visible
	rec = app.request("GET", fmt.Sprintf("/api/empresas/%.0f", companyID), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	fetched := parseJSON(t, rec)
	if fetched["name"] != "Bolo da Vovo" {
		t.Errorf("expected name 'Bolo da Vovo', got %v", fetched["name"])
	}

	// Step 3: Filtered listing by name fragment and price band
	app.createCompany(t, token, "Fabrica de Bolos Finos", 80000)
	app.createCompany(t, token, "Oficina Mecanica Central", 40000)

	rec = app.request("GET", "/api/empresas?name=bolo", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	listing := parseJSON(t, rec)
	data := listing["data"].([]interface{})
	if len(data) != 2 {
		t.Fatalf("expected 2 companies matching 'bolo', got %d", len(data))
	}
	if listing["total_items"].(float64) != 2 {
		t.Errorf("expected total_items 2, got %v", listing["total_items"])
	}

	rec = app.request("GET", "/api/empresas?minPreco=30000&maxPreco=90000", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	listing = parseJSON(t, rec)
	if listing["total_items"].(float64) != 2 {
		t.Errorf("expected 2 companies in [30000, 90000], got %v", listing["total_items"])
	}
}

func TestCompanyFlow_CreateRejectsInvalidInput(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "Carlos Fundador Silva", "carlos@test.com", "senha123")

	// Price below the floor plus a too-short description
	rec := app.request("POST", "/api/empresas",
		`{"name":"Loja X","descricao":"curta","preco":500,"setor":"Varejo"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %v", errObj["code"])
	}
	fields := errObj["errors"].([]interface{})
	if len(fields) < 2 {
		t.Errorf("expected at least 2 field errors, got %d: %v", len(fields), fields)
	}
}

func TestCompanyFlow_OwnershipEnforced(t *testing.T) {
	app := setupApp(t)
	ownerToken, _ := app.registerUser(t, "Dona Legitima Santos", "dona@test.com", "senha123")
	otherToken, _ := app.registerUser(t, "Visitante Curioso Lima", "visitante@test.com", "senha123")
	companyID := app.createCompany(t, ownerToken, "Padaria do Bairro", 30000)

	// A non-owner cannot update
	rec := app.request("PUT", fmt.Sprintf("/api/empresas/%.0f", companyID),
		`{"preco":99000}`, otherToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner update, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN, got %v", errObj["code"])
	}

	// Nor delete
	rec = app.request("DELETE", fmt.Sprintf("/api/empresas/%.0f", companyID), "", otherToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner delete, got %d: %s", rec.Code, rec.Body.String())
	}

	// The owner can update
	rec = app.request("PUT", fmt.Sprintf("/api/empresas/%.0f", companyID),
		`{"preco":99000}`, ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner update failed: %d %s", rec.Code, rec.Body.String())
	}
	updated := parseJSON(t, rec)
	if updated["preco"].(float64) != 99000 {
		t.Errorf("expected preco 99000, got %v", updated["preco"])
	}

	// And delete
	rec = app.request("DELETE", fmt.Sprintf("/api/empresas/%.0f", companyID), "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", fmt.Sprintf("/api/empresas/%.0f", companyID), "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCompanyFlow_FinancialRecords(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "Gestora Financeira Rocha", "gestora@test.com", "senha123")
	companyID := app.createCompany(t, token, "Transportadora Veloz", 120000)
	base := fmt.Sprintf("/api/empresas/%.0f/dados-financeiros", companyID)

	// Step 1: Submit a batch across two years
	rec := app.request("POST", base,
		`{"dadosFinanceiros":[
			{"mes":"Março","valor":1500.50},
			{"mes":"Janeiro","valor":1200},
			{"mes":"Dezembro","valor":900,"ano":2023}
		]}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 2: Records come back newest year first, months in calendar order
	rec = app.request("GET", base, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	records := result["dadosFinanceiros"].([]interface{})
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	wantOrder := []struct {
		mes string
		ano float64
	}{
		{"Janeiro", 2024},
		{"Março", 2024},
		{"Dezembro", 2023},
	}
	for i, want := range wantOrder {
		got := records[i].(map[string]interface{})
		if got["mes"] != want.mes || got["ano"].(float64) != want.ano {
			t.Errorf("record %d: expected %s/%.0f, got %v/%v", i, want.mes, want.ano, got["mes"], got["ano"])
		}
	}

	// Step 3: Resubmitting an existing month conflicts and writes nothing
	rec = app.request("POST", base,
		`{"dadosFinanceiros":[{"mes":"Abril","valor":100},{"mes":"Março","valor":200}]}`, token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate month, got %d: %s", rec.Code, rec.Body.String())
	}
	errResult := parseJSON(t, rec)
	errObj := errResult["error"].(map[string]interface{})
	if errObj["code"] != "DUPLICATE_MONTH" {
		t.Errorf("expected DUPLICATE_MONTH, got %v", errObj["code"])
	}
	rec = app.request("GET", base, "", "")
	result = parseJSON(t, rec)
	if n := len(result["dadosFinanceiros"].([]interface{})); n != 3 {
		t.Errorf("expected batch to be atomic, found %d records", n)
	}

	// Step 4: Unknown month names are rejected
	rec = app.request("POST", base,
		`{"dadosFinanceiros":[{"mes":"January","valor":100}]}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown month, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 5: A non-owner cannot submit records
	otherToken, _ := app.registerUser(t, "Intruso Qualquer Dias", "intruso@test.com", "senha123")
	rec = app.request("POST", base,
		`{"dadosFinanceiros":[{"mes":"Maio","valor":100}]}`, otherToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStatusEndpointCounts(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "Contadora de Tudo Alves", "contadora@test.com", "senha123")
	companyID := app.createCompany(t, token, "Mercearia Esquina", 15000)

	app.request("POST", fmt.Sprintf("/api/empresas/%.0f/dados-financeiros", companyID),
		`{"dadosFinanceiros":[{"mes":"Janeiro","valor":500}]}`, token)
	app.request("POST", "/api/favoritos",
		fmt.Sprintf(`{"empresaId":%.0f}`, companyID), token)

	rec := app.request("GET", "/api/status", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	counts := parseJSON(t, rec)
	want := map[string]float64{
		"usuarios":         1,
		"empresas":         1,
		"favoritos":        1,
		"dadosFinanceiros": 1,
	}
	for key, expected := range want {
		if counts[key].(float64) != expected {
			t.Errorf("expected %s=%v, got %v", key, expected, counts[key])
		}
	}
}
