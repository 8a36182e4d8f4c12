package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"vpe/internal/config"
	apperrors "vpe/internal/errors"
	"vpe/internal/models"
	"vpe/internal/pagination"
	"vpe/internal/services"
)

// --- mock company service ---

type mockCompanyService struct {
	createCompanyFn       func(ownerID *uint, input services.CompanyInput) (*models.Company, error)
	listCompaniesFn       func(filter services.CompanyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Company], error)
	getCompanyByIDFn      func(id uint) (*models.Company, error)
	updateCompanyFn       func(id uint, update services.CompanyUpdate) (*models.Company, error)
	deleteCompanyFn       func(id uint) error
	setCompanyImageFn     func(id uint, imageURL string) (*models.Company, error)
	addFinancialRecordsFn func(companyID uint, entries []services.FinancialEntry) (*models.Company, error)
	getFinancialRecordsFn func(companyID uint) ([]models.FinancialRecord, error)
}

func (m *mockCompanyService) CreateCompany(ownerID *uint, input services.CompanyInput) (*models.Company, error) {
	if m.createCompanyFn != nil {
		return m.createCompanyFn(ownerID, input)
	}
	return &models.Company{}, nil
}

func (m *mockCompanyService) ListCompanies(filter services.CompanyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Company], error) {
	if m.listCompaniesFn != nil {
		return m.listCompaniesFn(filter, page)
	}
	resp := pagination.NewPageResponse([]models.Company{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCompanyService) GetCompanyByID(id uint) (*models.Company, error) {
	if m.getCompanyByIDFn != nil {
		return m.getCompanyByIDFn(id)
	}
	return &models.Company{Base: models.Base{ID: id}}, nil
}

func (m *mockCompanyService) UpdateCompany(id uint, update services.CompanyUpdate) (*models.Company, error) {
	if m.updateCompanyFn != nil {
		return m.updateCompanyFn(id, update)
	}
	return &models.Company{Base: models.Base{ID: id}}, nil
}

func (m *mockCompanyService) DeleteCompany(id uint) error {
	if m.deleteCompanyFn != nil {
		return m.deleteCompanyFn(id)
	}
	return nil
}

func (m *mockCompanyService) SetCompanyImage(id uint, imageURL string) (*models.Company, error) {
	if m.setCompanyImageFn != nil {
		return m.setCompanyImageFn(id, imageURL)
	}
	return &models.Company{Base: models.Base{ID: id}, ImageURL: imageURL}, nil
}

func (m *mockCompanyService) AddFinancialRecords(companyID uint, entries []services.FinancialEntry) (*models.Company, error) {
	if m.addFinancialRecordsFn != nil {
		return m.addFinancialRecordsFn(companyID, entries)
	}
	return &models.Company{Base: models.Base{ID: companyID}}, nil
}

func (m *mockCompanyService) GetFinancialRecords(companyID uint) ([]models.FinancialRecord, error) {
	if m.getFinancialRecordsFn != nil {
		return m.getFinancialRecordsFn(companyID)
	}
	return []models.FinancialRecord{}, nil
}

var _ services.CompanyServicer = (*mockCompanyService)(nil)

func ownedCompany(id, ownerID uint) *models.Company {
	return &models.Company{Base: models.Base{ID: id}, Name: "Empresa Teste", OwnerID: &ownerID}
}

func setupCompanyRouter(handler *CompanyHandler, current *models.User) *gin.Engine {
	r := gin.New()
	r.GET("/api/empresas", handler.ListCompanies)
	r.GET("/api/empresas/:id", handler.GetCompany)
	r.GET("/api/empresas/:id/dados-financeiros", handler.GetFinancialRecords)

	auth := r.Group("", injectUser(current))
	auth.POST("/api/empresas", handler.CreateCompany)
	auth.PUT("/api/empresas/:id", handler.UpdateCompany)
	auth.DELETE("/api/empresas/:id", handler.DeleteCompany)
	auth.POST("/api/empresas/:id/dados-financeiros", handler.AddFinancialRecords)
	auth.POST("/api/empresas/:id/upload", handler.UploadImage)
	return r
}

func uploadRequest(t *testing.T, url, field, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest("POST", url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

const validCompanyBody = `{"name":"Padaria do Bairro","descricao":"Padaria artesanal com quinze anos de tradicao","preco":120000,"setor":"Alimentacao"}`

func TestCompanyHandler_CreateCompany(t *testing.T) {
	t.Run("returns 201 with the owner and email flag", func(t *testing.T) {
		var gotOwner *uint
		companySvc := &mockCompanyService{
			createCompanyFn: func(ownerID *uint, input services.CompanyInput) (*models.Company, error) {
				gotOwner = ownerID
				return &models.Company{Base: models.Base{ID: 4}, Name: input.Name, OwnerID: ownerID}, nil
			},
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{sent: true})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas", validCompanyBody)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotOwner == nil || *gotOwner != 1 {
			t.Error("company should be created with the session user as owner")
		}
		result := parseJSON(t, rec)
		if result["emailSent"] != true {
			t.Error("expected emailSent true")
		}
	})

	t.Run("returns 201 when setor is omitted", func(t *testing.T) {
		var gotSector string
		companySvc := &mockCompanyService{
			createCompanyFn: func(ownerID *uint, input services.CompanyInput) (*models.Company, error) {
				gotSector = input.Sector
				return &models.Company{Base: models.Base{ID: 5}, Name: input.Name, OwnerID: ownerID}, nil
			},
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{sent: true})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas",
			`{"name":"Padaria do Bairro","descricao":"Padaria artesanal com tradicao","preco":120000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotSector != "" {
			t.Errorf("expected an empty sector, got %q", gotSector)
		}
	})

	t.Run("returns 400 on an out-of-range price", func(t *testing.T) {
		handler := NewCompanyHandler(&mockCompanyService{}, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas",
			`{"name":"Padaria do Bairro","descricao":"Padaria artesanal com tradicao","preco":500,"setor":"Alimentacao"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})

	t.Run("returns 400 on a short description", func(t *testing.T) {
		handler := NewCompanyHandler(&mockCompanyService{}, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas",
			`{"name":"Padaria do Bairro","descricao":"curta","preco":120000,"setor":"Alimentacao"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCompanyHandler_ListCompanies(t *testing.T) {
	t.Run("passes filters through to the service", func(t *testing.T) {
		var gotFilter services.CompanyFilter
		companySvc := &mockCompanyService{
			listCompaniesFn: func(filter services.CompanyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Company], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Company{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "GET", "/api/empresas?name=Bolo&setor=alimentacao&minPreco=1000&maxPreco=50000", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.Name != "Bolo" || gotFilter.Sector != "alimentacao" {
			t.Errorf("unexpected filter: %+v", gotFilter)
		}
		if gotFilter.MinPrice == nil || *gotFilter.MinPrice != 1000 {
			t.Error("expected minPreco to reach the service")
		}
		if gotFilter.MaxPrice == nil || *gotFilter.MaxPrice != 50000 {
			t.Error("expected maxPreco to reach the service")
		}
	})
}

func TestCompanyHandler_UpdateCompany(t *testing.T) {
	t.Run("owner may update", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "PUT", "/api/empresas/4", `{"preco":75000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("non-owner gets 403", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 2), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "PUT", "/api/empresas/4", `{"preco":75000}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin may update any company", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 2), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, admin(9))

		rec := doRequest(r, "PUT", "/api/empresas/4", `{"preco":75000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for a missing company", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(uint) (*models.Company, error) { return nil, apperrors.ErrCompanyNotFound },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "PUT", "/api/empresas/999", `{"preco":75000}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCompanyHandler_AddFinancialRecords(t *testing.T) {
	t.Run("owner submits a valid batch", func(t *testing.T) {
		var gotEntries []services.FinancialEntry
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
			addFinancialRecordsFn: func(companyID uint, entries []services.FinancialEntry) (*models.Company, error) {
				gotEntries = entries
				return ownedCompany(companyID, 1), nil
			},
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas/4/dados-financeiros",
			`{"dadosFinanceiros":[{"mes":"Janeiro","valor":1000},{"mes":"Fevereiro","valor":2000,"ano":2023}]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(gotEntries) != 2 || gotEntries[1].Year != 2023 {
			t.Errorf("unexpected entries: %+v", gotEntries)
		}
	})

	t.Run("rejects an unrecognized month name", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas/4/dados-financeiros",
			`{"dadosFinanceiros":[{"mes":"January","valor":1000}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects an entry without a value", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas/4/dados-financeiros",
			`{"dadosFinanceiros":[{"mes":"Janeiro"}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})

	t.Run("accepts an explicit zero value", func(t *testing.T) {
		var gotEntries []services.FinancialEntry
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
			addFinancialRecordsFn: func(companyID uint, entries []services.FinancialEntry) (*models.Company, error) {
				gotEntries = entries
				return ownedCompany(companyID, 1), nil
			},
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas/4/dados-financeiros",
			`{"dadosFinanceiros":[{"mes":"Janeiro","valor":0}]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(gotEntries) != 1 || gotEntries[0].Value != 0 {
			t.Errorf("unexpected entries: %+v", gotEntries)
		}
	})

	t.Run("rejects a batch of thirteen entries", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		body := `{"dadosFinanceiros":[` +
			`{"mes":"Janeiro","valor":1},{"mes":"Fevereiro","valor":1},{"mes":"Março","valor":1},` +
			`{"mes":"Abril","valor":1},{"mes":"Maio","valor":1},{"mes":"Junho","valor":1},` +
			`{"mes":"Julho","valor":1},{"mes":"Agosto","valor":1},{"mes":"Setembro","valor":1},` +
			`{"mes":"Outubro","valor":1},{"mes":"Novembro","valor":1},{"mes":"Dezembro","valor":1},` +
			`{"mes":"Janeiro","valor":1,"ano":2023}]}`
		rec := doRequest(r, "POST", "/api/empresas/4/dados-financeiros", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("non-owner gets 403", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 2), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas/4/dados-financeiros",
			`{"dadosFinanceiros":[{"mes":"Janeiro","valor":1000}]}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestCompanyHandler_GetFinancialRecords(t *testing.T) {
	t.Run("returns the record list", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getFinancialRecordsFn: func(companyID uint) ([]models.FinancialRecord, error) {
				return []models.FinancialRecord{{CompanyID: companyID, Month: "Janeiro", Year: 2024, Value: 100}}, nil
			},
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "GET", "/api/empresas/4/dados-financeiros", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		records, ok := result["dadosFinanceiros"].([]interface{})
		if !ok || len(records) != 1 {
			t.Errorf("unexpected body: %v", result)
		}
	})

	t.Run("returns 404 for a missing company", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getFinancialRecordsFn: func(uint) ([]models.FinancialRecord, error) {
				return nil, apperrors.ErrCompanyNotFound
			},
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "GET", "/api/empresas/999/dados-financeiros", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCompanyHandler_DeleteCompany(t *testing.T) {
	t.Run("owner may delete", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "DELETE", "/api/empresas/4", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("non-owner gets 403", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 2), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "DELETE", "/api/empresas/4", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestCompanyHandler_UploadImage(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())
	if _, err := config.Load(); err != nil {
		t.Fatalf("load config: %v", err)
	}

	t.Run("stores a URL under the public image route", func(t *testing.T) {
		var gotURL string
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
			setCompanyImageFn: func(id uint, imageURL string) (*models.Company, error) {
				gotURL = imageURL
				return &models.Company{Base: models.Base{ID: id}, ImageURL: imageURL}, nil
			},
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, uploadRequest(t, "/api/empresas/4/upload", "image", "logo.png"))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.HasPrefix(gotURL, ImageRoutePrefix+"/") {
			t.Errorf("image URL %q should live under %s", gotURL, ImageRoutePrefix)
		}
		if !strings.HasSuffix(gotURL, ".png") {
			t.Errorf("image URL %q should keep the file extension", gotURL)
		}
	})

	t.Run("rejects an unsupported extension", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, uploadRequest(t, "/api/empresas/4/upload", "image", "payload.exe"))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects a request without a file", func(t *testing.T) {
		companySvc := &mockCompanyService{
			getCompanyByIDFn: func(id uint) (*models.Company, error) { return ownedCompany(id, 1), nil },
		}
		handler := NewCompanyHandler(companySvc, &mockEmailService{})
		r := setupCompanyRouter(handler, investor(1))

		rec := doRequest(r, "POST", "/api/empresas/4/upload", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
