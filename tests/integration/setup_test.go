package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vpe/internal/handlers"
	"vpe/internal/logger"
	"vpe/internal/middleware"
	"vpe/internal/models"
	"vpe/internal/services"
	"vpe/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// noopEmail stands in for the SMTP transport. Best-effort semantics mean
// the flag value is all the rest of the stack ever sees.
type noopEmail struct{ sent bool }

func (n *noopEmail) SendWelcomeEmail(_, _ string) bool       { return n.sent }
func (n *noopEmail) SendNewCompanyEmail(_, _, _ string) bool { return n.sent }

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Company{},
		&models.FinancialRecord{},
		&models.Favorite{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db, nil)
	companyService := services.NewCompanyService(db, nil)
	favoriteService := services.NewFavoriteService(db, nil)
	statusService := services.NewStatusService(db, nil)
	emailService := &noopEmail{sent: false}

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, emailService)
	userHandler := handlers.NewUserHandler(userService)
	companyHandler := handlers.NewCompanyHandler(companyService, emailService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	statusHandler := handlers.NewStatusHandler(statusService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	api := router.Group("/api")

	// Public routes
	api.POST("/usuarios", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/status", statusHandler.GetStatus)
	api.GET("/empresas", companyHandler.ListCompanies)
	api.GET("/empresas/:id", companyHandler.GetCompany)
	api.GET("/empresas/:id/dados-financeiros", companyHandler.GetFinancialRecords)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.RequireAuth(userService))

	protected.GET("/verify-token", authHandler.VerifyToken)
	protected.POST("/refresh-token", authHandler.RefreshToken)
	protected.POST("/logout", authHandler.Logout)

	protected.GET("/usuarios", middleware.RequireRole(models.RoleAdmin), userHandler.ListUsers)
	protected.GET("/usuarios/:id", userHandler.GetUser)
	protected.PUT("/usuarios/:id", userHandler.UpdateUser)
	protected.DELETE("/usuarios/:id", userHandler.DeleteUser)

	protected.POST("/empresas", companyHandler.CreateCompany)
	protected.PUT("/empresas/:id", companyHandler.UpdateCompany)
	protected.DELETE("/empresas/:id", companyHandler.DeleteCompany)
	protected.POST("/empresas/:id/dados-financeiros", companyHandler.AddFinancialRecords)

	protected.POST("/favoritos", favoriteHandler.AddFavorite)
	protected.GET("/favoritos", favoriteHandler.ListFavorites)
	protected.DELETE("/favoritos/:empresaId", favoriteHandler.RemoveFavorite)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func adultBirth() string {
	return time.Now().AddDate(-30, 0, 0).Format("2006-01-02")
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, name, email, senha string) (token string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"email":%q,"senha":%q,"dataNascimento":%q}`, name, email, senha, adultBirth())
	rec := app.request("POST", "/api/usuarios", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	usuario := result["usuario"].(map[string]interface{})
	return result["token"].(string), usuario["id"].(float64)
}

// loginUser logs in and returns the session token.
func (app *testApp) loginUser(t *testing.T, email, senha string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"senha":%q}`, email, senha)
	rec := app.request("POST", "/api/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["token"].(string)
}

// createCompany registers a company and returns its ID.
func (app *testApp) createCompany(t *testing.T, token, name string, price float64) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"descricao":"Uma empresa criada para os testes de integracao","preco":%f,"setor":"Tecnologia"}`, name, price)
	rec := app.request("POST", "/api/empresas", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create company failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	empresa := result["empresa"].(map[string]interface{})
	return empresa["id"].(float64)
}
