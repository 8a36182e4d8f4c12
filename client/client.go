// Package client is the Go API client for the VPE backend. All state for
// an authenticated caller lives in a single Session value held by the
// Client, so there is exactly one place a token can come from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "vpe/internal/errors"
	"vpe/internal/models"
	"vpe/internal/pagination"
	"vpe/internal/services"
)

// Session holds the authenticated caller's token and profile. It is the
// single source of truth: replacing the session replaces the identity.
type Session struct {
	Token   string            `json:"token"`
	Usuario models.PublicUser `json:"usuario"`
}

// Client talks to a VPE API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSession resumes a previously obtained session.
func WithSession(s Session) Option {
	return func(c *Client) { c.session = &s }
}

// New creates a Client for the API at baseURL (e.g. "http://localhost:3000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the current session, or nil when logged out.
func (c *Client) Session() *Session {
	return c.session
}

// RegisterInput holds the fields for account registration.
type RegisterInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Senha          string `json:"senha"`
	DataNascimento string `json:"dataNascimento"`
	CPFCNPJ        string `json:"cpfCnpj,omitempty"`
	TipoUsuario    string `json:"tipoUsuario,omitempty"`
	Telefone1      string `json:"telefone1,omitempty"`
	Telefone2      string `json:"telefone2,omitempty"`
}

// CompanyInput holds the fields for company registration and updates.
type CompanyInput struct {
	Name      string  `json:"name"`
	Descricao string  `json:"descricao"`
	Preco     float64 `json:"preco"`
	Setor     string  `json:"setor"`
	Img       string  `json:"img,omitempty"`
}

// FinancialEntry is one month's figure in a batch submission.
type FinancialEntry struct {
	Mes   string  `json:"mes"`
	Valor float64 `json:"valor"`
	Ano   int     `json:"ano,omitempty"`
}

// CompanyFilter holds the optional listing filters.
type CompanyFilter struct {
	Name     string
	Setor    string
	MinPreco *float64
	MaxPreco *float64
	Page     int
	PageSize int
}

type authResponse struct {
	Usuario   models.PublicUser `json:"usuario"`
	Token     string            `json:"token"`
	EmailSent bool              `json:"emailSent"`
}

// Register creates an account and stores the resulting session. The
// returned flag reports whether the welcome email went out.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*Session, bool, error) {
	if err := validateRegister(input); err != nil {
		return nil, false, err
	}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/usuarios", input, &resp); err != nil {
		return nil, false, err
	}

	c.session = &Session{Token: resp.Token, Usuario: resp.Usuario}
	return c.session, resp.EmailSent, nil
}

// Login authenticates and stores the resulting session.
func (c *Client) Login(ctx context.Context, email, senha string) (*Session, error) {
	body := map[string]string{"email": email, "senha": senha}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return nil, err
	}

	c.session = &Session{Token: resp.Token, Usuario: resp.Usuario}
	return c.session, nil
}

// Logout tells the server and drops the session regardless of the
// server's answer.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.session = nil
	return err
}

// VerifyToken confirms the stored session is still accepted and returns
// the server's view of the user.
func (c *Client) VerifyToken(ctx context.Context) (*models.PublicUser, error) {
	var resp struct {
		Valid   bool              `json:"valid"`
		Usuario models.PublicUser `json:"usuario"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/verify-token", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Usuario, nil
}

// RefreshToken swaps the stored token for a fresh one.
func (c *Client) RefreshToken(ctx context.Context) (*Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/refresh-token", nil, &resp); err != nil {
		return nil, err
	}
	c.session = &Session{Token: resp.Token, Usuario: resp.Usuario}
	return c.session, nil
}

// ListCompanies fetches a page of companies matching the filter.
func (c *Client) ListCompanies(ctx context.Context, filter CompanyFilter) (*pagination.PageResponse[models.Company], error) {
	q := url.Values{}
	if filter.Name != "" {
		q.Set("name", filter.Name)
	}
	if filter.Setor != "" {
		q.Set("setor", filter.Setor)
	}
	if filter.MinPreco != nil {
		q.Set("minPreco", strconv.FormatFloat(*filter.MinPreco, 'f', -1, 64))
	}
	if filter.MaxPreco != nil {
		q.Set("maxPreco", strconv.FormatFloat(*filter.MaxPreco, 'f', -1, 64))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(filter.PageSize))
	}

	path := "/api/empresas"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp pagination.PageResponse[models.Company]
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCompany fetches one company with its financial records.
func (c *Client) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/empresas/%d", id), nil, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// CreateCompany registers a company owned by the session user. The
// returned flag reports whether the notification email went out.
func (c *Client) CreateCompany(ctx context.Context, input CompanyInput) (*models.Company, bool, error) {
	if err := validateCompany(input); err != nil {
		return nil, false, err
	}

	var resp struct {
		Empresa   models.Company `json:"empresa"`
		EmailSent bool           `json:"emailSent"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/empresas", input, &resp); err != nil {
		return nil, false, err
	}
	return &resp.Empresa, resp.EmailSent, nil
}

// UpdateCompany applies a partial update to a company.
func (c *Client) UpdateCompany(ctx context.Context, id uint, input CompanyInput) (*models.Company, error) {
	var company models.Company
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/empresas/%d", id), input, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// DeleteCompany removes a company with its records and favorites.
func (c *Client) DeleteCompany(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/empresas/%d", id), nil, nil)
}

// AddFinancialRecords submits a batch of monthly figures.
func (c *Client) AddFinancialRecords(ctx context.Context, companyID uint, entries []FinancialEntry) (*models.Company, error) {
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	body := map[string][]FinancialEntry{"dadosFinanceiros": entries}
	var company models.Company
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/empresas/%d/dados-financeiros", companyID), body, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// GetFinancialRecords fetches a company's financial records.
func (c *Client) GetFinancialRecords(ctx context.Context, companyID uint) ([]models.FinancialRecord, error) {
	var resp struct {
		DadosFinanceiros []models.FinancialRecord `json:"dadosFinanceiros"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/empresas/%d/dados-financeiros", companyID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.DadosFinanceiros, nil
}

// UploadCompanyImage uploads an image file for a company.
func (c *Client) UploadCompanyImage(ctx context.Context, companyID uint, filename string, content io.Reader) (*models.Company, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpeg", ".jpg", ".png", ".gif", ".webp":
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported image type, use jpeg, jpg, png, gif or webp")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/empresas/%d/upload", companyID), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var company models.Company
	if err := c.send(req, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// AddFavorite bookmarks a company for the session user.
func (c *Client) AddFavorite(ctx context.Context, companyID uint) (*models.Favorite, error) {
	body := map[string]uint{"empresaId": companyID}
	var favorite models.Favorite
	if err := c.do(ctx, http.MethodPost, "/api/favoritos", body, &favorite); err != nil {
		return nil, err
	}
	return &favorite, nil
}

// RemoveFavorite removes a bookmark.
func (c *Client) RemoveFavorite(ctx context.Context, companyID uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/favoritos/%d", companyID), nil, nil)
}

// ListFavorites fetches the session user's bookmarks.
func (c *Client) ListFavorites(ctx context.Context) ([]models.Favorite, error) {
	var resp struct {
		Favoritos []models.Favorite `json:"favoritos"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/favoritos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Favoritos, nil
}

// Status fetches the public platform counters.
func (c *Client) Status(ctx context.Context) (*services.StatusCounts, error) {
	var counts services.StatusCounts
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	return req, nil
}

// do sends a JSON request and decodes a JSON response. A non-2xx answer
// comes back as an *apperrors.AppError rebuilt from the error envelope.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error apperrors.AppError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Code == "" {
		return &apperrors.AppError{
			Code:       "UNEXPECTED_RESPONSE",
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	envelope.Error.StatusCode = resp.StatusCode
	return &envelope.Error
}
