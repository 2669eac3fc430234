// Package client talks to the DesignMate API on behalf of the editor.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"designmate/internal/catalog"
	"designmate/internal/designs/models"
	"designmate/internal/scene"
)

// User is the account returned by the auth service.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// Session is the login state. It is created by Login and cleared by Logout.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

type Catalog struct {
	Sprites []catalog.Sprite `json:"sprites"`
	Models  []catalog.Model  `json:"models"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the gateway at baseURL. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ============================================================
// Auth
// ============================================================

func (c *Client) Register(ctx context.Context, email, password string) (*User, error) {
	var u User
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", nil, map[string]string{"email": email, "password": password}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, map[string]string{"email": email, "password": password}, &s)
	if err != nil {
		return nil, err
	}
	if s.Token == "" {
		return nil, errors.New("login: empty token in response")
	}
	return &s, nil
}

func (c *Client) Me(ctx context.Context, s *Session) (*User, error) {
	if !s.Valid() {
		return nil, ErrAuthRequired
	}
	var u User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", s, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes the token on the server and clears s in any case.
func (c *Client) Logout(ctx context.Context, s *Session) error {
	if !s.Valid() {
		return nil
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", s, nil, nil)
	*s = Session{}
	return err
}

// ============================================================
// Designs
// ============================================================

// Upload is a file sent along with a design.
type Upload struct {
	Name string
	Data io.Reader
}

type SaveRequest struct {
	Name       string
	Type       scene.Mode
	IsPublic   bool
	Objects    []scene.PlacedObject // 2D
	Models     []scene.PlacedModel  // 3D
	Meta       *scene.RoomMeta
	Background *Upload
}

func (r SaveRequest) validate() error {
	if r.Name == "" {
		return ErrNameRequired
	}
	switch r.Type {
	case scene.Mode2D:
		if len(r.Objects) == 0 {
			return ErrNoObjects
		}
	case scene.Mode3D:
		if len(r.Models) == 0 {
			return ErrNoObjects
		}
	default:
		return fmt.Errorf("unknown design type %q", r.Type)
	}
	return nil
}

func (r SaveRequest) objects() any {
	if r.Type == scene.Mode3D {
		return r.Models
	}
	return r.Objects
}

// Save creates a new design record. Invalid requests and missing sessions
// are rejected before anything is sent.
func (c *Client) Save(ctx context.Context, s *Session, r SaveRequest) (*models.Design, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if !s.Valid() {
		return nil, ErrAuthRequired
	}

	body, contentType, err := r.multipart()
	if err != nil {
		return nil, err
	}

	var resp struct {
		Design models.Design `json:"design"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/designs/save", s, body, contentType, &resp); err != nil {
		return nil, err
	}
	return &resp.Design, nil
}

func (r SaveRequest) multipart() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	objects, err := json.Marshal(r.objects())
	if err != nil {
		return nil, "", fmt.Errorf("encode objects: %w", err)
	}
	fields := [][2]string{
		{"name", r.Name},
		{"type", string(r.Type)},
		{"isPublic", strconv.FormatBool(r.IsPublic)},
		{"objects", string(objects)},
	}
	if r.Meta != nil {
		meta, err := json.Marshal(r.Meta)
		if err != nil {
			return nil, "", fmt.Errorf("encode meta: %w", err)
		}
		fields = append(fields, [2]string{"designMeta", string(meta)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if r.Background != nil {
		part, err := w.CreateFormFile("bgImage", r.Background.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, r.Background.Data); err != nil {
			return nil, "", fmt.Errorf("read background: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// Get fetches one design. s may be nil; private designs of other users
// are reported as ErrNotFound.
func (c *Client) Get(ctx context.Context, s *Session, id string) (*models.Design, error) {
	var d models.Design
	if err := c.doJSON(ctx, http.MethodGet, designPath(id), s, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ListPrivate(ctx context.Context, s *Session) ([]*models.Design, error) {
	if !s.Valid() {
		return nil, ErrAuthRequired
	}
	return c.list(ctx, "/api/designs/explore/private", s)
}

func (c *Client) ListPublic(ctx context.Context) ([]*models.Design, error) {
	return c.list(ctx, "/api/designs/explore/all", nil)
}

func (c *Client) list(ctx context.Context, path string, s *Session) ([]*models.Design, error) {
	var resp struct {
		Designs []*models.Design `json:"designs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, s, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Designs, nil
}

// ToggleVisibility flips d.IsPublic after the server accepted the change.
func (c *Client) ToggleVisibility(ctx context.Context, s *Session, d *models.Design) error {
	if !s.Valid() {
		return ErrAuthRequired
	}
	if err := c.doJSON(ctx, http.MethodPut, designPath(d.ID)+"/visibility", s, nil, nil); err != nil {
		return err
	}
	d.IsPublic = !d.IsPublic
	return nil
}

func (c *Client) Delete(ctx context.Context, s *Session, id string) error {
	if !s.Valid() {
		return ErrAuthRequired
	}
	return c.doJSON(ctx, http.MethodDelete, designPath(id), s, nil, nil)
}

func (c *Client) Catalog(ctx context.Context) (*Catalog, error) {
	var cat Catalog
	if err := c.doJSON(ctx, http.MethodGet, "/api/catalog", nil, nil, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Fetch downloads a raw resource such as a design background.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	return io.ReadAll(resp.Body)
}

// ============================================================
// Transport
// ============================================================

func (c *Client) doJSON(ctx context.Context, method, path string, s *Session, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, s, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, s *Session, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.Valid() {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func designPath(id string) string {
	return "/api/designs/" + url.PathEscape(id)
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func apiError(resp *http.Response) error {
	e := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil {
		e.Message = body.Error
	}
	return e
}
