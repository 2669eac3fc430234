package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designmate/internal/common/database"
	"designmate/internal/common/middleware"
	"designmate/internal/designs/repository"
	"designmate/internal/designs/service"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(_ context.Context, token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	if token == "tok-down" {
		return "", errors.New("auth service: unexpected status 502")
	}
	return "", fmt.Errorf("%w: invalid token", middleware.ErrUnauthenticated)
}

var users = fakeVerifier{"tok-ann": "ann", "tok-bob": "bob"}

const twoObjects = `[{"id":"a","type":"Sofa-Black","image":"/assets/2d/Sofa/Sofa-Black.png","x":40,"y":40,"width":40,"height":40,"rotateX":0,"rotateY":0},{"id":"b","type":"Table-White","image":"/assets/2d/Table/Table-White.png","x":80,"y":0,"width":40,"height":40,"rotateX":0,"rotateY":0}]`

type testEnv struct {
	app     *fiber.App
	uploads string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(database.DriverSQLite, filepath.Join(dir, "designs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	require.NoError(t, repo.Init(context.Background()))

	uploads := filepath.Join(dir, "uploads")
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	NewDesignHandler(repo, service.NewFileStorage(uploads)).Routes(app, users)
	return &testEnv{app: app, uploads: uploads}
}

type form struct {
	fields map[string]string
	file   string // bgImage file name
	data   []byte
}

func (e *testEnv) do(t *testing.T, method, path, token string, f *form) (int, []byte) {
	t.Helper()
	var body io.Reader
	contentType := ""
	if f != nil {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for k, v := range f.fields {
			require.NoError(t, w.WriteField(k, v))
		}
		if f.file != "" {
			part, err := w.CreateFormFile("bgImage", f.file)
			require.NoError(t, err)
			_, err = part.Write(f.data)
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())
		body = buf
		contentType = w.FormDataContentType()
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

type designJSON struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	IsPublic   bool           `json:"isPublic"`
	DesignData map[string]any `json:"designData"`
}

func (e *testEnv) save(t *testing.T, token string, fields map[string]string) designJSON {
	t.Helper()
	status, data := e.do(t, http.MethodPost, "/api/designs/save", token, &form{fields: fields})
	require.Equal(t, http.StatusCreated, status, string(data))
	var resp struct {
		Design designJSON `json:"design"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp.Design
}

func errorOf(t *testing.T, data []byte) string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m), string(data))
	return m["error"]
}

func TestSave(t *testing.T) {
	e := newEnv(t)

	d := e.save(t, "tok-ann", map[string]string{
		"name":       "Bedroom <b>v2</b>",
		"type":       "2D",
		"isPublic":   "true",
		"objects":    twoObjects,
		"designMeta": `{"roomWidth":30,"roomHeight":20}`,
	})
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "ann", d.UserID)
	assert.Equal(t, "Bedroom v2", d.Name)
	assert.True(t, d.IsPublic)
	assert.Equal(t, 30.0, d.DesignData["roomWidth"])
	assert.Len(t, d.DesignData["objects"], 2)
}

func TestSaveRejected(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name   string
		token  string
		fields map[string]string
		status int
		want   string
	}{
		{"no token", "", map[string]string{"name": "x", "type": "2D", "objects": twoObjects}, http.StatusUnauthorized, "unauthorized"},
		{"bad token", "tok-eve", map[string]string{"name": "x", "type": "2D", "objects": twoObjects}, http.StatusUnauthorized, "unauthorized"},
		{"auth down", "tok-down", map[string]string{"name": "x", "type": "2D", "objects": twoObjects}, http.StatusServiceUnavailable, "authentication unavailable"},
		{"no name", "tok-ann", map[string]string{"type": "2D", "objects": twoObjects}, http.StatusBadRequest, "'Name' is required"},
		{"bad type", "tok-ann", map[string]string{"name": "x", "type": "4D", "objects": twoObjects}, http.StatusBadRequest, "'Type' must be one of: 2D 3D"},
		{"no objects", "tok-ann", map[string]string{"name": "x", "type": "2D"}, http.StatusBadRequest, "'objects' is required"},
		{"empty objects", "tok-ann", map[string]string{"name": "x", "type": "2D", "objects": "[]"}, http.StatusBadRequest, "at least one object is required"},
		{"garbage objects", "tok-ann", map[string]string{"name": "x", "type": "2D", "objects": "{"}, http.StatusBadRequest, "invalid objects"},
		{"bad meta", "tok-ann", map[string]string{"name": "x", "type": "2D", "objects": twoObjects, "designMeta": "[1]"}, http.StatusBadRequest, "invalid designMeta"},
		{"huge room", "tok-ann", map[string]string{"name": "x", "type": "3D", "objects": twoObjects, "designMeta": `{"roomWidth":1e9}`}, http.StatusBadRequest, "room dimensions out of range: roomWidth must be at most 20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, data := e.do(t, http.MethodPost, "/api/designs/save", tc.token, &form{fields: tc.fields})
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.want, errorOf(t, data))
		})
	}
}

func TestSave3DWithBackgroundAndDelete(t *testing.T) {
	e := newEnv(t)
	status, data := e.do(t, http.MethodPost, "/api/designs/save", "tok-ann", &form{
		fields: map[string]string{
			"name":       "Lounge",
			"type":       "3D",
			"objects":    `[{"id":"m1","name":"Couch","path":"/models/couch02.glb","position":[0,0,0],"rotation":[0,0,0],"scale":[0.5,0.5,0.5]}]`,
			"designMeta": `{"roomWidth":8,"roomLength":8,"roomHeight":3,"wallColor":"#f5f5f5","floorColor":"#e0cda9"}`,
		},
		file: "room.png",
		data: []byte("png-bytes"),
	})
	require.Equal(t, http.StatusCreated, status, string(data))
	var resp struct {
		Design designJSON `json:"design"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))
	bg, _ := resp.Design.DesignData["background"].(string)
	require.NotEmpty(t, bg)

	status, data = e.do(t, http.MethodGet, bg, "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "png-bytes", string(data))

	status, _ = e.do(t, http.MethodDelete, "/api/designs/"+resp.Design.ID, "tok-bob", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodDelete, "/api/designs/"+resp.Design.ID, "tok-ann", nil)
	assert.Equal(t, http.StatusNoContent, status)

	entries, err := os.ReadDir(e.uploads)
	require.NoError(t, err)
	assert.Empty(t, entries, "background removed with the design")

	status, _ = e.do(t, http.MethodGet, "/api/designs/"+resp.Design.ID, "tok-ann", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSaveRejectsNonImageBackground(t *testing.T) {
	e := newEnv(t)
	status, data := e.do(t, http.MethodPost, "/api/designs/save", "tok-ann", &form{
		fields: map[string]string{"name": "x", "type": "2D", "objects": twoObjects},
		file:   "notes.txt",
		data:   []byte("hi"),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, service.ErrUnsupportedImage.Error(), errorOf(t, data))
}

func TestGalleriesAndVisibility(t *testing.T) {
	e := newEnv(t)
	pub := e.save(t, "tok-ann", map[string]string{"name": "pub", "type": "2D", "isPublic": "true", "objects": twoObjects})
	priv := e.save(t, "tok-ann", map[string]string{"name": "priv", "type": "2D", "isPublic": "false", "objects": twoObjects})

	list := func(path, token string) []string {
		status, data := e.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, status, string(data))
		var resp struct {
			Designs []designJSON `json:"designs"`
		}
		require.NoError(t, json.Unmarshal(data, &resp))
		var names []string
		for _, d := range resp.Designs {
			names = append(names, d.Name)
		}
		return names
	}

	assert.ElementsMatch(t, []string{"pub"}, list("/api/designs/explore/all", ""))
	assert.ElementsMatch(t, []string{"pub", "priv"}, list("/api/designs/explore/private", "tok-ann"))
	assert.Empty(t, list("/api/designs/explore/private", "tok-bob"))

	status, _ := e.do(t, http.MethodGet, "/api/designs/explore/private", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// private designs are hidden from everyone but the owner
	status, _ = e.do(t, http.MethodGet, "/api/designs/"+priv.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = e.do(t, http.MethodGet, "/api/designs/"+priv.ID, "tok-bob", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = e.do(t, http.MethodGet, "/api/designs/"+priv.ID, "tok-ann", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = e.do(t, http.MethodGet, "/api/designs/"+pub.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)

	toggle := func(token string) (int, map[string]any) {
		status, data := e.do(t, http.MethodPut, "/api/designs/"+priv.ID+"/visibility", token, nil)
		var m map[string]any
		_ = json.Unmarshal(data, &m)
		return status, m
	}
	status, body := toggle("tok-ann")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isPublic"])
	assert.ElementsMatch(t, []string{"pub", "priv"}, list("/api/designs/explore/all", ""))

	status, body = toggle("tok-ann")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["isPublic"])

	status, _ = toggle("tok-bob")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodPut, "/api/designs/missing/visibility", "tok-ann", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCatalogAndUploads(t *testing.T) {
	e := newEnv(t)
	status, data := e.do(t, http.MethodGet, "/api/catalog", "", nil)
	require.Equal(t, http.StatusOK, status)
	var cat struct {
		Sprites []map[string]any `json:"sprites"`
		Models  []map[string]any `json:"models"`
	}
	require.NoError(t, json.Unmarshal(data, &cat))
	assert.Len(t, cat.Sprites, 13)
	assert.Len(t, cat.Models, 9)

	status, _ = e.do(t, http.MethodGet, "/uploads/missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = e.do(t, http.MethodGet, "/uploads/.hidden", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
