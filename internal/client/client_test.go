package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designmate/internal/designs/models"
	"designmate/internal/scene"
)

const base = "http://designmate.test"

func newMockClient() (*Client, *httpmock.MockTransport) {
	mock := httpmock.NewMockTransport()
	return New(base+"/", &http.Client{Transport: mock}), mock
}

var session = &Session{Token: "tok", User: User{ID: "u1"}}

func sofa() scene.PlacedObject {
	return scene.PlacedObject{ID: "o1", Type: "Sofa-Black", Image: "/assets/2d/Sofa/Sofa-Black.png", X: 40, Y: 40, Width: 40, Height: 40}
}

func TestSaveValidationSendsNothing(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		req  SaveRequest
		s    *Session
		want error
	}{
		{"empty name", SaveRequest{Name: "", Type: scene.Mode2D, Objects: []scene.PlacedObject{sofa()}}, session, ErrNameRequired},
		{"no objects", SaveRequest{Name: "x", Type: scene.Mode2D}, session, ErrNoObjects},
		{"no models", SaveRequest{Name: "x", Type: scene.Mode3D, Objects: []scene.PlacedObject{sofa()}}, session, ErrNoObjects},
		{"no session", SaveRequest{Name: "x", Type: scene.Mode2D, Objects: []scene.PlacedObject{sofa()}}, nil, ErrAuthRequired},
		{"logged out", SaveRequest{Name: "x", Type: scene.Mode2D, Objects: []scene.PlacedObject{sofa()}}, &Session{}, ErrAuthRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, mock := newMockClient()
			_, err := c.Save(ctx, tc.s, tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 0, mock.GetTotalCallCount())
		})
	}
}

func TestSaveSendsMultipart(t *testing.T) {
	// given
	c, mock := newMockClient()
	w := 30.0
	var got *http.Request
	fields := map[string]string{}
	var bg string
	mock.RegisterResponder(http.MethodPost, base+"/api/designs/save", func(req *http.Request) (*http.Response, error) {
		got = req
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			return nil, err
		}
		for k, v := range req.MultipartForm.Value {
			fields[k] = v[0]
		}
		f, _, err := req.FormFile("bgImage")
		if err == nil {
			data, _ := io.ReadAll(f)
			bg = string(data)
		}
		return httpmock.NewJsonResponse(http.StatusCreated, map[string]any{
			"design": map[string]any{"id": "d1", "name": "Den", "type": "2D", "isPublic": true},
		})
	})

	// when
	d, err := c.Save(context.Background(), session, SaveRequest{
		Name:       "Den",
		Type:       scene.Mode2D,
		IsPublic:   true,
		Objects:    []scene.PlacedObject{sofa()},
		Meta:       &scene.RoomMeta{RoomWidth: &w},
		Background: &Upload{Name: "room.png", Data: strings.NewReader("img")},
	})

	// then
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "Den", fields["name"])
	assert.Equal(t, "2D", fields["type"])
	assert.Equal(t, "true", fields["isPublic"])
	assert.JSONEq(t, `{"roomWidth":30}`, fields["designMeta"])
	assert.Contains(t, fields["objects"], `"type":"Sofa-Black"`)
	assert.Equal(t, "img", bg)
}

func TestToggleVisibilityTwiceRestores(t *testing.T) {
	c, mock := newMockClient()
	mock.RegisterResponder(http.MethodPut, base+"/api/designs/d1/visibility", httpmock.NewStringResponder(http.StatusOK, `{"isPublic":true}`))

	d := &models.Design{ID: "d1", IsPublic: false}
	require.NoError(t, c.ToggleVisibility(context.Background(), session, d))
	assert.True(t, d.IsPublic)
	require.NoError(t, c.ToggleVisibility(context.Background(), session, d))
	assert.False(t, d.IsPublic)
	assert.Equal(t, 2, mock.GetTotalCallCount())
}

func TestToggleVisibilityFailureKeepsFlag(t *testing.T) {
	c, mock := newMockClient()
	mock.RegisterResponder(http.MethodPut, base+"/api/designs/d1/visibility", httpmock.NewStringResponder(http.StatusForbidden, `{"error":"forbidden"}`))

	d := &models.Design{ID: "d1", IsPublic: true}
	err := c.ToggleVisibility(context.Background(), session, d)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "forbidden", apiErr.Message)
	assert.True(t, d.IsPublic)

	assert.ErrorIs(t, c.ToggleVisibility(context.Background(), nil, d), ErrAuthRequired)
}

func TestErrorMapping(t *testing.T) {
	c, mock := newMockClient()
	mock.RegisterResponder(http.MethodGet, base+"/api/designs/gone", httpmock.NewStringResponder(http.StatusNotFound, `{"error":"design not found"}`))
	mock.RegisterResponder(http.MethodGet, base+"/api/auth/me", httpmock.NewStringResponder(http.StatusUnauthorized, `{"error":"unauthorized"}`))
	mock.RegisterResponder(http.MethodGet, base+"/api/designs/explore/all", httpmock.NewErrorResponder(errors.New("dummy error")))

	_, err := c.Get(context.Background(), nil, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "server returned 404: design not found")

	_, err = c.Me(context.Background(), session)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = c.ListPublic(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLoginLogout(t *testing.T) {
	c, mock := newMockClient()
	mock.RegisterResponder(http.MethodPost, base+"/api/auth/login", httpmock.NewStringResponder(http.StatusOK,
		`{"token":"jwt","user":{"id":"u1","email":"ann@example.com","role":"user"}}`))
	mock.RegisterResponder(http.MethodPost, base+"/api/auth/logout", func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer jwt" {
			return httpmock.NewStringResponse(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
		}
		return httpmock.NewStringResponse(http.StatusNoContent, ""), nil
	})

	s, err := c.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "jwt", s.Token)
	assert.Equal(t, "ann@example.com", s.User.Email)

	require.NoError(t, c.Logout(context.Background(), s))
	assert.False(t, s.Valid())
	assert.Equal(t, Session{}, *s)

	require.NoError(t, c.Logout(context.Background(), s), "logging out twice is a no-op")
	assert.Equal(t, 2, mock.GetTotalCallCount())
}

func TestListAndDelete(t *testing.T) {
	c, mock := newMockClient()
	mock.RegisterResponder(http.MethodGet, base+"/api/designs/explore/private", httpmock.NewStringResponder(http.StatusOK,
		`{"designs":[{"id":"a","type":"2D"},{"id":"b","type":"3D"}]}`))
	mock.RegisterResponder(http.MethodDelete, base+"/api/designs/a", httpmock.NewStringResponder(http.StatusNoContent, ""))

	_, err := c.ListPrivate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAuthRequired)

	list, err := c.ListPrivate(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, scene.Mode3D, list[1].Type)

	require.NoError(t, c.Delete(context.Background(), session, "a"))
}

func TestLoadDefaults(t *testing.T) {
	t.Run("3D without room settings", func(t *testing.T) {
		d := &models.Design{ID: "d", Type: scene.Mode3D, DesignData: models.DesignData{
			Objects: []byte(`[{"id":"m1","name":"Couch","path":"/models/couch02.glb","position":[1,0,1],"rotation":[0,0,0],"scale":[0.5,0.5,0.5]}]`),
		}}
		c, err := Load3D(d)
		require.NoError(t, err)
		r := c.Room()
		assert.Equal(t, 8.0, r.Width)
		assert.Equal(t, 8.0, r.Length)
		assert.Equal(t, 3.0, r.Height)
		assert.Equal(t, "#f5f5f5", r.WallColor)
		assert.Equal(t, "#e0cda9", r.FloorColor)
		require.Equal(t, 1, c.Len())
		assert.Equal(t, scene.FormatGLB, c.Models()[0].Type)
	})
	t.Run("2D without room settings", func(t *testing.T) {
		d := &models.Design{ID: "d", Type: scene.Mode2D, DesignData: models.DesignData{
			Objects:    []byte(`[{"id":"o1","type":"Sofa-Black","x":40,"y":40,"width":40,"height":40}]`),
			Background: "/uploads/bg.png",
		}}
		c, err := Load2D(d)
		require.NoError(t, err)
		assert.Equal(t, 30.0, c.Plan().WidthFt)
		assert.Equal(t, 20.0, c.Plan().HeightFt)
		assert.Equal(t, "/uploads/bg.png", c.Background())
		assert.Equal(t, 1, c.Len())
	})
	t.Run("mode mismatch", func(t *testing.T) {
		_, err := Load2D(&models.Design{Type: scene.Mode3D})
		assert.Error(t, err)
		_, err = Load3D(&models.Design{Type: scene.Mode2D})
		assert.Error(t, err)
	})
}

func TestCatalog(t *testing.T) {
	c, mock := newMockClient()
	mock.RegisterResponder(http.MethodGet, base+"/api/catalog", httpmock.NewStringResponder(http.StatusOK,
		`{"sprites":[{"label":"Sofa Black","type":"Sofa-Black","image":"/assets/2d/Sofa/Sofa-Black.png","price":55000}],"models":[{"name":"Couch","path":"/models/couch02.glb","format":"glb"}]}`))

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Sprites, 1)
	assert.Equal(t, 55000, cat.Sprites[0].Price)
	require.Len(t, cat.Models, 1)
	assert.Equal(t, scene.FormatGLB, cat.Models[0].Format)
}
