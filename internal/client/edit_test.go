package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designmate/internal/designs/models"
	"designmate/internal/editor/canvas2d"
	"designmate/internal/scene"
)

type savedForm struct {
	fields map[string]string
	bg     string
}

func respondSaved(mock *httpmock.MockTransport, id string) *savedForm {
	got := &savedForm{fields: map[string]string{}}
	mock.RegisterResponder(http.MethodPost, base+"/api/designs/save", func(req *http.Request) (*http.Response, error) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			return nil, err
		}
		for k, v := range req.MultipartForm.Value {
			got.fields[k] = v[0]
		}
		if f, _, err := req.FormFile("bgImage"); err == nil {
			data, _ := io.ReadAll(f)
			got.bg = string(data)
		}
		return httpmock.NewJsonResponse(http.StatusCreated, map[string]any{
			"design": map[string]any{"id": id, "name": got.fields["name"], "type": got.fields["type"]},
		})
	})
	return got
}

func TestResubmit3D(t *testing.T) {
	// given
	c, mock := newMockClient()
	got := respondSaved(mock, "d2")
	w := 10.0
	orig := &models.Design{ID: "d1", Name: "Lounge", Type: scene.Mode3D, IsPublic: true, DesignData: models.DesignData{
		Objects:  []byte(`[{"id":"m1","name":"Couch","path":"/models/couch02.glb","position":[0,0,0],"rotation":[0,0,0],"scale":[0.5,0.5,0.5]}]`),
		RoomMeta: scene.RoomMeta{RoomWidth: &w},
	}}
	cv, err := Load3D(orig)
	require.NoError(t, err)
	pose, err := cv.Select("m1")
	require.NoError(t, err)
	pose.Position = scene.Vec3{1, 0, 2}
	require.NoError(t, cv.ApplyGizmo(pose))

	// when
	d, err := c.Resubmit3D(context.Background(), session, orig, cv, "")

	// then
	require.NoError(t, err)
	assert.Equal(t, "d2", d.ID)
	assert.Equal(t, "Lounge", got.fields["name"])
	assert.Equal(t, "3D", got.fields["type"])
	assert.Equal(t, "true", got.fields["isPublic"])
	assert.JSONEq(t, `{"roomWidth":10,"roomLength":8,"roomHeight":3,"wallColor":"#f5f5f5","floorColor":"#e0cda9"}`, got.fields["designMeta"])

	placed, err := scene.Decode3D(json.RawMessage(got.fields["objects"]))
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.Equal(t, scene.Vec3{1, 0, 2}, placed[0].Position)
}

func TestResubmit2DReuploadsBackground(t *testing.T) {
	c, mock := newMockClient()
	got := respondSaved(mock, "d9")
	mock.RegisterResponder(http.MethodGet, base+"/uploads/bg.png", httpmock.NewStringResponder(http.StatusOK, "png-bytes"))

	orig := &models.Design{ID: "d1", Name: "Den", Type: scene.Mode2D, DesignData: models.DesignData{
		Objects:    []byte(`[{"id":"o1","type":"Sofa-Black","x":40,"y":40,"width":40,"height":40}]`),
		Background: "/uploads/bg.png",
	}}
	cv, err := Load2D(orig)
	require.NoError(t, err)
	require.NoError(t, cv.UpdateField("o1", canvas2d.FieldWidth, "60px"))

	d, err := c.Resubmit2D(context.Background(), session, orig, cv, "Den v2")
	require.NoError(t, err)
	assert.Equal(t, "d9", d.ID)
	assert.Equal(t, "Den v2", got.fields["name"])
	assert.Equal(t, "false", got.fields["isPublic"])
	assert.Equal(t, "png-bytes", got.bg)
	assert.Contains(t, got.fields["objects"], `"width":60`)
	assert.JSONEq(t, `{"roomWidth":30,"roomHeight":20}`, got.fields["designMeta"])
}

func TestResubmitChecksBeforeSending(t *testing.T) {
	c, mock := newMockClient()
	orig := &models.Design{ID: "d1", Name: "Den", Type: scene.Mode2D, DesignData: models.DesignData{
		Objects:    []byte(`[{"id":"o1","type":"Sofa-Black","width":40,"height":40}]`),
		Background: "/uploads/bg.png",
	}}
	cv, err := Load2D(orig)
	require.NoError(t, err)

	_, err = c.Resubmit2D(context.Background(), nil, orig, cv, "")
	assert.ErrorIs(t, err, ErrAuthRequired)

	cv.DeleteObject("o1")
	_, err = c.Resubmit2D(context.Background(), session, orig, cv, "")
	assert.ErrorIs(t, err, ErrNoObjects)

	_, err = c.Resubmit3D(context.Background(), session, orig, nil, "")
	assert.Error(t, err)
	assert.Equal(t, 0, mock.GetTotalCallCount())
}

func TestDesignIDsAreEscaped(t *testing.T) {
	c, mock := newMockClient()
	var paths []string
	mock.RegisterRegexpResponder(http.MethodGet, regexp.MustCompile(`/api/designs/`), func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.EscapedPath())
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"id": "x"})
	})
	mock.RegisterRegexpResponder(http.MethodDelete, regexp.MustCompile(`/api/designs/`), func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.EscapedPath())
		return httpmock.NewStringResponse(http.StatusNoContent, ""), nil
	})

	_, err := c.Get(context.Background(), nil, "a/b?c")
	require.NoError(t, err)
	require.NoError(t, c.Delete(context.Background(), session, "../x"))

	assert.Equal(t, []string{"/api/designs/a%2Fb%3Fc", "/api/designs/..%2Fx"}, paths)
}
