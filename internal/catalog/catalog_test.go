package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designmate/internal/catalog"
	"designmate/internal/scene"
)

func TestSprites(t *testing.T) {
	all := catalog.Sprites()
	require.Len(t, all, 13)
	assert.Equal(t, "D-Bed-Black", all[0].Type)

	s, err := catalog.SpriteByType("Sofa-Yellow")
	require.NoError(t, err)
	assert.Equal(t, "/assets/2d/Sofa/Sofa-Yellow.png", s.Image)
	assert.Equal(t, 58000, s.Price)

	_, err = catalog.SpriteByType("Piano")
	assert.Error(t, err)

	all[0].Type = "mutated"
	again := catalog.Sprites()
	assert.Equal(t, "D-Bed-Black", again[0].Type)
}

func TestModels(t *testing.T) {
	all := catalog.Models()
	require.Len(t, all, 9)
	assert.Equal(t, "Bookrack", all[0].Name)
	for _, m := range all {
		assert.Equal(t, scene.FormatGLB, m.Format, m.Name)
	}

	m, err := catalog.ModelByName("Couch")
	require.NoError(t, err)
	assert.Equal(t, "/models/couch02.glb", m.Path)

	_, err = catalog.ModelByName("Piano")
	assert.Error(t, err)
}
