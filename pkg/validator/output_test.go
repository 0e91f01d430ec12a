package validator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidOutputsAccepted(t *testing.T) {
	tests := []struct {
		name string
		kind string
		raw  string
	}{
		{
			"visual with full element",
			"visual",
			`{"elements":[{"type":"box","color":"#ff0000","scale":2,"position":{"x":1,"y":2,"z":3},"rotation":[0,1.57,0],"opacity":0.5,"metalness":0.2,"roughness":0.8}]}`,
		},
		{
			"visual short color form",
			"visual",
			`{"elements":[{"type":"sphere","color":"#0f0"}]}`,
		},
		{
			"world with voxels and items",
			"world",
			`{"environment":{"sky":"#000033","fog":0.4},"elements":[{"type":"light","color":"#ffffff"}],"voxels":[{"x":0,"y":0,"z":0,"color":"#aaa"},{"x":1,"y":0,"z":0}],"catalog_items":[{"id":"tree_01"}],"generated_items":[{"prompt":"a lantern"}]}`,
		},
		{
			"game minimal",
			"game",
			`{"rules":{"goal":"tag"},"elements":[{"type":"ring","scale":[1,1,2]}]}`,
		},
		{
			"environment is free-form",
			"world",
			`{"environment":{"sky":12345,"custom":[1,2,3],"nested":{"a":true}}}`,
		},
		{
			"empty object",
			"visual",
			`{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateOutput(tt.kind, []byte(tt.raw))
			assert.True(t, res.Accepted, "errors: %v", res.Errors)
			assert.Empty(t, res.Errors)
		})
	}
}

func TestOutputRejectsBadDocuments(t *testing.T) {
	t.Run("unknown output type", func(t *testing.T) {
		res := ValidateOutput("hologram", []byte(`{}`))
		require.False(t, res.Accepted)
		assert.Contains(t, res.Errors[0], "unknown output type")
	})

	t.Run("invalid json", func(t *testing.T) {
		res := ValidateOutput("visual", []byte(`{"elements":`))
		require.False(t, res.Accepted)
		assert.Contains(t, res.Errors[0], "not valid JSON")
	})

	t.Run("elements not an array", func(t *testing.T) {
		res := ValidateOutput("visual", []byte(`{"elements":{"type":"box"}}`))
		require.False(t, res.Accepted)
		assert.Contains(t, res.Errors[0], "elements must be an array")
	})
}

func TestOutputSizeCaps(t *testing.T) {
	pad := func(n int) []byte {
		return []byte(fmt.Sprintf(`{"elements":[],"pad":%q}`, strings.Repeat("x", n)))
	}

	t.Run("visual over 8KiB rejected", func(t *testing.T) {
		raw := pad(MaxVisualOutputBytes)
		require.Greater(t, len(raw), MaxVisualOutputBytes)
		res := ValidateOutput("visual", raw)
		require.False(t, res.Accepted)
		assert.Contains(t, res.Errors[0], "exceeds")
	})

	t.Run("same payload fits world cap", func(t *testing.T) {
		res := ValidateOutput("world", pad(MaxVisualOutputBytes))
		assert.True(t, res.Accepted, "errors: %v", res.Errors)
	})

	t.Run("game over 4KiB rejected", func(t *testing.T) {
		res := ValidateOutput("game", pad(MaxGameOutputBytes))
		require.False(t, res.Accepted)
		assert.Contains(t, res.Errors[0], "game output exceeds")
	})
}

func TestElementFieldRules(t *testing.T) {
	wrap := func(element string) []byte {
		return []byte(`{"elements":[` + element + `]}`)
	}

	tests := []struct {
		name    string
		element string
		errPart string
	}{
		{"missing type", `{"color":"#fff"}`, "missing type"},
		{"unknown type", `{"type":"dodecahedron"}`, "unknown element type"},
		{"named color", `{"type":"box","color":"red"}`, "#rgb or #rrggbb"},
		{"color wrong length", `{"type":"box","color":"#ff00"}`, "#rgb or #rrggbb"},
		{"scale too small", `{"type":"box","scale":0.01}`, "scale"},
		{"scale too large", `{"type":"box","scale":31}`, "scale"},
		{"scale vector component out", `{"type":"box","scale":[1,40,1]}`, "scale"},
		{"opacity above one", `{"type":"box","opacity":1.5}`, "opacity"},
		{"metalness negative", `{"type":"box","metalness":-0.1}`, "metalness"},
		{"roughness not number", `{"type":"box","roughness":"high"}`, "roughness"},
		{"position out of range", `{"type":"box","position":{"x":101,"y":0,"z":0}}`, "position"},
		{"position wrong shape", `{"type":"box","position":[1,2]}`, "position"},
		{"rotation beyond two pi", `{"type":"box","rotation":[0,7,0]}`, "rotation"},
		{"element not object", `"box"`, "must be an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateOutput("visual", wrap(tt.element))
			require.False(t, res.Accepted)
			assert.Contains(t, strings.Join(res.Errors, "; "), tt.errPart)
		})
	}

	t.Run("boundary values accepted", func(t *testing.T) {
		raw := wrap(`{"type":"box","scale":0.05,"opacity":0,"metalness":1,"position":[100,-100,100],"rotation":[6.28,0,-6.28]}`)
		res := ValidateOutput("visual", raw)
		assert.True(t, res.Accepted, "errors: %v", res.Errors)
	})
}

func TestElementCountCap(t *testing.T) {
	build := func(n int) []byte {
		items := make([]string, n)
		for i := range items {
			items[i] = `{"type":"box"}`
		}
		return []byte(`{"elements":[` + strings.Join(items, ",") + `]}`)
	}

	res := ValidateOutput("visual", build(MaxElements))
	assert.True(t, res.Accepted, "errors: %v", res.Errors)

	res = ValidateOutput("visual", build(MaxElements+1))
	require.False(t, res.Accepted)
	assert.Contains(t, res.Errors[0], "too many elements")
}

func TestVoxelRules(t *testing.T) {
	wrap := func(voxels string) []byte {
		return []byte(`{"voxels":[` + voxels + `]}`)
	}

	tests := []struct {
		name    string
		voxels  string
		errPart string
	}{
		{"duplicate position", `{"x":1,"y":2,"z":3},{"x":1,"y":2,"z":3}`, "duplicate position"},
		{"fractional coordinate", `{"x":1.5,"y":0,"z":0}`, "must be an integer"},
		{"y below ground", `{"x":0,"y":-1,"z":0}`, "y -1 out of range"},
		{"y above ceiling", `{"x":0,"y":101,"z":0}`, "y 101 out of range"},
		{"x out of range", `{"x":-101,"y":0,"z":0}`, "±100"},
		{"missing coordinate", `{"x":0,"y":0}`, "missing numeric z"},
		{"bad color", `{"x":0,"y":0,"z":0,"color":"blue"}`, "#rgb or #rrggbb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateOutput("world", wrap(tt.voxels))
			require.False(t, res.Accepted)
			assert.Contains(t, strings.Join(res.Errors, "; "), tt.errPart)
		})
	}

	t.Run("same position different agents is fine per submit", func(t *testing.T) {
		res := ValidateOutput("world", wrap(`{"x":1,"y":2,"z":3},{"x":1,"y":2,"z":4}`))
		assert.True(t, res.Accepted, "errors: %v", res.Errors)
	})

	t.Run("voxels ignored for visual outputs", func(t *testing.T) {
		res := ValidateOutput("visual", []byte(`{"voxels":[{"x":1.5,"y":0,"z":0}]}`))
		assert.True(t, res.Accepted, "errors: %v", res.Errors)
	})
}

func TestWorldCollectionCaps(t *testing.T) {
	buildVoxels := func(n int) []byte {
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf(`{"x":%d,"y":%d,"z":0}`, i%100, i/100)
		}
		return []byte(`{"voxels":[` + strings.Join(items, ",") + `]}`)
	}

	t.Run("voxel cap", func(t *testing.T) {
		res := ValidateOutput("world", buildVoxels(MaxVoxels))
		assert.True(t, res.Accepted, "errors: %v", res.Errors)

		res = ValidateOutput("world", buildVoxels(MaxVoxels+1))
		require.False(t, res.Accepted)
		assert.Contains(t, res.Errors[0], "too many voxels")
	})

	buildItems := func(field string, n int) []byte {
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf(`{"id":"item_%d"}`, i)
		}
		return []byte(`{"` + field + `":[` + strings.Join(items, ",") + `]}`)
	}

	t.Run("catalog item cap", func(t *testing.T) {
		res := ValidateOutput("world", buildItems("catalog_items", MaxCatalogItems))
		assert.True(t, res.Accepted, "errors: %v", res.Errors)

		res = ValidateOutput("world", buildItems("catalog_items", MaxCatalogItems+1))
		require.False(t, res.Accepted)
		assert.Contains(t, res.Errors[0], "too many catalog_items")
	})

	t.Run("generated item cap", func(t *testing.T) {
		res := ValidateOutput("world", buildItems("generated_items", MaxGeneratedItems))
		assert.True(t, res.Accepted, "errors: %v", res.Errors)

		res = ValidateOutput("world", buildItems("generated_items", MaxGeneratedItems+1))
		require.False(t, res.Accepted)
		assert.Contains(t, res.Errors[0], "too many generated_items")
	})
}
