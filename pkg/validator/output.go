package validator

import (
	"encoding/json"
	"math"
	"regexp"
)

// Serialized size caps per output type.
const (
	MaxVisualOutputBytes = 8 << 10
	MaxWorldOutputBytes  = 32 << 10
	MaxGameOutputBytes   = 4 << 10
)

// Collection maxima enforced on world and visual outputs.
const (
	MaxElements       = 50
	MaxVoxels         = 500
	MaxCatalogItems   = 30
	MaxGeneratedItems = 10
)

// Numeric ranges for element fields.
const (
	MinScale    = 0.05
	MaxScale    = 30
	MaxCoord    = 100
	MaxRotation = 2 * math.Pi
)

// elementTypes enumerates the renderable primitives.
var elementTypes = map[string]bool{
	"box": true, "sphere": true, "cylinder": true, "cone": true,
	"torus": true, "plane": true, "ring": true, "text": true,
	"light": true, "sprite": true,
}

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// outputCaps keys the size limit by output type.
var outputCaps = map[string]int{
	"visual": MaxVisualOutputBytes,
	"world":  MaxWorldOutputBytes,
	"game":   MaxGameOutputBytes,
}

// ValidateOutput checks a serialized visual, world or game output against
// the schema for its type. World outputs additionally carry voxel and item
// collections; the environment map is free-form and not schema-checked.
func ValidateOutput(kind string, raw []byte) Result {
	var r Result

	limit, ok := outputCaps[kind]
	if !ok {
		r.errorf("unknown output type %q", kind)
		return r.finalize()
	}
	if len(raw) > limit {
		r.errorf("%s output exceeds %d bytes (got %d)", kind, limit, len(raw))
		return r.finalize()
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.errorf("output is not valid JSON: %v", err)
		return r.finalize()
	}

	checkElements(doc, &r)
	if kind == "world" {
		checkVoxels(doc, &r)
		checkItemCount(doc, "catalog_items", MaxCatalogItems, &r)
		checkItemCount(doc, "generated_items", MaxGeneratedItems, &r)
	}

	return r.finalize()
}

func checkElements(doc map[string]any, r *Result) {
	raw, ok := doc["elements"]
	if !ok {
		return
	}
	list, ok := raw.([]any)
	if !ok {
		r.errorf("elements must be an array")
		return
	}
	if len(list) > MaxElements {
		r.errorf("too many elements: %d (max %d)", len(list), MaxElements)
	}
	for i, item := range list {
		el, ok := item.(map[string]any)
		if !ok {
			r.errorf("elements[%d]: must be an object", i)
			continue
		}
		checkElement(i, el, r)
	}
}

func checkElement(i int, el map[string]any, r *Result) {
	typ, ok := el["type"].(string)
	if !ok {
		r.errorf("elements[%d]: missing type", i)
	} else if !elementTypes[typ] {
		r.errorf("elements[%d]: unknown element type %q", i, typ)
	}

	if v, ok := el["color"]; ok {
		s, isStr := v.(string)
		if !isStr || !colorPattern.MatchString(s) {
			r.errorf("elements[%d]: color must be #rgb or #rrggbb", i)
		}
	}

	checkScale(i, el, r)
	checkUnitField(i, el, "opacity", r)
	checkUnitField(i, el, "metalness", r)
	checkUnitField(i, el, "roughness", r)

	if v, ok := el["position"]; ok {
		checkVector(i, "position", v, MaxCoord, r)
	}
	if v, ok := el["rotation"]; ok {
		checkVector(i, "rotation", v, MaxRotation, r)
	}
}

// checkScale accepts either a uniform number or a per-axis vector, each
// component within [MinScale, MaxScale].
func checkScale(i int, el map[string]any, r *Result) {
	v, ok := el["scale"]
	if !ok {
		return
	}
	if f, isNum := v.(float64); isNum {
		if f < MinScale || f > MaxScale {
			r.errorf("elements[%d]: scale %v out of range %v-%v", i, f, MinScale, float64(MaxScale))
		}
		return
	}
	comps, ok := vec3(v)
	if !ok {
		r.errorf("elements[%d]: scale must be a number or an {x,y,z} vector", i)
		return
	}
	for _, f := range comps {
		if f < MinScale || f > MaxScale {
			r.errorf("elements[%d]: scale %v out of range %v-%v", i, f, MinScale, float64(MaxScale))
			return
		}
	}
}

func checkUnitField(i int, el map[string]any, field string, r *Result) {
	v, ok := el[field]
	if !ok {
		return
	}
	f, isNum := v.(float64)
	if !isNum || f < 0 || f > 1 {
		r.errorf("elements[%d]: %s must be a number between 0 and 1", i, field)
	}
}

// checkVector accepts [x,y,z] arrays and {x,y,z} objects and bounds each
// component to ±limit.
func checkVector(i int, field string, v any, limit float64, r *Result) {
	comps, ok := vec3(v)
	if !ok {
		r.errorf("elements[%d]: %s must be an [x,y,z] array or {x,y,z} object", i, field)
		return
	}
	for _, f := range comps {
		if f < -limit || f > limit {
			r.errorf("elements[%d]: %s component %v out of range ±%v", i, field, f, limit)
			return
		}
	}
}

// vec3 extracts three numeric components from either JSON vector form.
func vec3(v any) ([]float64, bool) {
	switch t := v.(type) {
	case []any:
		if len(t) != 3 {
			return nil, false
		}
		out := make([]float64, 3)
		for i, c := range t {
			f, ok := c.(float64)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	case map[string]any:
		out := make([]float64, 0, 3)
		for _, k := range []string{"x", "y", "z"} {
			f, ok := t[k].(float64)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	default:
		return nil, false
	}
}

// checkVoxels enforces the integer-grid rules: whole-number coordinates,
// y in [0,100], x and z in [-100,100], and no two voxels on one position.
func checkVoxels(doc map[string]any, r *Result) {
	raw, ok := doc["voxels"]
	if !ok {
		return
	}
	list, ok := raw.([]any)
	if !ok {
		r.errorf("voxels must be an array")
		return
	}
	if len(list) > MaxVoxels {
		r.errorf("too many voxels: %d (max %d)", len(list), MaxVoxels)
	}

	seen := make(map[[3]int]bool, len(list))
	for i, item := range list {
		vx, ok := item.(map[string]any)
		if !ok {
			r.errorf("voxels[%d]: must be an object", i)
			continue
		}
		var pos [3]int
		bad := false
		for j, k := range []string{"x", "y", "z"} {
			f, isNum := vx[k].(float64)
			if !isNum {
				r.errorf("voxels[%d]: missing numeric %s", i, k)
				bad = true
				break
			}
			if math.Trunc(f) != f {
				r.errorf("voxels[%d]: %s must be an integer (got %v)", i, k, f)
				bad = true
				break
			}
			pos[j] = int(f)
		}
		if bad {
			continue
		}
		if pos[1] < 0 || pos[1] > 100 {
			r.errorf("voxels[%d]: y %d out of range 0-100", i, pos[1])
			continue
		}
		if pos[0] < -100 || pos[0] > 100 || pos[2] < -100 || pos[2] > 100 {
			r.errorf("voxels[%d]: x,z must be within ±100", i)
			continue
		}
		if v, ok := vx["color"]; ok {
			s, isStr := v.(string)
			if !isStr || !colorPattern.MatchString(s) {
				r.errorf("voxels[%d]: color must be #rgb or #rrggbb", i)
			}
		}
		if seen[pos] {
			r.errorf("voxels[%d]: duplicate position (%d,%d,%d)", i, pos[0], pos[1], pos[2])
			continue
		}
		seen[pos] = true
	}
}

func checkItemCount(doc map[string]any, field string, max int, r *Result) {
	raw, ok := doc[field]
	if !ok {
		return
	}
	list, ok := raw.([]any)
	if !ok {
		r.errorf("%s must be an array", field)
		return
	}
	if len(list) > max {
		r.errorf("too many %s: %d (max %d)", field, len(list), max)
	}
}
