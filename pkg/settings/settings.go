// Package settings defines the renderer settings, their defaults and their
// validation.
//
// Settings are a plain struct decoded from TOML with
// github.com/BurntSushi/toml. Keys use snake_case:
//
//	[renderer]
//	label_density = 0.5
//	enable_edge_hover_events = "debounce"
//	max_camera_ratio = 10.0
//
// Single keys can be changed at runtime with [Settings.Set], which runs the
// value through the same TOML decoder so that programmatic updates, config
// files and HTTP payloads share one code path.
package settings

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

// Item size references.
const (
	SizesScreen    = "screen"
	SizesPositions = "positions"
)

// Settings configures a renderer.
type Settings struct {
	HideEdgesOnMove  bool `toml:"hide_edges_on_move"`
	HideLabelsOnMove bool `toml:"hide_labels_on_move"`
	RenderLabels     bool `toml:"render_labels"`
	RenderEdgeLabels bool `toml:"render_edge_labels"`

	EnableEdgeClickEvents bool      `toml:"enable_edge_click_events"`
	EnableEdgeWheelEvents bool      `toml:"enable_edge_wheel_events"`
	EnableEdgeHoverEvents HoverMode `toml:"enable_edge_hover_events"`

	DefaultNodeColor int     `toml:"default_node_color"`
	DefaultNodeSize  float64 `toml:"default_node_size"`
	DefaultNodeType  int     `toml:"default_node_type"`
	DefaultEdgeColor int     `toml:"default_edge_color"`
	DefaultEdgeSize  float64 `toml:"default_edge_size"`
	DefaultEdgeType  int     `toml:"default_edge_type"`

	LabelFont          string   `toml:"label_font"`
	LabelSize          float64  `toml:"label_size"`
	LabelColor         string   `toml:"label_color"`
	EdgeLabelSize      float64  `toml:"edge_label_size"`
	EdgeLabelColor     string   `toml:"edge_label_color"`
	StagePadding       float64  `toml:"stage_padding"`
	ItemSizesReference string   `toml:"item_sizes_reference"`
	ZoomToSizeRatio    ZoomFunc `toml:"zoom_to_size_ratio_function"`

	LabelDensity               float64 `toml:"label_density"`
	LabelGridCellSize          float64 `toml:"label_grid_cell_size"`
	LabelRenderedSizeThreshold float64 `toml:"label_rendered_size_threshold"`

	ZIndex         bool     `toml:"z_index"`
	MinCameraRatio *float64 `toml:"min_camera_ratio,omitempty"`
	MaxCameraRatio *float64 `toml:"max_camera_ratio,omitempty"`

	AllowInvalidContainer bool `toml:"allow_invalid_container"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		RenderLabels:               true,
		EnableEdgeHoverEvents:      HoverOff,
		DefaultNodeColor:           1,
		DefaultNodeSize:            10,
		DefaultEdgeColor:           2,
		DefaultEdgeSize:            1,
		LabelSize:                  14,
		LabelColor:                 "#000",
		EdgeLabelSize:              14,
		EdgeLabelColor:             "#000",
		StagePadding:               30,
		ItemSizesReference:         SizesScreen,
		ZoomToSizeRatio:            ZoomSqrt,
		LabelDensity:               1,
		LabelGridCellSize:          100,
		LabelRenderedSizeThreshold: 6,
	}
}

// Clone returns a copy of s that shares no pointers with it.
func (s Settings) Clone() Settings {
	if s.MinCameraRatio != nil {
		v := *s.MinCameraRatio
		s.MinCameraRatio = &v
	}
	if s.MaxCameraRatio != nil {
		v := *s.MaxCameraRatio
		s.MaxCameraRatio = &v
	}
	return s
}

// Validate checks cross-field constraints.
func (s Settings) Validate() error {
	if err := errors.ValidateNonNegative("label_density", s.LabelDensity); err != nil {
		return err
	}
	if err := errors.ValidatePositive("label_grid_cell_size", s.LabelGridCellSize); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("stage_padding", s.StagePadding); err != nil {
		return err
	}
	if err := errors.ValidateOneOf("item_sizes_reference", s.ItemSizesReference, SizesScreen, SizesPositions); err != nil {
		return err
	}
	if !s.ZoomToSizeRatio.valid() {
		return errors.New(errors.ErrCodeInvalidSetting, "unknown zoom_to_size_ratio_function %q", s.ZoomToSizeRatio)
	}
	for _, v := range []struct {
		name string
		p    *float64
	}{{"min_camera_ratio", s.MinCameraRatio}, {"max_camera_ratio", s.MaxCameraRatio}} {
		if v.p == nil {
			continue
		}
		if err := errors.ValidatePositive(v.name, *v.p); err != nil {
			return err
		}
	}
	if s.MinCameraRatio != nil && s.MaxCameraRatio != nil && *s.MaxCameraRatio < *s.MinCameraRatio {
		return errors.New(errors.ErrCodeInvalidSetting,
			"invalid camera ratio boundaries: max_camera_ratio (%v) < min_camera_ratio (%v)",
			*s.MaxCameraRatio, *s.MinCameraRatio)
	}
	if s.DefaultNodeType < 0 || s.DefaultNodeType > 3 {
		return errors.New(errors.ErrCodeInvalidSetting, "default_node_type must be in [0, 3], got %d", s.DefaultNodeType)
	}
	if s.DefaultEdgeType < 0 || s.DefaultEdgeType > 7 {
		return errors.New(errors.ErrCodeInvalidSetting, "default_edge_type must be in [0, 7], got %d", s.DefaultEdgeType)
	}
	return nil
}

// CameraBounds returns the ratio bounds with 0 meaning unbounded.
func (s Settings) CameraBounds() (minRatio, maxRatio float64) {
	if s.MinCameraRatio != nil {
		minRatio = *s.MinCameraRatio
	}
	if s.MaxCameraRatio != nil {
		maxRatio = *s.MaxCameraRatio
	}
	return minRatio, maxRatio
}

// =============================================================================
// TOML
// =============================================================================

// Decode reads TOML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (Settings, error) {
	s := Default()
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode settings")
	}
	if err := rejectUndecoded(md); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads settings from a TOML file.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "settings file %s", path)
		}
		return Settings{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes s as TOML.
func (s Settings) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// Set changes the setting named key. The value goes through the TOML decoder
// so it accepts whatever a config file would. A nil value clears an optional
// camera bound. On error s is unchanged.
func (s *Settings) Set(key string, value any) error {
	next := s.Clone()
	if value == nil {
		switch key {
		case "min_camera_ratio":
			next.MinCameraRatio = nil
		case "max_camera_ratio":
			next.MaxCameraRatio = nil
		default:
			return errors.New(errors.ErrCodeInvalidSetting, "setting %q cannot be cleared", key)
		}
	} else {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(map[string]any{key: normalize(value)}); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSetting, err, "encode %s", key)
		}
		md, err := toml.Decode(buf.String(), &next)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSetting, err, "set %s", key)
		}
		if err := rejectUndecoded(md); err != nil {
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// SetAll applies every key of values with [Settings.Set]. Keys are applied in
// sorted order; on error s is unchanged.
func (s *Settings) SetAll(values map[string]any) error {
	next := s.Clone()
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if err := next.Set(k, values[k]); err != nil {
			return err
		}
	}
	*s = next
	return nil
}

func rejectUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return errors.New(errors.ErrCodeInvalidSetting, "unknown setting(s): %s", strings.Join(keys, ", "))
}

// normalize turns integral floats (as produced by JSON decoding) into
// integers, which TOML decodes into both int and float fields.
func normalize(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
	case float32:
		return normalize(float64(n))
	case int:
		return int64(n)
	}
	return v
}

// =============================================================================
// Enumerations
// =============================================================================

// HoverMode controls edge hover detection.
type HoverMode string

// Hover modes. In debounce mode edge hover is checked at most once per frame.
const (
	HoverOff      HoverMode = "false"
	HoverOn       HoverMode = "true"
	HoverDebounce HoverMode = "debounce"
)

// UnmarshalText accepts true, false and debounce. TOML booleans arrive as
// their text form.
func (m *HoverMode) UnmarshalText(b []byte) error {
	switch v := HoverMode(strings.ToLower(string(b))); v {
	case HoverOff, HoverOn, HoverDebounce:
		*m = v
		return nil
	case "":
		*m = HoverOff
		return nil
	default:
		return fmt.Errorf("invalid edge hover mode %q (want true, false or debounce)", b)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m HoverMode) MarshalText() ([]byte, error) {
	if m == "" {
		return []byte(HoverOff), nil
	}
	return []byte(m), nil
}

// ZoomFunc names the function mapping the camera ratio to a size divisor.
type ZoomFunc string

// Zoom functions.
const (
	ZoomSqrt     ZoomFunc = "sqrt"
	ZoomLinear   ZoomFunc = "linear"
	ZoomConstant ZoomFunc = "constant"
)

func (z ZoomFunc) valid() bool {
	switch z {
	case ZoomSqrt, ZoomLinear, ZoomConstant:
		return true
	}
	return false
}

// Apply evaluates the zoom function at ratio.
func (z ZoomFunc) Apply(ratio float64) float64 {
	switch z {
	case ZoomLinear:
		return ratio
	case ZoomConstant:
		return 1
	default:
		return math.Sqrt(ratio)
	}
}
