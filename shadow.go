package umbra

import "fmt"

// Shape is the outline of the preview element.
type Shape string

const (
	// ShapeSquare renders with square corners.
	ShapeSquare Shape = "square"

	// ShapeCircle renders fully rounded. Any shape other than ShapeSquare
	// is treated the same way.
	ShapeCircle Shape = "circle"
)

// Shadow is one layer of the composed box-shadow.
type Shadow struct {
	ID      int    `json:"pk" yaml:"pk" toml:"pk" mapstructure:"pk"`
	OffsetX int    `json:"hoff" yaml:"hoff" toml:"hoff" mapstructure:"hoff"`
	OffsetY int    `json:"voff" yaml:"voff" toml:"voff" mapstructure:"voff"`
	Blur    int    `json:"blur" yaml:"blur" toml:"blur" mapstructure:"blur"`
	Spread  int    `json:"spread" yaml:"spread" toml:"spread" mapstructure:"spread"`
	Color   string `json:"color" yaml:"color" toml:"color" mapstructure:"color"`
}

// String renders the layer as one box-shadow term,
// e.g. "5px 5px 0px 0px #ff0000".
func (s Shadow) String() string {
	return fmt.Sprintf("%dpx %dpx %dpx %dpx %s", s.OffsetX, s.OffsetY, s.Blur, s.Spread, s.Color)
}

// Settings are the global properties of the preview element.
type Settings struct {
	Shape Shape  `json:"shape" yaml:"shape" toml:"shape" mapstructure:"shape"`
	Size  string `json:"size" yaml:"size" toml:"size" mapstructure:"size"`
	Color string `json:"color" yaml:"color" toml:"color" mapstructure:"color"`
}

// DefaultSettings returns the settings of a new store.
func DefaultSettings() Settings {
	return Settings{
		Shape: ShapeSquare,
		Size:  "60",
		Color: "#000000",
	}
}

// newLayer returns the layer appended by AddLayer.
func newLayer(id int) Shadow {
	return Shadow{
		ID:      id,
		OffsetX: 10,
		OffsetY: 10,
		Blur:    20,
		Spread:  2,
		Color:   "#ff00ff",
	}
}

// seedLayers returns the example layers a new store starts with.
func seedLayers() []Shadow {
	return []Shadow{
		{ID: 1, OffsetX: 5, OffsetY: 5, Color: "#ff0000"},
		{ID: 2, OffsetX: 10, OffsetY: 10, Color: "#00ff00"},
	}
}
