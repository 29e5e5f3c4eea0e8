package umbra

import (
	_ "embed"
	"fmt"

	"github.com/yacchi/umbra/format/json"
)

// PresetName is the name of the bundled preset.
const PresetName = "guybrush"

//go:embed presets/guybrush.json
var presetData []byte

var bundledPreset = mustDecodePreset(presetData)

func mustDecodePreset(data []byte) Document {
	tree, err := json.Decode(data)
	if err != nil {
		panic(fmt.Sprintf("umbra: bundled preset: %v", err))
	}
	doc, err := DecodeDocument(tree)
	if err != nil {
		panic(fmt.Sprintf("umbra: bundled preset: %v", err))
	}
	return doc
}

// Preset returns a copy of the bundled preset: a pixel portrait drawn with
// one 10px square shadow per pixel on a transparent background.
func Preset() Document {
	return bundledPreset.clone()
}

// PresetJSON returns the bundled preset in its original JSON form.
func PresetJSON() []byte {
	return append([]byte(nil), presetData...)
}
