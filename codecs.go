package umbra

import (
	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/format"
	"github.com/yacchi/umbra/format/json"
	"github.com/yacchi/umbra/format/jsonc"
	"github.com/yacchi/umbra/format/toml"
	"github.com/yacchi/umbra/format/yaml"
)

// DefaultRegistry returns a registry with the JSON, JSONC, YAML and TOML
// codecs. Besides the canonical media types it accepts "text/json" (sent by
// some browsers for .json uploads), "application/x-yaml" and "text/yaml".
func DefaultRegistry() *format.Registry {
	r := format.NewRegistry()
	mustRegister(r, json.NewCodec(), "text/json")
	mustRegister(r, jsonc.NewCodec())
	mustRegister(r, yaml.NewCodec(), "application/x-yaml", "text/yaml")
	mustRegister(r, toml.NewCodec())
	return r
}

func mustRegister(r *format.Registry, c document.Codec, aliases ...string) {
	if err := r.Register(c, aliases...); err != nil {
		panic(err)
	}
}
