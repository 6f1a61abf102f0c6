package template

import "github.com/On-Jun9/ShutterRename/pkg/types"

// DefaultTemplate is used when no template has been saved yet.
const DefaultTemplate = "{YYYY}-{MM}-{DD}_{hh}{mm}{ss}"

var builtInPresets = []types.TemplatePreset{
	{Name: "datetime", Description: "Capture date and time", Template: DefaultTemplate},
	{Name: "compact", Description: "Compact date and time", Template: "{YYYY}{MM}{DD}_{hh}{mm}{ss}"},
	{Name: "date-camera", Description: "Capture date and camera model", Template: "{YYYY}-{MM}-{DD}_{Camera}"},
	{Name: "camera-lens", Description: "Camera body and lens", Template: "{Date}_{Make}_{Camera}_{Lens}"},
	{Name: "exposure", Description: "Date with exposure settings", Template: "{YYYY}{MM}{DD}_{FocalLength}_{Aperture}_{Shutter}_ISO{ISO}"},
}

// Presets returns the built-in templates.
func Presets() []types.TemplatePreset {
	out := make([]types.TemplatePreset, len(builtInPresets))
	for i, p := range builtInPresets {
		p.BuiltIn = true
		out[i] = p
	}
	return out
}

// LookupPreset finds a built-in preset by name.
func LookupPreset(name string) (types.TemplatePreset, bool) {
	for _, p := range Presets() {
		if p.Name == name {
			return p, true
		}
	}
	return types.TemplatePreset{}, false
}
