package transcode

import (
	"fmt"

	"chatbridge/internal/model"
	"chatbridge/internal/timeconv"
)

// Defaults applied when a preset leaves a field unset.
const (
	DefaultPresetTitle      = "Untitled"
	DefaultTemperature      = 0.8
	DefaultTopP             = 1.0
	DefaultFrequencyPenalty = 0.0
	DefaultPresencePenalty  = 0.0
)

// Owner identifies the Open WebUI user the exported models belong to.
type Owner struct {
	ID    string
	Name  string
	Email string
}

// PresetTranscoder builds Open WebUI model definitions from presets.
type PresetTranscoder struct {
	owner Owner
	times *timeconv.Normalizer
}

func NewPresetTranscoder(owner Owner, times *timeconv.Normalizer) *PresetTranscoder {
	return &PresetTranscoder{owner: owner, times: times}
}

// Transcode converts one preset. The model id is the preset title so that
// re-importing the same preset addresses the same Open WebUI model.
func (t *PresetTranscoder) Transcode(p model.SourcePreset) model.ModelRecord {
	title := PresetTitle(p)

	examples := []any{}
	if p.Examples != nil {
		examples = model.Plain([]any(p.Examples)).([]any)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	return model.ModelRecord{
		ID:          title,
		UserID:      t.owner.ID,
		BaseModelID: stringOr(p.Model, ""),
		Name:        title,
		Params: model.ModelParams{
			Temperature:      floatOr(p.Temperature, DefaultTemperature),
			System:           stringOr(p.PromptPrefix, ""),
			TopP:             floatOr(p.TopP, DefaultTopP),
			FrequencyPenalty: floatOr(p.FrequencyPenalty, DefaultFrequencyPenalty),
			PresencePenalty:  floatOr(p.PresencePenalty, DefaultPresencePenalty),
		},
		Meta: model.ModelMeta{
			Description:       fmt.Sprintf("Imported from LibreChat: %s", title),
			Capabilities:      model.Capabilities{Vision: true, Usage: false, Citations: true},
			SuggestionPrompts: examples,
			Tags:              tags,
		},
		AccessControl: nil,
		IsActive:      true,
		UpdatedAt:     t.times.EpochSeconds(p.UpdatedAt),
		CreatedAt:     t.times.EpochSeconds(p.CreatedAt),
		User: model.UserProfile{
			ID:    t.owner.ID,
			Name:  t.owner.Name,
			Email: t.owner.Email,
			Role:  "admin",
		},
	}
}

// PresetTitle returns the preset title, or DefaultPresetTitle when unset.
func PresetTitle(p model.SourcePreset) string {
	if p.Title == nil || *p.Title == "" {
		return DefaultPresetTitle
	}
	return *p.Title
}

func stringOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func floatOr(f *float64, def float64) float64 {
	if f == nil {
		return def
	}
	return *f
}
