package outreach

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// JobPosting is one job as extracted by the model. Keys beyond the four
// requested ones are kept in Extra.
type JobPosting struct {
	Role        string         `json:"role" mapstructure:"role"`
	Experience  string         `json:"experience" mapstructure:"experience"`
	Skills      []string       `json:"skills" mapstructure:"skills"`
	Description string         `json:"description" mapstructure:"description"`
	Extra       map[string]any `json:"-" mapstructure:",remain"`
}

// MarshalJSON flattens Extra next to the known keys so the drafting prompt
// sees the record as the model produced it.
func (j JobPosting) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(j.Extra)+4)
	for k, v := range j.Extra {
		out[k] = v
	}
	out["role"] = j.Role
	out["experience"] = j.Experience
	out["skills"] = j.skillsOrEmpty()
	out["description"] = j.Description
	return json.Marshal(out)
}

func (j JobPosting) skillsOrEmpty() []string {
	if j.Skills == nil {
		return []string{}
	}
	return j.Skills
}

// decodeJob reads a JSON object leniently. Numbers become strings, a single
// string skill becomes a list and nested values are flattened to text.
// Fields that still do not fit are left empty.
func decodeJob(obj map[string]any) JobPosting {
	var job JobPosting

	cfg := &mapstructure.DecoderConfig{
		Result:           &job,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(stringToSkillsHook, anyToStringHook),
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err == nil {
		if err := decoder.Decode(normalizeKeys(obj)); err != nil {
			job = decodeFieldByField(obj)
		}
	}

	job.Skills = trimSkills(job.Skills)
	return job
}

// decodeFieldByField salvages the fields that decode on their own.
func decodeFieldByField(obj map[string]any) JobPosting {
	var job JobPosting
	for key, value := range normalizeKeys(obj) {
		var single JobPosting
		cfg := &mapstructure.DecoderConfig{
			Result:           &single,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(stringToSkillsHook, anyToStringHook),
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			continue
		}
		if err := decoder.Decode(map[string]any{key: value}); err != nil {
			continue
		}

		switch key {
		case "role":
			job.Role = single.Role
		case "experience":
			job.Experience = single.Experience
		case "skills":
			job.Skills = single.Skills
		case "description":
			job.Description = single.Description
		default:
			if job.Extra == nil {
				job.Extra = map[string]any{}
			}
			job.Extra[key] = value
		}
	}
	return job
}

// normalizeKeys lowercases the four known keys so "Role" and "Skills"
// decode too. Other keys are kept as is.
func normalizeKeys(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		switch lower := strings.ToLower(strings.TrimSpace(k)); lower {
		case "role", "experience", "skills", "description":
			out[lower] = v
		default:
			out[k] = v
		}
	}
	return out
}

func stringToSkillsHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
		return data, nil
	}

	s := strings.TrimSpace(data.(string))
	if s == "" {
		return []string{}, nil
	}
	return strings.Split(s, ","), nil
}

// anyToStringHook renders objects and lists as JSON when a string is
// expected, e.g. {"experience": {"min": 3, "max": 5}}.
func anyToStringHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Map, reflect.Slice:
		raw, err := json.Marshal(data)
		if err != nil {
			return data, nil
		}
		return string(raw), nil
	}
	return data, nil
}

func trimSkills(skills []string) []string {
	if skills == nil {
		return nil
	}
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
