package llm

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// Profile is the static system instruction bound to one generation action.
type Profile struct {
	Action      string `yaml:"action"`
	Title       string `yaml:"title"`
	Instruction string `yaml:"instruction"`
}

type Profiles struct {
	byAction map[string]Profile
}

// LoadProfiles reads profiles from path, or the built-in set when path is empty.
func LoadProfiles(path string) (*Profiles, error) {
	if strings.TrimSpace(path) == "" {
		return ParseProfiles(defaultProfilesYAML)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseProfiles(b)
}

func DefaultProfiles() *Profiles {
	p, err := ParseProfiles(defaultProfilesYAML)
	if err != nil {
		panic(err)
	}
	return p
}

func ParseProfiles(b []byte) (*Profiles, error) {
	var doc struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	out := &Profiles{byAction: make(map[string]Profile, len(doc.Profiles))}
	for _, p := range doc.Profiles {
		p.Action = strings.TrimSpace(p.Action)
		p.Instruction = strings.TrimSpace(p.Instruction)
		if p.Action == "" || p.Instruction == "" {
			return nil, fmt.Errorf("parse profiles: profile %q needs action and instruction", p.Action)
		}
		if _, dup := out.byAction[p.Action]; dup {
			return nil, fmt.Errorf("parse profiles: duplicate action %q", p.Action)
		}
		out.byAction[p.Action] = p
	}
	return out, nil
}

// Lookup returns the profile for action. Unknown actions get a generic profile
// built from the raw identifier.
func (ps *Profiles) Lookup(action string) Profile {
	if p, ok := ps.byAction[action]; ok {
		return p
	}
	return GenericProfile(action)
}

func (ps *Profiles) Has(action string) bool {
	_, ok := ps.byAction[action]
	return ok
}

func GenericProfile(action string) Profile {
	task := strings.ReplaceAll(strings.TrimSpace(action), "_", " ")
	return Profile{
		Action: action,
		Title:  "🤖 *Result:*",
		Instruction: fmt.Sprintf("You are a document assistant. Perform the task %q on the document text. "+
			"Answer concisely in the language of the document. "+formattingRules, task),
	}
}

// CaptionProfile turns a photo caption into an ad-hoc instruction for direct mode.
func CaptionProfile(caption string) Profile {
	return Profile{
		Action: "caption",
		Title:  "⚡ *Answer:*",
		Instruction: "You are a document assistant. The user sent a document photo with this request:\n" +
			strings.TrimSpace(caption) + "\n" +
			"Fulfil the request using only the document text. " + formattingRules,
	}
}

const formattingRules = "Format for Telegram Markdown: use single asterisks for *bold*, never double asterisks, no headings, no code fences."
