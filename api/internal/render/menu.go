package render

// Action identifiers carried in callback data.
const (
	ActionSummarize   = "summarize"
	ActionTranslateEN = "translate_en"
	ActionTranslateUA = "translate_ua"
	ActionKeywords    = "keywords"
	ActionBackToMenu  = "back_to_menu"
	ActionNewScan     = "new_scan"
)

type Button struct {
	Text   string
	Action string
}

// Menu is an inline keyboard, one slice per row.
type Menu [][]Button

func (m Menu) Actions() []string {
	var out []string
	for _, row := range m {
		for _, b := range row {
			out = append(out, b.Action)
		}
	}
	return out
}

func (m Menu) Empty() bool { return len(m.Actions()) == 0 }

func MainMenu() Menu {
	return Menu{
		{{Text: "📝 Summary", Action: ActionSummarize}},
		{
			{Text: "🇬🇧 English", Action: ActionTranslateEN},
			{Text: "🇺🇦 Українська", Action: ActionTranslateUA},
		},
		{{Text: "🔑 Key points", Action: ActionKeywords}},
		{{Text: "📄 Original text", Action: ActionBackToMenu}},
		{{Text: "🗑️ Finish / New photo", Action: ActionNewScan}},
	}
}

// BackMenu follows a generated result.
func BackMenu() Menu {
	return Menu{
		{{Text: "🔙 Back to menu", Action: ActionBackToMenu}},
		{{Text: "🗑️ Finish / New photo", Action: ActionNewScan}},
	}
}

// DetailMenu only leads back to the main menu.
func DetailMenu() Menu {
	return Menu{{{Text: "🔙 Back to menu", Action: ActionBackToMenu}}}
}

// DirectMenu follows a caption answer.
func DirectMenu() Menu {
	return Menu{
		{{Text: "📋 Show all actions", Action: ActionBackToMenu}},
		{{Text: "🗑️ Finish / New photo", Action: ActionNewScan}},
	}
}
