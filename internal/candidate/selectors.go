package candidate

// Selectors locate the candidate data on the chat page.
type Selectors struct {
	List      string `mapstructure:"list"`
	Item      string `mapstructure:"item"`
	Badge     string `mapstructure:"badge"`
	SourceJob string `mapstructure:"source-job"`

	ResumeContent string `mapstructure:"resume-content"`
	Detail        string `mapstructure:"detail"`
	Position      string `mapstructure:"position"`
	SelfMessages  string `mapstructure:"self-messages"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		List:          ".user-list",
		Item:          ".geek-item",
		Badge:         ".badge-count-common-less",
		SourceJob:     ".source-job",
		ResumeContent: ".resume-container .boss-popup__content",
		Detail:        ".base-info-single-detial",
		Position:      "span.position-name",
		SelfMessages:  ".item-myself .text span",
	}
}
