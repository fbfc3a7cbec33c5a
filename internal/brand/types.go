package brand

// ColorInfo is one palette entry.
type ColorInfo struct {
	Hex   string `json:"hex"`
	Name  string `json:"name"`
	Usage string `json:"usage"`
}

type HarmonyColor struct {
	Hex  string `json:"hex"`
	Name string `json:"name"`
}

// ColorHarmony is a suggested companion scheme (analogous, complementary,
// and so on) derived from the primary palette.
type ColorHarmony struct {
	Name        string         `json:"name"`
	Palette     []HarmonyColor `json:"palette"`
	Explanation string         `json:"explanation"`
}

type FontPair struct {
	Header string `json:"header"`
	Body   string `json:"body"`
	Notes  string `json:"notes"`
}

// LogoDescriptions holds text prompts detailed enough for an image model to
// draw from. None of them may ask for rendered text in the image.
type LogoDescriptions struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary"`
	Favicon   string   `json:"favicon,omitempty"`
}

// Bible is the structured identity produced by the critical pipeline stage.
// Downstream stages read it and never mutate it.
type Bible struct {
	BrandName        string           `json:"brandName"`
	Palette          []ColorInfo      `json:"palette"`
	Fonts            FontPair         `json:"fonts"`
	LogoDescriptions LogoDescriptions `json:"logoDescriptions"`
	Harmonies        []ColorHarmony   `json:"harmonies,omitempty"`
}

// GeneratedLogos mirrors LogoDescriptions but holds image data URIs.
type GeneratedLogos struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary"`
	Favicon   string   `json:"favicon,omitempty"`
}

type SocialMediaKitAssets struct {
	Banner        string   `json:"banner"`
	WebsiteBanner string   `json:"websiteBanner,omitempty"`
	PostTemplates []string `json:"postTemplates"`
}

type SeoRecommendations struct {
	TitleTags       []string `json:"titleTags"`
	MetaDescription string   `json:"metaDescription"`
	Keywords        []string `json:"keywords"`
}
