package brand

import (
	"fmt"
	"strings"

	"branding-bible/internal/gemini"
)

// ChatSystemInstruction is the persona used by the branding chat.
const ChatSystemInstruction = `You are "Branding Bot", an expert AI assistant specializing in branding, marketing, and design.
Your goal is to help users refine their brand identity based on the brand bible they've generated.
You are friendly, insightful, and provide actionable advice.
When asked for visual ideas, describe them vividly but do not generate images.
Keep your responses concise and focused on the user's questions.`

// ChatGreeting is the synthetic opening transcript entry. It is shown to
// the user but never sent to the service.
const ChatGreeting = "Hello! I'm your branding assistant. Ask me anything about brand strategy, design, or marketing."

func BiblePrompt(mission string) string {
	return fmt.Sprintf(`Based on the following company mission, generate a comprehensive brand bible. The output must be a valid JSON object that strictly follows the provided schema.

**Mission:** %q

The brand bible should include:
1. **brandName**: A catchy and relevant brand name.
2. **palette**: An array of 5 color objects, each with 'hex' (e.g., "#FFFFFF"), 'name' (e.g., "Snow White"), and 'usage' (e.g., "Primary Background").
3. **fonts**: An object with 'header' and 'body' font pairings from Google Fonts, and 'notes' explaining the choice.
4. **logoDescriptions**: An object with 'primary' (a detailed description for the main logo), 'secondary' (an array of exactly two descriptions for secondary marks/icons), and 'favicon' (a description for a simplified, iconic version of the primary logo, suitable for small sizes like 16x16. It must avoid text and fine details). The descriptions should be detailed enough for an image generation model to create a visual from it. For example, "A minimalist line art logo of a phoenix rising, geometric style, using the primary brand color". The descriptions MUST NOT contain any text.
5. **harmonies**: An array of 2 suggested color harmony objects (e.g., Analogous, Complementary) that complement the primary palette. Each object must include: 'name' (the harmony type), 'palette' (an array of 3-4 new color objects with 'hex' and 'name'), and 'explanation' (a brief sentence on why this harmony works for the brand).`, mission)
}

func BibleSchema() *gemini.Schema {
	colorSchema := &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"hex":   {Type: gemini.TypeString, Description: "The hexadecimal code for the color."},
			"name":  {Type: gemini.TypeString, Description: "A descriptive name for the color."},
			"usage": {Type: gemini.TypeString, Description: "The intended use for the color (e.g., Primary, Accent)."},
		},
		Required: []string{"hex", "name", "usage"},
	}

	return &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"brandName": {Type: gemini.TypeString, Description: "A catchy and relevant brand name for the company."},
			"palette": {
				Type:        gemini.TypeArray,
				Description: "An array of 5 color objects that form the brand's color palette.",
				Items:       colorSchema,
			},
			"fonts": {
				Type:        gemini.TypeObject,
				Description: "An object describing the font pairing for the brand.",
				Properties: map[string]*gemini.Schema{
					"header": {Type: gemini.TypeString, Description: "The name of the Google Font for headers."},
					"body":   {Type: gemini.TypeString, Description: "The name of the Google Font for body text."},
					"notes":  {Type: gemini.TypeString, Description: "A brief note on why this font pairing works for the brand."},
				},
				Required: []string{"header", "body", "notes"},
			},
			"logoDescriptions": {
				Type:        gemini.TypeObject,
				Description: "Detailed descriptions for generating the brand's logos.",
				Properties: map[string]*gemini.Schema{
					"primary": {Type: gemini.TypeString, Description: "A detailed visual description for the primary logo. No text."},
					"secondary": {
						Type:        gemini.TypeArray,
						Description: "An array of exactly two detailed visual descriptions for secondary logos or marks. No text.",
						Items:       &gemini.Schema{Type: gemini.TypeString},
					},
					"favicon": {Type: gemini.TypeString, Description: "A simplified, iconic version of the primary logo description for use as a favicon. No text, no fine details."},
				},
				Required: []string{"primary", "secondary", "favicon"},
			},
			"harmonies": {
				Type:        gemini.TypeArray,
				Description: "An array of 2 suggested color harmonies based on the primary palette.",
				Items: &gemini.Schema{
					Type: gemini.TypeObject,
					Properties: map[string]*gemini.Schema{
						"name": {Type: gemini.TypeString, Description: "The name of the color harmony (e.g., 'Analogous Harmony')."},
						"palette": {
							Type:        gemini.TypeArray,
							Description: "An array of 3-4 color objects for this harmony.",
							Items: &gemini.Schema{
								Type: gemini.TypeObject,
								Properties: map[string]*gemini.Schema{
									"hex":  {Type: gemini.TypeString, Description: "The hexadecimal code for the color."},
									"name": {Type: gemini.TypeString, Description: "A descriptive name for the color."},
								},
								Required: []string{"hex", "name"},
							},
						},
						"explanation": {Type: gemini.TypeString, Description: "A brief explanation of why this harmony works for the brand."},
					},
					Required: []string{"name", "palette", "explanation"},
				},
			},
		},
		Required: []string{"brandName", "palette", "fonts", "logoDescriptions", "harmonies"},
	}
}

func VoicePrompt(mission string, b *Bible) string {
	colors := make([]string, 0, len(b.Palette))
	for _, c := range b.Palette {
		colors = append(colors, fmt.Sprintf("%s (%s)", c.Name, c.Hex))
	}

	return fmt.Sprintf(`Based on the company mission and brand bible, define the brand's voice and tone.
The output must be in Markdown format.

**Company Mission:** %q

**Brand Name:** %s
**Color Palette:** %s
**Typography:** Header: %s, Body: %s

Please provide:
## Brand Voice Summary
A short paragraph summarizing the core voice.

## Voice Characteristics
- **We are:** (list 3-4 positive adjectives)
- **We are not:** (list 3-4 contrasting adjectives)

## Example Applications
Provide a few short examples of this voice in action (e.g., a social media post, an email subject line).`,
		mission, b.BrandName, strings.Join(colors, ", "), b.Fonts.Header, b.Fonts.Body)
}

func SeoPrompt(mission string, b *Bible) string {
	return fmt.Sprintf(`Based on the company mission and brand bible, generate SEO metadata recommendations.
The output must be a valid JSON object that strictly follows the provided schema.

**Company Mission:** %q
**Brand Name:** %s

Please provide:
1. **titleTags**: 3 distinct, compelling HTML title tags (approx 50-60 characters).
2. **metaDescription**: A concise, SEO-friendly meta description (150-160 characters) summarizing the brand.
3. **keywords**: A list of 10-15 relevant SEO keywords or keyphrases for the website.`, mission, b.BrandName)
}

func SeoSchema() *gemini.Schema {
	return &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"titleTags": {
				Type:        gemini.TypeArray,
				Description: "3 suggested title tags.",
				Items:       &gemini.Schema{Type: gemini.TypeString},
			},
			"metaDescription": {Type: gemini.TypeString, Description: "Meta description for the homepage."},
			"keywords": {
				Type:        gemini.TypeArray,
				Description: "List of SEO keywords.",
				Items:       &gemini.Schema{Type: gemini.TypeString},
			},
		},
		Required: []string{"titleTags", "metaDescription", "keywords"},
	}
}

func PostIdeasPrompt(mission string, b *Bible) string {
	names := colorNames(b)

	return fmt.Sprintf(`Based on the company mission and brand bible, generate 5 creative and engaging social media post ideas. The output must be a valid JSON object that strictly follows the provided schema.

**Company Mission:** %q

**Brand Name:** %s
**Color Palette:** %s
**Typography:** Header: %s, Body: %s
**Voice Notes:** The voice should align with these font choices: %s

Please provide 5 distinct post ideas. Aim for a mix of types:
- An engaging question for the audience.
- A behind-the-scenes look at the company/product.
- A post celebrating a customer story or user-generated content.
- An educational tip or piece of advice related to the brand's industry.
- A creative promotional post for a product or service.`,
		mission, b.BrandName, names, b.Fonts.Header, b.Fonts.Body, b.Fonts.Notes)
}

func PostIdeasSchema() *gemini.Schema {
	return &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"posts": {
				Type:        gemini.TypeArray,
				Description: "An array of 5 social media post ideas, each as a string.",
				Items:       &gemini.Schema{Type: gemini.TypeString},
			},
		},
		Required: []string{"posts"},
	}
}

// MoodBoardPrompts returns the four abstract, thematic image prompts for
// the mood board.
func MoodBoardPrompts(b *Bible) []string {
	theme := colorNames(b)
	return []string{
		fmt.Sprintf("An abstract, visually striking image representing the core concept of '%s'. The image should evoke a sense of innovation and empowerment, using a color palette inspired by %s. High-resolution, cinematic lighting.", b.BrandName, theme),
		"A high-quality photograph that captures the mood and essence of the brand. Clean, modern, and professional. It should feel aspirational and align with the brand's mission.",
		fmt.Sprintf("A textured background that incorporates the brand's primary colors (%s) in a subtle, elegant way. Could be a digital graphic or a photograph of a real-world texture.", theme),
		fmt.Sprintf("A lifestyle image that represents the target audience of '%s'. The scene should be positive and engaging, reflecting the brand's values. Natural lighting.", b.BrandName),
	}
}

func WebsiteBannerPrompt(b *Bible) string {
	return fmt.Sprintf("A high-resolution website hero banner for '%s'. It should be visually captivating and incorporate the brand's color palette (%s). Design should be professional and modern, with plenty of negative space on one side for headlines and call-to-action buttons. It must not contain any text. Abstract and sophisticated.", b.BrandName, colorNames(b))
}

func SocialBannerPrompt(b *Bible) string {
	return fmt.Sprintf("A professional social media banner for '%s'. It should be visually appealing and incorporate the brand's color palette (%s). Leave ample empty space for text overlays. The style should be modern and clean. It must not contain any text.", b.BrandName, colorNames(b))
}

// PostTemplatePrompts returns the three square social template prompts.
func PostTemplatePrompts(b *Bible) []string {
	theme := colorNames(b)
	return []string{
		fmt.Sprintf("A square social media post template for '%s'. It should use the brand colors (%s) and have a clean, modern design with a designated area for a photo and text. It must not contain any text.", b.BrandName, theme),
		"A square social media template for a quote or a customer testimonial. It should have a visually interesting background using the brand's colors and style. It must not contain any text.",
		"A square social media template for a product announcement or feature highlight. It should be bold and eye-catching, using the brand's visual identity. It must not contain any text.",
	}
}

func colorNames(b *Bible) string {
	names := make([]string, 0, len(b.Palette))
	for _, c := range b.Palette {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
