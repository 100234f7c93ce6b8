package domain

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
)

// StyleOption is a named style the user can pick for a transformation.
type StyleOption struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// GalleryExample pairs an original pet photo with its transformed version.
type GalleryExample struct {
	Original    string `json:"original"`
	Transformed string `json:"transformed"`
	Style       string `json:"style"`
	Alt         string `json:"alt"`
}

const (
	RandomStylePrompt       = "random_ai_style"
	RandomStyleTitle        = "✨ Random AI Style ✨"
	RandomStyleTitleItalian = "✨ Stile casuale AI ✨"
)

// RandomStyle asks the orchestrator to invent a style instead of using a literal one.
var RandomStyle = StyleOption{Title: RandomStyleTitle, Prompt: RandomStylePrompt}

var styles = []StyleOption{
	RandomStyle,
	{Title: "Harry Potter Wizard", Prompt: "as a wizard from Harry Potter with robe, hat and magic wand"},
	{Title: "Eating a nano-banana", Prompt: "eating a fancy nano banana well dressed in fancy restaurant"},
	{Title: "Riding a skateboard", Prompt: "riding a skateboard in a skatepark"},
	{Title: "Riding a bicycle", Prompt: "riding a bicycle in a park"},
	{Title: "Toy Figurine", Prompt: "as a plastic toy figurine in a kid's bedroom"},
	{Title: "Cyberpunk with neon lights", Prompt: "in futuristic cyberpunk style with vibrant neon lights"},
	{Title: "Superhero", Prompt: "as a superhero with costume, cape, special powers"},
	{Title: "Disney Cartoon", Prompt: "in the style of Disney animated cartoons"},
	{Title: "Renaissance Portrait", Prompt: "in a Renaissance portrait in the style of the great masters"},
	{Title: "Astronaut in space", Prompt: "as an astronaut in space"},
	{Title: "Caribbean Pirate", Prompt: "as a pirate with hat, eye patch and pirate ship"},
	{Title: "Medieval Prince/Princess", Prompt: "as a medieval prince or princess with crown and cape"},
	{Title: "Noir Detective", Prompt: "in black and white film noir style with fedora hat and trench coat"},
	{Title: "Samurai Warrior", Prompt: "as a samurai warrior with traditional armor and katana"},
	{Title: "Vaporwave/Synthwave", Prompt: "in vaporwave/synthwave style with pink and blue neon colors"},
	{Title: "8-bit Pixel Art", Prompt: "in 8-bit pixel art style as a retro video game character"},
	{Title: "Artistic Watercolor", Prompt: "in artistic watercolor style with fluid brushstrokes"},
	{Title: "Victorian Steampunk", Prompt: "in Victorian steampunk style with gears and lens goggles"},
	{Title: "Art Nouveau", Prompt: "in Art Nouveau style with sinuous lines and floral patterns"},
	{Title: "Wes Anderson Film", Prompt: "as a character in a Wes Anderson film with pastel colors"},
	{Title: "Monet Impressionism", Prompt: "in Claude Monet's impressionist style"},
	{Title: "Ancient Egypt", Prompt: "in ancient Egyptian style as an Egyptian deity"},
	{Title: "Pop Art", Prompt: "in Andy Warhol pop art style"},
	{Title: "Futuristic Cyborg", Prompt: "as a futuristic cyborg with robotic parts and LED lights"},
}

var gallery = []GalleryExample{
	{Original: "/examples/dog1-original.jpg", Transformed: "/examples/dog1-cyberpunk.png", Style: "Cyberpunk with neon lights", Alt: "Dog transformed in cyberpunk style"},
	{Original: "/examples/cat1-original.jpeg", Transformed: "/examples/cat1-renaissance.png", Style: "Renaissance portrait", Alt: "Cat transformed in renaissance style"},
	{Original: "/examples/dog2-original.jpg", Transformed: "/examples/dog2-astronaut.png", Style: "Astronaut in space", Alt: "Dog transformed into an astronaut"},
	{Original: "/examples/cat2-original.jpg", Transformed: "/examples/cat2-disney.png", Style: "Disney Cartoon", Alt: "Cat transformed in Disney cartoon style"},
	{Original: "/examples/dog3-original.jpeg", Transformed: "/examples/dog3-pirate.png", Style: "Caribbean Pirate", Alt: "Dog transformed into a pirate"},
	{Original: "/examples/cat3-original.jpeg", Transformed: "/examples/cat3-samurai.png", Style: "Samurai Warrior", Alt: "Cat transformed into a samurai"},
}

// Styles returns the style catalog in display order. The random sentinel comes first.
func Styles() []StyleOption {
	out := make([]StyleOption, len(styles))
	copy(out, styles)
	return out
}

// Gallery returns the before/after examples shown on the landing page.
func Gallery() []GalleryExample {
	out := make([]GalleryExample, len(gallery))
	copy(out, gallery)
	return out
}

// IsRandom reports whether opt is the random style sentinel.
func IsRandom(opt StyleOption) bool {
	if opt.Prompt == RandomStylePrompt {
		return true
	}
	return opt.Title == RandomStyleTitle || opt.Title == RandomStyleTitleItalian
}

// LookupStyle finds a catalog entry by title, ignoring case and surrounding space.
func LookupStyle(title string) (StyleOption, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(title))
	if want == "" {
		return StyleOption{}, false
	}
	for _, opt := range styles {
		if fold.String(opt.Title) == want {
			return opt, true
		}
	}
	if want == fold.String(RandomStyleTitleItalian) {
		return RandomStyle, true
	}
	return StyleOption{}, false
}

// ThumbnailPath maps an example image path to its pre-generated thumbnail.
func ThumbnailPath(original string) string {
	return "/thumbnails/" + path.Base(original)
}
