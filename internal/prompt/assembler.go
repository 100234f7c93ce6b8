// Package prompt builds the instruction sent to the image model from a
// style descriptor and two fixed literals.
package prompt

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	Prefix = "Generate a new image of this pet"
	Suffix = "be sure the face should not be too covered but visible"

	// FallbackStyle replaces a generated style when the text backend fails.
	FallbackStyle = "Surreal artistic style"
)

// Assemble wraps description with Prefix and Suffix unless it already
// carries them. Assemble(Assemble(s)) == Assemble(s).
func Assemble(description string) string {
	out := description
	if !strings.HasPrefix(out, Prefix) {
		out = Prefix + " " + out
	}
	if !strings.HasSuffix(out, Suffix) {
		out = out + ", " + Suffix
	}
	return out
}

// StripAffixes removes Prefix and Suffix from a generated style so that
// Assemble can reapply them without duplication.
func StripAffixes(s string) string {
	out := strings.TrimSpace(s)
	if strings.HasPrefix(out, Prefix) {
		out = strings.TrimSpace(strings.TrimPrefix(out, Prefix))
		out = strings.TrimLeftFunc(out, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
	}
	if strings.Contains(out, Suffix) {
		out = strings.TrimSpace(strings.Replace(out, ", "+Suffix, "", 1))
		out = strings.TrimSpace(strings.Replace(out, Suffix, "", 1))
	}
	return out
}

// IsComplete reports whether s already is a full instruction: it starts with
// Prefix and mentions Suffix anywhere, trailing punctuation included.
func IsComplete(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, Prefix) && strings.Contains(s, Suffix)
}

// ResolveStyle normalizes raw model output into a style body. Output that
// starts with Prefix and contains Suffix is already complete and kept as is.
func ResolveStyle(raw string) string {
	style := strings.TrimSpace(raw)
	if style == "" {
		return FallbackStyle
	}
	if IsComplete(style) {
		return style
	}
	if style = StripAffixes(style); style == "" {
		return FallbackStyle
	}
	return style
}

var styleExamples = []string{
	"in futuristic cyberpunk style with vibrant neon lights",
	"as a superhero with costume, cape, special powers",
	"in the style of Disney animated cartoons",
	"as an astronaut in space",
	"as a pirate with hat, eye patch and pirate ship",
	"as a samurai warrior with traditional armor and katana",
	"in Andy Warhol pop art style",
	"in 8-bit pixel art style as a retro video game character",
	"in artistic watercolor style with fluid brushstrokes",
	"as a futuristic cyborg with robotic parts and LED lights",
}

const styleSystemMessage = "You are an expert in prompt engineering."

// StyleInstructions returns the system and user messages that ask a text
// model for a new style.
func StyleInstructions() (system, user string) {
	examples := make([]string, len(styleExamples))
	for i, ex := range styleExamples {
		examples[i] = fmt.Sprintf("%s %s, %s", Prefix, ex, Suffix)
	}

	var b strings.Builder
	b.WriteString("Generate a creative style to transform a pet photo.\n\n")
	b.WriteString("Here are some examples of creative styles (don't use these exactly, they are just examples, ")
	b.WriteString("be creative use films styles, art styles, photography styles, etc.):\n")
	b.WriteString(strings.Join(examples, "\n"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Generate a completely new style that starts with %q followed by a description of maximum 30 characters of the style and ends with %q:", Prefix, Suffix)
	return styleSystemMessage, b.String()
}
