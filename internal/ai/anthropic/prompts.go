package anthropic

import (
	"fmt"
	"strings"

	"github.com/hivelabs/namehive/internal/ai"
	"github.com/hivelabs/namehive/internal/domain"
)

// generatorGuidance tunes the prompt per generator type. Unknown types fall
// back to generic naming guidance.
var generatorGuidance = map[string]string{
	domain.GeneratorBusiness:  "Names should sound trustworthy and brandable, work as a domain name, and avoid generic suffixes like 'Solutions' or 'Enterprises' unless the keywords call for them.",
	domain.GeneratorPet:       "Names should be short, warm, and easy to call out loud. Lean playful unless the style says otherwise.",
	domain.GeneratorPodcast:   "Names should be memorable when spoken, hint at the show's topic, and work as a feed title.",
	domain.GeneratorFantasy:   "Names should fit a fantasy setting: evocative, pronounceable, and free of real-world brand echoes.",
	domain.GeneratorBand:      "Names should have attitude and rhythm, and not collide with well-known acts.",
	domain.GeneratorProduct:   "Names should be concrete, easy to spell, and suggest what the product does.",
	domain.GeneratorStartup:   "Names should be short, distinctive, and plausible as a .com. Avoid tired misspelling tricks unless the keywords invite them.",
	domain.GeneratorCharacter: "Names should suit a fictional character, with a tagline hinting at personality.",
}

// buildNamePrompt creates the prompt for one name generation request.
func buildNamePrompt(params ai.GenerateParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert naming consultant. Generate exactly %d distinct %s name suggestions.\n\n",
		params.Count, params.GeneratorType)

	guidance, ok := generatorGuidance[params.GeneratorType]
	if !ok {
		guidance = "Names should be distinctive, memorable, and easy to spell."
	}
	b.WriteString(guidance)
	b.WriteString("\n")

	if params.Keywords != "" {
		fmt.Fprintf(&b, "\nWhat is being named, in the user's words:\n%s\n", params.Keywords)
	}
	if params.Style != "" {
		fmt.Fprintf(&b, "\nDesired tone: %s\n", params.Style)
	}

	b.WriteString(`
For each suggestion include a one-line tagline explaining the name.

Return your suggestions as a JSON object with this exact structure:

{
  "suggestions": [
    {
      "name": "The suggested name",
      "tagline": "One line on why it fits"
    }
  ]
}

Important: Return ONLY the JSON object, no additional text or explanation.`)

	return b.String()
}
