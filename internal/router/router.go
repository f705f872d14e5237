// Package router maps a natural-language goal to the assistant CLI best
// suited to handle it, using a fixed table of weighted keyword rules.
package router

import (
	"regexp"

	"github.com/renato0307/forge/internal/domain"
)

// Decision is the routing outcome for one task description.
type Decision struct {
	CLI        domain.CLIType `json:"cli"`
	Category   string         `json:"category"`
	Rationale  string         `json:"rationale"`
	Confidence float64        `json:"confidence"`
}

type keyword struct {
	re     *regexp.Regexp
	weight float64
}

type rule struct {
	keywords  []keyword
	cli       domain.CLIType
	category  string
	rationale string
}

func kw(pattern string, weight float64) keyword {
	return keyword{re: regexp.MustCompile(`(?i)` + pattern), weight: weight}
}

// rules is evaluated in order; ties on matched weight go to the earlier rule.
var rules = []rule{
	{
		cli:       domain.CLIClaude,
		category:  "deep",
		rationale: "architecture and deep reasoning",
		keywords: []keyword{
			kw(`architect`, 1.0),
			kw(`system design|design system`, 1.0),
			kw(`refactor`, 0.9),
			kw(`\bplan\b`, 0.9),
			kw(`how does`, 0.7),
			kw(`\bwhy\b`, 0.6),
		},
	},
	{
		cli:       domain.CLIGemini,
		category:  "visual",
		rationale: "frontend and visual work",
		keywords: []keyword{
			kw(`frontend`, 1.0),
			kw(`\bui\b`, 0.9),
			kw(`\bcss\b`, 0.9),
			kw(`react`, 0.9),
			kw(`tailwind`, 0.9),
			kw(`layout`, 0.9),
			kw(`style`, 0.7),
			kw(`design`, 0.4), // shared term, low weight on purpose
		},
	},
	{
		cli:       domain.CLICodex,
		category:  "code",
		rationale: "code completion and scaffolding",
		keywords: []keyword{
			kw(`boilerplate`, 1.0),
			kw(`scaffold`, 0.9),
			kw(`snippet`, 0.8),
			kw(`complete`, 0.7),
		},
	},
	{
		cli:       domain.CLICopilot,
		category:  "git",
		rationale: "git and github workflows",
		keywords: []keyword{
			kw(`commit`, 0.9),
			kw(`\bpr\b`, 0.9),
			kw(`github`, 0.8),
			kw(`branch`, 0.7),
			kw(`merge`, 0.7),
		},
	},
	{
		cli:       domain.CLILLM,
		category:  "local",
		rationale: "sensitive content stays local",
		keywords: []keyword{
			kw(`private`, 1.0),
			kw(`offline`, 1.0),
			kw(`confidential`, 1.0),
			kw(`sensitive`, 0.9),
		},
	},
	{
		cli:       domain.CLIClaude,
		category:  "research",
		rationale: "documentation and explanation",
		keywords: []keyword{
			kw(`\bdocs?\b`, 0.8),
			kw(`explain`, 0.8),
			kw(`what is`, 0.7),
		},
	},
	{
		cli:       domain.CLIClaude,
		category:  "deep",
		rationale: "debugging needs deep context",
		keywords: []keyword{
			kw(`debug`, 0.9),
			kw(`stack trace`, 0.8),
			kw(`\berror\b`, 0.6),
		},
	},
	{
		cli:       domain.CLICodex,
		category:  "code",
		rationale: "test generation",
		keywords: []keyword{
			kw(`unit test`, 0.9),
			kw(`\btests?\b`, 0.8),
			kw(`coverage`, 0.6),
		},
	},
}

// categoryForCLI gives the default category when the caller forces a CLI.
func categoryForCLI(cli domain.CLIType) string {
	switch cli {
	case domain.CLIGemini:
		return "visual"
	case domain.CLICodex:
		return "code"
	case domain.CLICopilot:
		return "git"
	case domain.CLILLM:
		return "local"
	case domain.CLIQwen:
		return "quick"
	default:
		return "deep"
	}
}

// RouteTask picks the CLI for a task description. A non-empty preferredCLI
// short-circuits the rules. RouteTask is pure: equal inputs yield equal
// outputs.
func RouteTask(description string, preferredCLI domain.CLIType) Decision {
	if preferredCLI != "" && domain.ValidCLITypes[preferredCLI] {
		return Decision{
			CLI:        preferredCLI,
			Category:   categoryForCLI(preferredCLI),
			Rationale:  "user preference",
			Confidence: 1.0,
		}
	}

	var best *rule
	var bestMatched float64

	for i := range rules {
		r := &rules[i]
		var matched float64
		for _, k := range r.keywords {
			if k.re.MatchString(description) {
				matched += k.weight
			}
		}
		if matched > bestMatched {
			best = r
			bestMatched = matched
		}
	}

	if best == nil {
		return Decision{
			CLI:        domain.CLIClaude,
			Category:   "deep",
			Rationale:  "default",
			Confidence: 0.5,
		}
	}

	var total float64
	for _, k := range best.keywords {
		total += k.weight
	}
	confidence := bestMatched / total
	if confidence > 1.0 {
		confidence = 1.0
	}

	return Decision{
		CLI:        best.cli,
		Category:   best.category,
		Rationale:  best.rationale,
		Confidence: confidence,
	}
}
