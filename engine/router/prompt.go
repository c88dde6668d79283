package router

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const promptPreamble = `You are the routing controller of a workflow automation engine. ` +
	`Your only job is to choose exactly one destination for the request below. ` +
	`You must pick from the given candidate set; inventing an identifier is a protocol violation.`

const promptOutputDirective = `Respond with the id of the chosen candidate and nothing else: ` +
	`no explanation, no markdown, no quotes, no punctuation beyond the identifier's own characters.`

// configPaths are the candidate-config keys whose text is routing-relevant
// and therefore surfaced to the model verbatim.
var configPaths = []string{"systemPrompt", "system_prompt", "instructions"}

// BuildPrompt assembles the routing prompt from the user instruction and
// candidate set. Pure string assembly: no I/O, byte-identical output for
// identical inputs.
func BuildPrompt(instruction string, candidates []CandidateDestination) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)
	sb.WriteString("\n\n## Candidates\n")
	for i := range candidates {
		writeCandidate(&sb, &candidates[i])
	}
	sb.WriteString("\n## Request\n\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\n## Output format\n\n")
	sb.WriteString(promptOutputDirective)
	sb.WriteString("\n")
	return sb.String()
}

func writeCandidate(sb *strings.Builder, c *CandidateDestination) {
	fmt.Fprintf(sb, "\n### id: %s\n", c.ID)
	if c.Type != "" {
		fmt.Fprintf(sb, "type: %s\n", c.Type)
	}
	if c.Title != "" {
		fmt.Fprintf(sb, "title: %s\n", c.Title)
	}
	if c.Description != "" {
		fmt.Fprintf(sb, "description: %s\n", c.Description)
	}
	if c.Category != "" {
		fmt.Fprintf(sb, "category: %s\n", c.Category)
	}
	for _, path := range configPaths {
		if value := gjson.GetBytes(c.Config, path); value.Exists() && value.String() != "" {
			fmt.Fprintf(sb, "%s: %s\n", path, value.String())
		}
	}
	if len(c.CurrentState) > 0 {
		fmt.Fprintf(sb, "current state: %s\n", string(c.CurrentState))
	}
}
