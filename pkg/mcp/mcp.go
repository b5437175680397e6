// Package mcp serves the rule check over the Model Context Protocol, so that
// coding agents can verify the rule documents they write.
package mcp

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

const (
	name = "rulesdoctor"

	// instructionsFormat takes the rules directory.
	instructionsFormat = `MCP Server 'rulesdoctor' checks the rule documents in %s/ against the files of a project.

Each rule document may declare the files it applies to in a YAML frontmatter 'paths' list of glob patterns. A rule is:
- OK when it has no 'paths' (a global rule) or when its patterns match at least one file
- WARNING when its frontmatter or 'paths' value is malformed
- DEAD when its patterns match no files, so the rule never applies

When to use these tools:
- After creating, moving or editing a rule document
- After renaming or moving source files that rules refer to

REQUIRED workflow:
1. Call 'check_rules' (optionally with a 'path' to a project directory below the server root)
2. Fix every WARNING and DEAD rule using the 'message' and 'suggestions' fields
3. Call 'check_rules' again to confirm
`
)

func newCheckRulesInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"path": {
				Type:        "string",
				Description: "The project directory to check, relative to the server root. Defaults to the server root.",
			},
			"verbose": {
				Type:        "boolean",
				Description: "Include the full human-readable report, with matched files, in the text output.",
			},
		},
	}
}
