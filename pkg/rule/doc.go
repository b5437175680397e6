// Package rule discovers rule documents and parses their frontmatter.
//
// A rule document is a Markdown file below the rules directory
// (".claude/rules" by default). It may begin with a YAML frontmatter block
// delimited by "---" lines:
//
//	---
//	paths:
//	  - "src/**/*.ts"
//	---
//	# Rule body
//
// Documents without frontmatter are global rules. Frontmatter that fails to
// parse is recorded on the [Document] rather than returned as an error, so a
// single malformed document never prevents the others from loading.
package rule
