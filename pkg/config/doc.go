// Package config loads the optional rulesdoctor project configuration file.
//
// The file is YAML, validated against a JSON schema reflected from [Config]:
//
//	rulesDir: .claude/rules
//	exclude: [node_modules, .git, dist]
//	concurrency: 4
//	maxListedFiles: 20
package config
