package mcpserver

// ContentFormatContract describes how documentation pages are authored, so
// LLM consumers can propose changes that load cleanly.
const ContentFormatContract = `# Evomics Content Format

Every page of a collection is a Markdown (` + "`.md`" + `) or MDX (` + "`.mdx`" + `) file.

## Structure

` + "```" + `markdown
---
title: Installing the tools              # REQUIRED – page heading, sidebar, search, OG image
description: Get a working terminal.     # REQUIRED – summary, search, OG image
icon: Terminal                           # OPTIONAL – sidebar icon name
full: false                              # OPTIONAL – true hides the table of contents
---

## First section

Body text in standard Markdown. Link to other pages with relative paths:
[grep basics](../basics/grep.mdx#flags).
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`---`" + ` fences must be the first
   thing in the file. A page without ` + "`title`" + ` or ` + "`description`" + ` fails to load.
2. **URLs follow file paths.** ` + "`setup/install.mdx`" + ` is served at
   ` + "`<base_url>/setup/install`" + `; ` + "`index`" + ` files map to their folder.
   Folders named ` + "`(group)`" + ` are dropped from URLs.
3. **Slugs are unique** within a collection. Two files resolving to the same
   URL fail the load.
4. **Relative links** to other documents are rewritten to page URLs; keep the
   file extension or drop it, both resolve.
5. **MDX imports and exports** are stripped from exports; JSX components are
   not executed.
6. **Table of contents** lists headings of depth 2 and 3 by default.

## Folder navigation (meta.json)

` + "```" + `json
{
  "title": "Setup",
  "defaultOpen": true,
  "pages": ["install", "---Advanced---", "...", "!drafts", "[Slides](https://example.org)"]
}
` + "```" + `

- ` + "`---Label---`" + ` inserts a separator.
- ` + "`...`" + ` inserts the remaining entries alphabetically; ` + "`!name`" + ` excludes one.
- ` + "`[Text](url)`" + ` adds an external link.
- Without meta.json, pages are listed alphabetically, then folders.
`
