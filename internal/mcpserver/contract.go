package mcpserver

// PostFormat describes the post file layout the index reads.
const PostFormat = `# Post Format

Posts are Markdown files directly inside the content directory. The
filename without ` + "`.md`" + ` is the post slug and id.

## Structure

` + "```" + `markdown
---
title: Human-readable title     # default "Untitled"
date: 2025-01-15                # ISO-8601; default is the build date
category: Language              # one of the configured category ids
subcategory: go                 # optional, groups posts inside a category
tags: [go, concurrency]         # YAML list or a single value
excerpt: Short summary          # optional; derived from the body when absent
author: Jane                    # default "Anonymous"
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. The ` + "`---`" + ` fences must be the first thing in the file.
2. A header that is not valid YAML is ignored and the whole file is treated as body.
3. Posts are listed newest first by ` + "`date`" + `; equal dates keep filename order.
4. Derived excerpts strip headings, emphasis, links and code, and are cut at 200 characters.
5. Subdirectories are not indexed.
`
