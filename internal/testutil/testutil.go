// Package testutil provides shared test helpers for content trees and databases.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evomics/docs/internal/index"
	"github.com/evomics/docs/internal/source"
)

// Logger discards everything.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SampleCollections matches the layout of SampleFiles.
var SampleCollections = []source.Collection{
	{Name: "unix", Title: "UNIX for Biologists", Dir: "unix", BaseURL: "/unix"},
	{Name: "r", Title: "R for Biologists", Dir: "r", BaseURL: "/r"},
}

// SampleFiles is a small content root with a populated unix guide and a
// placeholder r guide. Paths are relative to the content root.
var SampleFiles = map[string]string{
	"unix/meta.json": `{"title":"UNIX for Biologists","pages":["index","---Getting Started---","setup","..."]}`,
	"unix/index.mdx": `---
title: UNIX for Biologists
description: Command-line genomics from beginner to expert.
icon: Terminal
---

import { Callout } from 'fumadocs-ui/components/callout'

# Welcome

Start with the [installation guide](./setup/install.mdx).

## What you will learn

Text processing with grep, sed and awk.

## Course layout

The guide is split into [setup](./setup) and [basics](basics/grep).
`,
	"unix/setup/meta.json": `{"title":"Setup","defaultOpen":true,"pages":["install","..."]}`,
	"unix/setup/install.mdx": `---
title: Installing the tools
description: Get a working terminal and the core bioinformatics utilities.
---

# Installing the tools

## Package managers

Use conda for reproducible environments. See [grep basics](../basics/grep.mdx#flags).

### Checking the install

Run ` + "`which samtools`" + `.

#### Troubleshooting details

Deep section.

## Next steps

Open the [terminal page](terminal "Terminal").
`,
	"unix/setup/terminal.md": `---
title: Your first terminal session
description: Navigating the file system from the command line.
---

## Moving around

Use cd and ls.
`,
	"unix/basics/grep.mdx": `---
title: Searching with grep
description: Find patterns in sequence files.
full: true
---

## Flags

` + "```bash\ngrep -c '>' reads.fasta\n```" + `

Back to [installation](../setup/install).
`,
	"r/index.mdx": `---
title: R for Biologists
description: Data analysis and visualization with R and tidyverse.
---

## Coming soon

The R guide is being written.
`,
}

// SamplePageCount is the number of documents in SampleFiles.
const SamplePageCount = 5

// WriteFiles writes files (slash-separated paths) below root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

// TestContent creates a temporary content root populated with SampleFiles.
func TestContent(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, SampleFiles)
	return root
}

// TestSnapshot loads SampleFiles into a snapshot.
func TestSnapshot(t *testing.T) *source.Snapshot {
	t.Helper()
	snap, err := source.LoadSnapshot(context.Background(), TestContent(t), SampleCollections, Logger)
	require.NoError(t, err, "LoadSnapshot")
	return snap
}

// TestDB creates a temporary SQLite search index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "evomics-test.db"), "english")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
