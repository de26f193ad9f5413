package pipeline

import (
	"fmt"
	"path"
	"strings"

	"github.com/chatpack/chatpack/internal/markdown"
	"github.com/chatpack/chatpack/internal/organize"
	"github.com/chatpack/chatpack/internal/split"
)

// Output layout under the package root.
const (
	profileFile      = "_CLAUDE_PROFILE.md"
	memoriesFile     = "_MEMORIES.md"
	indexFile        = "_INDEX.md"
	guideFile        = "_UPLOAD_GUIDE.md"
	knowledgeBaseDir = "_KNOWLEDGE_BASE"
	conversationsDir = "_CONVERSATIONS"
)

// BuildFiles assembles the complete output file set from a pipeline
// result, with collision-free relative paths.
func BuildFiles(res *Result, opts Options) []File {
	var files []File
	deduper := organize.NewDeduper()

	if res.ProfileMarkdown != "" {
		files = append(files, File{Path: profileFile, Content: []byte(res.ProfileMarkdown)})
	}

	// Clusters can share a label, so digest paths go through the same
	// deduper as conversations.
	for _, d := range res.Digests {
		files = append(files, File{
			Path:    deduper.Claim(path.Join(knowledgeBaseDir, d.Filename)),
			Content: []byte(d.Markdown),
		})
	}

	mode := opts.Organize
	if mode == "" {
		mode = organize.ModeMonthly
	}
	mdOpts := markdown.Options{Frontmatter: opts.Frontmatter, ModelInfo: true}

	for _, c := range res.Conversations {
		if len(c.Messages) == 0 {
			continue
		}
		for _, part := range split.MaybeSplit(c, opts.SplitSize) {
			doc := markdown.RenderConversation(part, mdOpts)
			if doc == "" {
				continue
			}
			p := organize.ResolvePath(part.Title, part.CreatedAt, mode, conversationsDir)
			files = append(files, File{Path: deduper.Claim(p), Content: []byte(doc)})
		}
	}

	if mem := renderMemories(opts.Memories); mem != "" {
		files = append(files, File{Path: memoriesFile, Content: []byte(mem)})
	}

	files = append(files, File{Path: indexFile, Content: []byte(markdown.RenderIndex(res.Conversations))})
	files = append(files, File{Path: guideFile, Content: []byte(uploadGuide)})
	return files
}

// renderMemories folds free-form memory text into a bullet list, one
// bullet per non-empty line, stripping any leading bullet markers the
// user already typed.
func renderMemories(text string) string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if line == "" {
			continue
		}
		bullets = append(bullets, "- "+line)
	}
	if len(bullets) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Memories\n\n")
	b.WriteString("Facts and context carried over from previous assistant use.\n\n")
	fmt.Fprintf(&b, "%s\n", strings.Join(bullets, "\n"))
	return b.String()
}

const uploadGuide = `# How to Upload to Claude

## Option 1: Claude Project Knowledge Base (Recommended)

1. Go to [claude.ai](https://claude.ai)
2. Create a new **Project** (or open an existing one)
3. Click **"Add content"** in the project knowledge section
4. Select **"Upload files"**
5. Select the ` + "`.md`" + ` files from this export
6. Claude will now have access to your ChatGPT conversation history

**Note**: Claude Projects have a knowledge base limit. If your export is very
large, upload the most important conversations first.

## Option 2: Direct Chat Upload

1. Start a new conversation on [claude.ai](https://claude.ai)
2. Use the paperclip icon to attach specific ` + "`.md`" + ` files
3. Ask Claude questions about the content

## Tips

- Start with ` + "`_CLAUDE_PROFILE.md`" + ` and ` + "`_INDEX.md`" + ` so Claude sees who you
  are and what the corpus covers
- The ` + "`_KNOWLEDGE_BASE`" + ` digests are compact summaries of each topic;
  upload them before the raw conversations
- For very large exports, upload by topic or time period
`
