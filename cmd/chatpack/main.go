package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/chatpack/chatpack/internal/archive"
	"github.com/chatpack/chatpack/internal/config"
	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/enhance"
	"github.com/chatpack/chatpack/internal/markdown"
	"github.com/chatpack/chatpack/internal/organize"
	"github.com/chatpack/chatpack/internal/pipeline"
	"github.com/chatpack/chatpack/internal/split"
	"github.com/chatpack/chatpack/internal/stats"
	"github.com/chatpack/chatpack/internal/web"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "preview":
		err = runPreview(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("chatpack %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`chatpack - convert a ChatGPT export into a Claude import package

Usage:
  chatpack convert <export.zip|dir|conversations.json> [flags]
  chatpack stats <export.zip|dir|conversations.json>
  chatpack preview <export.zip|dir|conversations.json> <conversation-id>
  chatpack serve [--listen addr]
  chatpack config
  chatpack version

Convert flags:
  --output DIR         output directory (default claude_import)
  --organize MODE      flat, monthly, yearly (default monthly)
  --split-size N       split threshold in characters (default 90000)
  --no-frontmatter     omit YAML frontmatter
  --memories FILE      fold memory notes into _MEMORIES.md
  --instructions FILE  fold custom instructions into the profile
  --enhance-url URL    OpenAI-compatible endpoint for summary rewriting
  --model NAME         model for --enhance-url
  --config FILE        config file (default ~/.chatpack/config.yaml)`)
}

type convertFlags struct {
	input        string
	configPath   string
	output       string
	organizeMode string
	splitSize    string
	frontmatter  string
	memoriesPath string
	instructPath string
	enhanceURL   string
	model        string
}

func parseConvertFlags(args []string) (convertFlags, error) {
	var f convertFlags
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--output" && i+1 < len(args):
			i++
			f.output = args[i]
		case strings.HasPrefix(args[i], "--output="):
			f.output = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "--organize" && i+1 < len(args):
			i++
			f.organizeMode = args[i]
		case strings.HasPrefix(args[i], "--organize="):
			f.organizeMode = strings.TrimPrefix(args[i], "--organize=")
		case args[i] == "--split-size" && i+1 < len(args):
			i++
			f.splitSize = args[i]
		case strings.HasPrefix(args[i], "--split-size="):
			f.splitSize = strings.TrimPrefix(args[i], "--split-size=")
		case args[i] == "--no-frontmatter":
			f.frontmatter = "false"
		case args[i] == "--memories" && i+1 < len(args):
			i++
			f.memoriesPath = args[i]
		case strings.HasPrefix(args[i], "--memories="):
			f.memoriesPath = strings.TrimPrefix(args[i], "--memories=")
		case args[i] == "--instructions" && i+1 < len(args):
			i++
			f.instructPath = args[i]
		case strings.HasPrefix(args[i], "--instructions="):
			f.instructPath = strings.TrimPrefix(args[i], "--instructions=")
		case args[i] == "--enhance-url" && i+1 < len(args):
			i++
			f.enhanceURL = args[i]
		case strings.HasPrefix(args[i], "--enhance-url="):
			f.enhanceURL = strings.TrimPrefix(args[i], "--enhance-url=")
		case args[i] == "--model" && i+1 < len(args):
			i++
			f.model = args[i]
		case strings.HasPrefix(args[i], "--model="):
			f.model = strings.TrimPrefix(args[i], "--model=")
		case args[i] == "--config" && i+1 < len(args):
			i++
			f.configPath = args[i]
		case strings.HasPrefix(args[i], "--config="):
			f.configPath = strings.TrimPrefix(args[i], "--config=")
		case strings.HasPrefix(args[i], "-"):
			return f, fmt.Errorf("unknown flag: %s", args[i])
		default:
			if f.input != "" {
				return f, fmt.Errorf("unexpected argument: %s", args[i])
			}
			f.input = args[i]
		}
	}
	if f.input == "" {
		return f, fmt.Errorf("usage: chatpack convert <export.zip|dir|conversations.json> [flags]")
	}
	return f, nil
}

func runConvert(args []string) error {
	f, err := parseConvertFlags(args)
	if err != nil {
		return err
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath:     f.configPath,
		CLIOutputDir:   f.output,
		CLIOrganize:    f.organizeMode,
		CLISplitSize:   f.splitSize,
		CLIFrontmatter: f.frontmatter,
		CLIEnhanceURL:  f.enhanceURL,
		CLIModel:       f.model,
	})
	if err != nil {
		return err
	}

	mode, err := organize.ParseMode(resolved.Organize.Value)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Organize:    mode,
		Frontmatter: resolved.EffectiveFrontmatter(),
		SplitSize:   resolved.EffectiveSplitSize(split.DefaultMaxSize),
	}
	if f.memoriesPath != "" {
		b, err := os.ReadFile(f.memoriesPath)
		if err != nil {
			return fmt.Errorf("reading memories: %w", err)
		}
		opts.Memories = string(b)
	}
	if f.instructPath != "" {
		b, err := os.ReadFile(f.instructPath)
		if err != nil {
			return fmt.Errorf("reading instructions: %w", err)
		}
		opts.Instructions = string(b)
	}
	if resolved.EnhanceURL.Value != "" {
		provider, err := enhance.NewProvider(enhance.Config{
			BaseURL: resolved.EnhanceURL.Value,
			Model:   resolved.EnhanceModel.Value,
			APIKey:  resolved.EnhanceKey.Value,
		})
		if err != nil {
			return err
		}
		opts.Enhancer = provider
		fmt.Printf("Enhancement: %s\n", provider.Name())
	}

	data, err := archive.Extract(f.input)
	if err != nil {
		return err
	}

	outputDir := resolved.OutputDir.Value
	if outputDir == "" {
		outputDir = "claude_import"
	}

	var res *pipeline.Result
	for ev := range pipeline.Start(context.Background(), data, opts) {
		switch {
		case ev.Err != nil:
			return ev.Err
		case ev.Result != nil:
			res = ev.Result
		default:
			fmt.Printf("  [%3d%%] %s\n", ev.Percent, ev.Label)
		}
	}
	if res == nil {
		return fmt.Errorf("conversion produced no result")
	}

	written := 0
	for _, file := range res.Files {
		path := outputDir + "/" + file.Path
		if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, file.Content, 0o644); err != nil {
			return err
		}
		written++
	}

	fmt.Printf("\nConverted %d conversations into %d files under %s\n",
		len(res.Conversations), written, outputDir)
	fmt.Printf("Topics: %d, knowledge digests: %d\n", len(res.Clusters), len(res.Digests))
	return nil
}

func dirOf(path string) string {
	if i := strings.LastIndex(path, "/"); i > 0 {
		return path[:i]
	}
	return "."
}

func runStats(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: chatpack stats <export.zip|dir|conversations.json>")
	}
	data, err := archive.Extract(args[0])
	if err != nil {
		return err
	}
	raws, err := convo.DecodeConversations(data)
	if err != nil {
		return err
	}

	metas := convo.ParseMeta(raws)
	records := make([]stats.Record, 0, len(metas))
	for _, m := range metas {
		records = append(records, stats.FromMeta(m))
	}
	export := stats.Compute(records)

	fmt.Printf("Conversations: %d\n", export.TotalConversations)
	fmt.Printf("Messages:      %d\n", export.TotalMessages)
	if export.EarliestConversation != nil && export.LatestConversation != nil {
		fmt.Printf("Range:         %s to %s\n",
			export.EarliestConversation.UTC().Format("2006-01-02"),
			export.LatestConversation.UTC().Format("2006-01-02"))
	}

	if len(export.ModelsUsed) > 0 {
		fmt.Println("\nModels:")
		models := make([]string, 0, len(export.ModelsUsed))
		for m := range export.ModelsUsed {
			models = append(models, m)
		}
		sort.Strings(models)
		for _, m := range models {
			fmt.Printf("  %-24s %d\n", m, export.ModelsUsed[m])
		}
	}

	if months := export.Months(); len(months) > 0 {
		fmt.Println("\nBy month:")
		for _, month := range months {
			fmt.Printf("  %s  %d\n", month, export.ConversationsByMonth[month])
		}
	}
	return nil
}

func runPreview(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: chatpack preview <export.zip|dir|conversations.json> <conversation-id>")
	}
	data, err := archive.Extract(args[0])
	if err != nil {
		return err
	}
	raws, err := convo.DecodeConversations(data)
	if err != nil {
		return err
	}

	for _, raw := range raws {
		if raw.ID == args[1] {
			c := convo.ParseOne(raw)
			fmt.Print(markdown.RenderConversation(&c, markdown.DefaultOptions()))
			return nil
		}
	}
	return fmt.Errorf("conversation %q not found", args[1])
}

func runServe(args []string) error {
	var listen, configPath string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--listen" && i+1 < len(args):
			i++
			listen = args[i]
		case strings.HasPrefix(args[i], "--listen="):
			listen = strings.TrimPrefix(args[i], "--listen=")
		case args[i] == "--config" && i+1 < len(args):
			i++
			configPath = args[i]
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath:    configPath,
		CLIListenAddr: listen,
	})
	if err != nil {
		return err
	}
	addr := resolved.ListenAddr.Value
	if addr == "" {
		addr = ":8080"
	}

	srv := web.NewServer(addr, web.NewSessionStore(), nil)
	return srv.Start()
}

func runConfig(args []string) error {
	var configPath string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			i++
			configPath = args[i]
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: configPath})
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
