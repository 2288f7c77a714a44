// Command notion-chat sends one prompt to the workspace AI and prints the
// answer as it streams.
//
//	notion-chat what changed in the roadmap this week
//
// Configuration comes from NOTION_* environment variables, a .env file in
// the working directory, or the TOML file named by NOTION_CONFIG. Set
// NOTION_THREAD_ID to continue an existing conversation.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	notion "github.com/shhac/agent-notion-sub000"
	"github.com/shhac/agent-notion-sub000/internal/config"
	"github.com/shhac/agent-notion-sub000/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using the environment")
	}

	prompt := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if prompt == "" {
		log.Fatal("usage: notion-chat <prompt>")
	}

	if err := run(prompt); err != nil {
		log.Fatal(err)
	}
}

func run(prompt string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	build := logger.New().WithLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		build = build.FromPath(cfg.LogFile)
	} else {
		build = build.FromWriter(os.Stderr).Pretty()
	}
	lg, logFile, err := build.Make()
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	conn, err := cfg.Connection(lg)
	if err != nil {
		return err
	}
	client := notion.New(conn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := client.RunInference(ctx, notion.InferenceRequest{
		Prompt:   prompt,
		ThreadID: os.Getenv("NOTION_THREAD_ID"),
		Model:    os.Getenv("NOTION_MODEL"),
	}, func(delta string) {
		fmt.Print(delta)
	})
	fmt.Println()
	if err != nil {
		lg.Error().Err(err).Str("thread", res.ThreadID).Msg("inference failed")
		return err
	}

	if res.Title != "" {
		fmt.Fprintf(os.Stderr, "title:  %s\n", res.Title)
	}
	fmt.Fprintf(os.Stderr, "thread: %s\n", res.ThreadID)
	if res.Model != "" {
		fmt.Fprintf(os.Stderr, "model:  %s\n", res.Model)
	}
	if u := res.TokenUsage; u != nil {
		fmt.Fprintf(os.Stderr, "tokens: %d in, %d out, %d cached\n", u.InputTokens, u.OutputTokens, u.CachedTokensRead)
	}
	return nil
}
