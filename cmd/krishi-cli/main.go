// krishi-cli is a terminal chat against a running krishi-api. It keeps
// the conversation view locally, so a send shows the question and a
// pending marker immediately and rolls both back if the request fails.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/krishimitra/krishi-agent/internal/client"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "krishi-api base URL")
	token := flag.String("token", "", "signed auth token (required)")
	chatID := flag.String("chat", "", "existing chat id; a new chat is created when empty")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "-token is required")
		os.Exit(1)
	}

	ctx := context.Background()
	c := client.NewClient(*server, *token)

	id := *chatID
	var history []client.Turn
	if id == "" {
		created, err := c.CreateChat(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "creating chat:", err)
			os.Exit(1)
		}
		id = created.ID
		fmt.Printf("started %s (%s)\n", created.Title, id)
	} else {
		var err error
		history, err = c.History(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "loading history:", err)
			os.Exit(1)
		}
		for _, t := range history {
			printTurn(t)
		}
	}

	conv := client.NewConversation(id, history)
	fmt.Println("type your question, or /quit to leave")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}

		reply, err := c.SendTracked(ctx, conv, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "send failed:", err)
			continue
		}
		fmt.Println(reply)
	}
}

func printTurn(t client.Turn) {
	prefix := "you"
	if t.Role == "model" {
		prefix = "mitra"
	}
	fmt.Printf("%s: %s\n", prefix, t.Text())
}
