// Command legalchat is a terminal client for the legal-chat backend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/silsgah/Ghana-Legal-AI/internal/config"
	"github.com/silsgah/Ghana-Legal-AI/internal/expert"
	"github.com/silsgah/Ghana-Legal-AI/internal/session"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	wsURL      = flag.String("ws", "", "Chat WebSocket URL (overrides config)")
	apiURL     = flag.String("api", "", "Backend HTTP base URL (overrides config)")
	expertID   = flag.String("expert", "", "Expert persona to consult (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *wsURL != "" {
		cfg.Client.WSURL = *wsURL
	}
	if *apiURL != "" {
		cfg.Client.APIURL = *apiURL
	}
	if *expertID != "" {
		cfg.Client.ExpertID = *expertID
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if _, err := expert.Get(cfg.Client.ExpertID); err != nil {
		log.Fatalf("Unknown expert %q. Available: %s", cfg.Client.ExpertID, strings.Join(expert.IDs(), ", "))
	}

	mgr := session.New(session.Config{
		WSURL:    cfg.Client.WSURL,
		APIURL:   cfg.Client.APIURL,
		ExpertID: cfg.Client.ExpertID,

		BaseDelay:   cfg.Backoff.BaseDelay,
		MaxDelay:    cfg.Backoff.MaxDelay,
		MaxAttempts: cfg.Backoff.MaxAttempts,
	}, logger)
	defer mgr.Close()

	fmt.Printf("Connecting to %s...\n", cfg.Client.WSURL)
	mgr.Connect()

	go renderLoop(mgr)

	fmt.Printf("Consulting: %s\n", cfg.Client.ExpertID)
	fmt.Println("Type a question and press Enter.")
	fmt.Println("Commands: /experts, /expert <id>, /reset, /reconnect, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch {
		case input == "/quit":
			fmt.Println("Bye!")
			return

		case input == "/experts":
			for _, ex := range expert.All() {
				marker := " "
				if ex.ID == mgr.Expert() {
					marker = "*"
				}
				fmt.Printf("%s %-16s %s\n", marker, ex.ID, ex.Name)
			}

		case strings.HasPrefix(input, "/expert "):
			id := strings.TrimSpace(strings.TrimPrefix(input, "/expert "))
			if _, err := expert.Get(id); err != nil {
				fmt.Printf("Unknown expert %q. Available: %s\n", id, strings.Join(expert.IDs(), ", "))
				continue
			}
			mgr.SetExpert(id)
			fmt.Printf("Now consulting: %s\n", id)

		case input == "/reset":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := mgr.ResetChat(ctx)
			cancel()
			if err != nil {
				fmt.Printf("Reset failed, history kept: %v\n", err)
				continue
			}
			fmt.Println("Conversation reset.")

		case input == "/reconnect":
			mgr.Reconnect()

		default:
			if mgr.Snapshot().Status != session.StatusConnected {
				fmt.Println("Not connected; try /reconnect.")
				continue
			}
			if err := mgr.SendMessage(input); err != nil {
				fmt.Printf("Send failed: %v\n", err)
			}
		}
	}
}

// renderLoop prints assistant replies as they stream in, plus connection
// status changes.
func renderLoop(mgr *session.Manager) {
	var (
		lastStatus   session.Status
		wasStreaming bool
		count        int
		tail         int
	)

	for range mgr.Updates() {
		s := mgr.Snapshot()

		if s.Status != lastStatus {
			lastStatus = s.Status
			fmt.Printf("\n[%s]\n", s.Status)
		}

		n := len(s.Messages)
		if n != count {
			if tail > 0 {
				fmt.Println()
			}
			count, tail = n, 0
		}

		if n > 0 {
			last := s.Messages[n-1]
			if last.Role == session.RoleAssistant && len(last.Content) > tail {
				fmt.Print(last.Content[tail:])
				tail = len(last.Content)
			}
		}

		if wasStreaming && !s.Streaming && tail > 0 {
			fmt.Println()
		}
		wasStreaming = s.Streaming
	}
}
