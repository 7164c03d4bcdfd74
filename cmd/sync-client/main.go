package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	synchub "edicola/internal/sync"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP catalog event server address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	only := flag.String("only", "", "comma-separated event types to show, e.g. issue.created,import.applied")
	flag.Parse()

	filter := map[string]bool{}
	for _, t := range strings.Split(*only, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter[t] = true
		}
	}

	for {
		if err := run(*addr, *pretty, filter); err != nil {
			log.Printf("[sync-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, pretty bool, filter map[string]bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync-client] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			// not JSON? print raw
			fmt.Println(string(line))
			continue
		}

		eventType, _ := obj["type"].(string)
		if len(filter) > 0 && !filter[eventType] {
			continue
		}

		if !pretty {
			fmt.Println(string(line))
			continue
		}
		if summary := summarize(line, eventType); summary != "" {
			fmt.Println(summary)
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

// summarize renders the known catalog events as one-liners; anything
// else falls through to raw output.
func summarize(line []byte, eventType string) string {
	switch eventType {
	case synchub.IssueCreated, synchub.IssueUpdated, synchub.IssueDeleted:
		var ev synchub.CatalogEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return ""
		}
		if ev.Year != nil {
			return fmt.Sprintf("%s magazine=%d issue=%q year=%d", ev.Type, ev.MagazineID, ev.Number, *ev.Year)
		}
		return fmt.Sprintf("%s magazine=%d issue=%q", ev.Type, ev.MagazineID, ev.Number)
	case synchub.ImportApplied:
		var ev synchub.ImportEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return ""
		}
		return fmt.Sprintf("%s new_magazines=%d new_issues=%d updated=%d deleted=%d",
			ev.Type, ev.NewMagazines, ev.NewIssues, ev.UpdatedIssues, ev.DeletedIssues)
	}
	return ""
}
