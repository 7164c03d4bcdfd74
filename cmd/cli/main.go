package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"edicola/internal/notify"
	"edicola/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

type issueListResponse struct {
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []models.Issue `json:"items"`
}

type missingResponse struct {
	Magazine   models.Magazine        `json:"magazine"`
	Missing    []models.MissingNumber `json:"missing"`
	RuleErrors []struct {
		RuleID int64  `json:"rule_id"`
		Reason string `json:"reason"`
	} `json:"rule_errors"`
}

func main() {
	global := flag.NewFlagSet("edicola", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "magazines":
		handleMagazines(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "issues":
		handleIssues(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "numberings":
		handleNumberings(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "missing":
		handleMissing(ctx, client, *baseURL, args[1:])
	case "import":
		handleImport(ctx, client, *baseURL, *tokenPath, args[1:])
	case "sync":
		handleSync(*baseURL, sub, args[2:])
	case "notify":
		handleNotify(sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *password == "" {
			log.Fatal("username and password are required")
		}

		payload := map[string]string{"username": *username, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("✅ logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/register", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("✅ registered and logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("✅ logged out")
	default:
		log.Fatal("usage: edicola auth <login|register|logout>")
	}
}

func handleMagazines(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("magazines list", flag.ExitOnError)
		query := fs.String("q", "", "name filter")
		withRules := fs.Bool("with-numberings", false, "only magazines with numbering rules")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/magazines")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		if *query != "" {
			qv.Set("q", *query)
		}
		if *withRules {
			qv.Set("with_numberings", "1")
		}
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("magazines show", flag.ExitOnError)
		id := fs.Int64("id", 0, "magazine id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal("magazine id is required")
		}

		var resp models.Magazine
		if err := doJSON(ctx, client, http.MethodGet, fmt.Sprintf("%s/magazines/%d", baseURL, *id), "", nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	case "add":
		fs := flag.NewFlagSet("magazines add", flag.ExitOnError)
		name := fs.String("name", "", "magazine name")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal("name is required")
		}

		token := mustToken(tokenPath)
		var resp models.Magazine
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/magazines", token, map[string]string{"name": *name}, &resp); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		printJSON(resp)
	case "remove":
		fs := flag.NewFlagSet("magazines remove", flag.ExitOnError)
		id := fs.Int64("id", 0, "magazine id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal("magazine id is required")
		}

		token := mustToken(tokenPath)
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, fmt.Sprintf("%s/magazines/%d", baseURL, *id), token, nil, &resp); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: edicola magazines <list|show|add|remove>")
	}
}

func handleIssues(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("issues list", flag.ExitOnError)
		magazineID := fs.Int64("magazine-id", 0, "magazine id filter")
		year := fs.Int("year", 0, "year filter")
		number := fs.String("number", "", "identifier substring filter")
		onlyNew := fs.Bool("new", false, "only new arrivals")
		onlyDupes := fs.Bool("duplicates", false, "only issues with more than one copy")
		limit := fs.Int("limit", 50, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/issues")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		if *magazineID > 0 {
			qv.Set("magazine_id", fmt.Sprintf("%d", *magazineID))
		}
		if *year != 0 {
			qv.Set("year", fmt.Sprintf("%d", *year))
		}
		if *number != "" {
			qv.Set("number", *number)
		}
		if *onlyNew {
			qv.Set("new", "1")
		}
		if *onlyDupes {
			qv.Set("duplicates", "1")
		}
		qv.Set("limit", fmt.Sprintf("%d", *limit))
		qv.Set("offset", fmt.Sprintf("%d", *offset))
		u.RawQuery = qv.Encode()

		var resp issueListResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "add":
		fs := flag.NewFlagSet("issues add", flag.ExitOnError)
		magazineID := fs.Int64("magazine-id", 0, "magazine id")
		year := fs.Int("year", 0, "publication year (0 for none)")
		number := fs.String("number", "", "issue identifier, e.g. \"12/13 bis\"")
		copies := fs.Int("copies", 1, "number of copies")
		isNew := fs.Bool("new", false, "mark as new arrival")
		_ = fs.Parse(args)
		if *magazineID <= 0 || *number == "" {
			log.Fatal("magazine-id and number are required")
		}

		payload := map[string]any{
			"magazine_id": *magazineID,
			"number":      *number,
			"copies":      *copies,
			"is_new":      *isNew,
		}
		if *year != 0 {
			payload["year"] = *year
		}

		token := mustToken(tokenPath)
		var resp models.Issue
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/issues", token, payload, &resp); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		printJSON(resp)
	case "remove":
		fs := flag.NewFlagSet("issues remove", flag.ExitOnError)
		id := fs.Int64("id", 0, "issue id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal("issue id is required")
		}

		token := mustToken(tokenPath)
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, fmt.Sprintf("%s/issues/%d", baseURL, *id), token, nil, &resp); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		printJSON(resp)
	case "clear-new":
		token := mustToken(tokenPath)
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/issues?new=1", token, nil, &resp); err != nil {
			log.Fatalf("clear-new failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: edicola issues <list|add|remove|clear-new>")
	}
}

func handleNumberings(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("numberings list", flag.ExitOnError)
		magazineID := fs.Int64("magazine-id", 0, "magazine id filter")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/numberings")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		if *magazineID > 0 {
			qv := u.Query()
			qv.Set("magazine_id", fmt.Sprintf("%d", *magazineID))
			u.RawQuery = qv.Encode()
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "add":
		fs := flag.NewFlagSet("numberings add", flag.ExitOnError)
		magazineID := fs.Int64("magazine-id", 0, "magazine id")
		fromYear := fs.Int("from-year", 0, "first year (0 for open)")
		toYear := fs.Int("to-year", 0, "last year (0 for open)")
		yearly := fs.Bool("yearly", false, "numbering restarts every year")
		fromNumber := fs.Int("from-number", 0, "first number (0 for open)")
		toNumber := fs.Int("to-number", 0, "last number (0 for open)")
		_ = fs.Parse(args)
		if *magazineID <= 0 {
			log.Fatal("magazine-id is required")
		}

		payload := map[string]any{
			"magazine_id": *magazineID,
			"is_yearly":   *yearly,
		}
		if *fromYear != 0 {
			payload["from_year"] = *fromYear
		}
		if *toYear != 0 {
			payload["to_year"] = *toYear
		}
		if *fromNumber != 0 {
			payload["from_number"] = *fromNumber
		}
		if *toNumber != 0 {
			payload["to_number"] = *toNumber
		}

		token := mustToken(tokenPath)
		var resp models.Numbering
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/numberings", token, payload, &resp); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		printJSON(resp)
	case "remove":
		fs := flag.NewFlagSet("numberings remove", flag.ExitOnError)
		id := fs.Int64("id", 0, "numbering rule id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal("numbering rule id is required")
		}

		token := mustToken(tokenPath)
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, fmt.Sprintf("%s/numberings/%d", baseURL, *id), token, nil, &resp); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: edicola numberings <list|add|remove>")
	}
}

func handleMissing(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("missing", flag.ExitOnError)
	magazineID := fs.Int64("magazine-id", 0, "magazine id")
	raw := fs.Bool("json", false, "print the raw JSON report")
	_ = fs.Parse(args)
	if *magazineID <= 0 {
		log.Fatal("magazine-id is required")
	}

	var resp missingResponse
	endpoint := fmt.Sprintf("%s/magazines/%d/missing", baseURL, *magazineID)
	if err := doJSON(ctx, client, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		log.Fatalf("missing failed: %v", err)
	}

	if *raw {
		printJSON(resp)
		return
	}

	fmt.Printf("%s: %d missing\n", resp.Magazine.Name, len(resp.Missing))
	for _, mn := range resp.Missing {
		if mn.Year != nil {
			fmt.Printf("  %d/%d\n", *mn.Year, mn.Number)
		} else {
			fmt.Printf("  %d\n", mn.Number)
		}
	}
	for _, re := range resp.RuleErrors {
		fmt.Printf("  ⚠ rule %d skipped: %s\n", re.RuleID, re.Reason)
	}
}

// handleImport uploads a CSV snapshot to the API, which applies the diff
// and announces the result to connected sync clients.
func handleImport(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "path to the catalog snapshot CSV")
	_ = fs.Parse(args)
	if *file == "" {
		log.Fatal("file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read snapshot: %v", err)
	}

	token := mustToken(tokenPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/import", bytes.NewReader(data))
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	if resp.StatusCode >= 300 {
		log.Fatalf("import failed: %s", strings.TrimSpace(string(body)))
	}

	var summary map[string]any
	if err := json.Unmarshal(body, &summary); err != nil {
		log.Fatalf("import failed: %v", err)
	}
	printJSON(summary)
}

func handleSync(baseURL, sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runSyncTCP(*addr, *pretty); err != nil {
				log.Printf("[sync] disconnected: %v", err)
			}
			time.Sleep(1 * time.Second)
		}
	case "subscribe":
		fs := flag.NewFlagSet("sync subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(baseURL, "/ws")
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: edicola sync <listen|subscribe>")
	}
}

func handleNotify(sub string, args []string) {
	switch sub {
	case "watch":
		fs := flag.NewFlagSet("notify watch", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7071", "UDP notify server address")
		clientID := fs.String("client-id", "", "client id (defaults to hostname)")
		_ = fs.Parse(args)
		if err := runNotifyUDP(*addr, *clientID); err != nil {
			log.Fatalf("notify watch failed: %v", err)
		}
	default:
		log.Fatal("usage: edicola notify watch")
	}
}

func runSyncTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync] connected to %s", addr)
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[sync] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

// runNotifyUDP registers with the arrival server and prints everything
// it pushes. Registration is fire-and-forget; the server keeps the
// return address.
func runNotifyUDP(addr, clientID string) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if clientID == "" {
		if host, err := os.Hostname(); err == nil {
			clientID = host
		} else {
			clientID = "edicola-cli"
		}
	}

	reg, err := json.Marshal(notify.RegisterMessage{
		Type:     notify.RegisterMessageType,
		ClientID: clientID,
	})
	if err != nil {
		return err
	}
	if _, err := conn.Write(reg); err != nil {
		return err
	}
	log.Printf("[notify] registered with %s as %s", addr, clientID)

	buf := make([]byte, 2048)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		var msg notify.ArrivalMessage
		if err := json.Unmarshal(buf[:n], &msg); err != nil {
			fmt.Println(string(buf[:n]))
			continue
		}
		if msg.Year != nil {
			fmt.Printf("📦 new arrival: magazine %d issue %s (%d)\n", msg.MagazineID, msg.Number, *msg.Year)
		} else {
			fmt.Printf("📦 new arrival: magazine %d issue %s\n", msg.MagazineID, msg.Number)
		}
	}
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.edicola-token.json"
	}
	return filepath.Join(home, ".edicola", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(tokenData{Token: token})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("edicola <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  magazines list|show|add|remove")
	fmt.Println("  issues list|add|remove|clear-new")
	fmt.Println("  numberings list|add|remove")
	fmt.Println("  missing -magazine-id N")
	fmt.Println("  import -file snapshot.csv")
	fmt.Println("  sync listen|subscribe")
	fmt.Println("  notify watch")
}
