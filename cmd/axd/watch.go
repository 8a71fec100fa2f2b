package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/axel-dashboard/internal/config"
	"github.com/Zuo-Peng/axel-dashboard/internal/parse"
	"github.com/Zuo-Peng/axel-dashboard/internal/tui"
)

func watchCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live channel of a running dashboard",
		Long: `Connects to a running 'axd serve' and shows activity and conversation
pushes as they happen. On a terminal this opens an interactive viewer;
otherwise every push is printed as one JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if server == "" {
				server = localServer(cfg)
			}
			base, err := url.Parse(server)
			if err != nil {
				return fmt.Errorf("invalid --server: %w", err)
			}

			wsURL := *base
			wsURL.Scheme = "ws"
			if base.Scheme == "https" {
				wsURL.Scheme = "wss"
			}
			wsURL.Path = "/ws"

			if !stdoutIsTerminal() {
				return streamJSON(wsURL.String())
			}

			seed, err := fetchActivity(base.JoinPath("/api/activity").String())
			if err != nil {
				logger.Warn().Err(err).Msg("could not seed activity")
			}
			return tui.Run(tui.Options{URL: wsURL.String(), Seed: seed})
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Dashboard base URL (default from config host/port)")

	return cmd
}

// localServer is the base URL of the dashboard described by cfg. A
// wildcard listen host is reached via localhost.
func localServer(cfg *config.Config) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + host + ":" + strconv.Itoa(cfg.Port)
}

func fetchActivity(endpoint string) ([]parse.ActivityRecord, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", endpoint, resp.Status)
	}

	var records []parse.ActivityRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	return records, nil
}

// streamJSON copies every pushed frame to stdout, one per line, until the
// connection closes.
func streamJSON(wsURL string) error {
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n", frame)
	}
}
