package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"ecli/pkg/types"
)

const defaultServerURL = "http://127.0.0.1:8527"

// apiClient talks to a running `ecli server`.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e types.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) List(ctx context.Context) ([]types.TrackerInfo, error) {
	var res types.TrackersResponse
	if err := c.do(ctx, http.MethodGet, "/trackers", nil, &res); err != nil {
		return nil, err
	}
	return res.Trackers, nil
}

func (c *apiClient) Start(ctx context.Context, req types.StartTrackerRequest) (int, error) {
	var res types.StartTrackerResponse
	if err := c.do(ctx, http.MethodPost, "/trackers", req, &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (c *apiClient) Stop(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/trackers/"+strconv.Itoa(id), nil, nil)
}

// renderTrackers writes the tracker list as a table.
func renderTrackers(w io.Writer, trackers []types.TrackerInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"ID", "Name"})
	for _, tr := range trackers {
		t.AppendRow(table.Row{tr.ID, tr.Name})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d running", len(trackers))})
	t.Render()
}

func newClientCmd() *cobra.Command {
	var server string
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Control trackers on a running ecli server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("client requires a subcommand: list|start|stop")
		},
	}
	clientCmd.PersistentFlags().StringVar(&server, "server", defaultServerURL, "Base URL of the ecli server")

	listCmd := &cobra.Command{Use: "list", Short: "List running trackers", RunE: func(cmd *cobra.Command, args []string) error {
		trackers, err := newAPIClient(server).List(cmd.Context())
		if err != nil {
			return err
		}
		renderTrackers(cmd.OutOrStdout(), trackers)
		return nil
	}}

	var (
		argStr   string
		handlers string
		jsonFile string
	)
	startCmd := &cobra.Command{
		Use:     "start [url|file]",
		Short:   "Start a tracker on the server",
		Example: "  ecli client start /pkgs/opensnoop.json --args '--pid 1'\n  ecli client start --json-file ./execsnoop.json",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildStartRequest(args, argStr, handlers, jsonFile)
			if err != nil {
				return err
			}
			id, err := newAPIClient(server).Start(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "started tracker %d\n", id)
			return nil
		},
	}
	startCmd.Flags().StringVar(&argStr, "args", "", "Program arguments, shell-quoted")
	startCmd.Flags().StringVar(&handlers, "handlers", "", "Comma-separated event handlers (e.g. plain_text)")
	startCmd.Flags().StringVar(&jsonFile, "json-file", "", "Send this local package file inline instead of a URL")

	stopCmd := &cobra.Command{Use: "stop <id>", Short: "Stop a tracker", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid tracker id %q", args[0])
		}
		if err := newAPIClient(server).Stop(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stopped tracker %d\n", id)
		return nil
	}}

	clientCmd.AddCommand(listCmd, startCmd, stopCmd)
	return clientCmd
}

// buildStartRequest turns CLI input into an API request. A JSON file is sent
// inline; otherwise the locator is passed for the server to resolve.
func buildStartRequest(args []string, argStr, handlers, jsonFile string) (types.StartTrackerRequest, error) {
	var req types.StartTrackerRequest
	if jsonFile != "" {
		if len(args) > 0 {
			return req, fmt.Errorf("use either a locator or --json-file, not both")
		}
		b, err := os.ReadFile(jsonFile)
		if err != nil {
			return req, err
		}
		req.JSONData = string(b)
		return req, nil
	}
	if len(args) == 0 {
		return req, fmt.Errorf("a tracker url or file is required")
	}
	extra, err := splitArgs(argStr)
	if err != nil {
		return req, err
	}
	tc := &types.TrackerConfig{URL: args[0], Args: extra}
	for _, h := range splitCSV(handlers) {
		tc.ExportHandlers = append(tc.ExportHandlers, types.HandlerConfig{Name: h})
	}
	req.Tracker = tc
	return req, nil
}
