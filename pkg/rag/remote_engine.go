package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"
)

// RemoteEngine drives an external parsing/extraction sidecar over HTTP.
// The sidecar shares the working directory with this process, so the
// on-disk JSON collections are still readable for cleanup and the
// relation-pairs last resort.
type RemoteEngine struct {
	baseURL   string
	cfg       Config
	client    *http.Client
	docStatus *DocStatusStore
}

var _ Engine = &RemoteEngine{}

func NewRemoteEngine(baseURL string, cfg Config, models ModelFuncs) (*RemoteEngine, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("remote engine: base url is required")
	}
	return &RemoteEngine{
		baseURL: baseURL,
		cfg:     cfg,
		client: &http.Client{
			Timeout: 30 * time.Minute, // parse+extract of a large PDF is slow
		},
		docStatus: NewDocStatusStore(cfg.WorkingDir),
	}, nil
}

func (e *RemoteEngine) WorkingDir() string {
	return e.cfg.WorkingDir
}

type remoteProcessRequest struct {
	FilePath       string `json:"file_path"`
	WorkingDir     string `json:"working_dir"`
	Parser         string `json:"parser"`
	ParseMethod    string `json:"parse_method"`
	EnableImage    bool   `json:"enable_image"`
	EnableTable    bool   `json:"enable_table"`
	EnableEquation bool   `json:"enable_equation"`
	Language       string `json:"language"`
}

type remoteProcessResponse struct {
	TextCount     int    `json:"text_count"`
	ImageCount    int    `json:"image_count"`
	TableCount    int    `json:"table_count"`
	EquationCount int    `json:"equation_count"`
	Error         string `json:"error,omitempty"`
}

func (e *RemoteEngine) ProcessDocument(ctx context.Context, filePath string) (ParseStats, error) {
	req := remoteProcessRequest{
		FilePath:       filePath,
		WorkingDir:     e.cfg.WorkingDir,
		Parser:         e.cfg.Parser,
		ParseMethod:    e.cfg.ParseMethod,
		EnableImage:    e.cfg.EnableImage,
		EnableTable:    e.cfg.EnableTable,
		EnableEquation: e.cfg.EnableEquation,
		Language:       e.cfg.Language,
	}

	var resp remoteProcessResponse
	if err := e.post(ctx, "/v1/process", req, &resp); err != nil {
		return ParseStats{}, err
	}
	if resp.Error != "" {
		return ParseStats{}, fmt.Errorf("engine: %s", resp.Error)
	}
	return ParseStats{
		TextCount:     resp.TextCount,
		ImageCount:    resp.ImageCount,
		TableCount:    resp.TableCount,
		EquationCount: resp.EquationCount,
	}, nil
}

// DocStatus reads the shared working directory directly rather than
// asking the sidecar, so a silently dead sidecar cannot hide a failed
// status record.
func (e *RemoteEngine) DocStatus(ctx context.Context, filePath string) (string, error) {
	return e.docStatus.Get(filePath)
}

type remoteGraphResponse struct {
	Nodes json.RawMessage `json:"nodes"`
	Edges json.RawMessage `json:"edges"`
}

func (e *RemoteEngine) GraphData(ctx context.Context) (GraphData, error) {
	var resp remoteGraphResponse
	if err := e.get(ctx, "/v1/graph?working_dir="+url.QueryEscape(e.cfg.WorkingDir), &resp); err != nil {
		return GraphData{}, err
	}

	var nodes, edges interface{}
	if len(resp.Nodes) > 0 {
		if err := json.Unmarshal(resp.Nodes, &nodes); err != nil {
			return GraphData{}, fmt.Errorf("decode graph nodes: %w", err)
		}
	}
	if len(resp.Edges) > 0 {
		if err := json.Unmarshal(resp.Edges, &edges); err != nil {
			return GraphData{}, fmt.Errorf("decode graph edges: %w", err)
		}
	}
	return GraphData{Nodes: nodes, Edges: edges}, nil
}

// RelationPairs falls back to the on-disk collection when the sidecar
// cannot serve the auxiliary key-value API.
func (e *RemoteEngine) RelationPairs(ctx context.Context) ([]map[string]interface{}, error) {
	var resp struct {
		Records []map[string]interface{} `json:"records"`
	}
	if err := e.get(ctx, "/v1/relation-pairs?working_dir="+url.QueryEscape(e.cfg.WorkingDir), &resp); err == nil {
		return resp.Records, nil
	}

	records, err := LoadJSONCollection(filepath.Join(e.cfg.WorkingDir, relationPairsFile))
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	return out, nil
}

func (e *RemoteEngine) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, out)
}

func (e *RemoteEngine) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return e.do(req, out)
}

func (e *RemoteEngine) do(req *http.Request, out interface{}) error {
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(bodyBytes, out)
}
