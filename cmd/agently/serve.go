package agently

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/viant/agentrt/genai/agent"
	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/llm/provider"
	"github.com/viant/agentrt/genai/modelcallctx"
	"github.com/viant/agentrt/genai/tool"
)

// ServeCmd starts the HTTP chat server, the MCP settings watcher and the
// token refresh worker, and blocks until the server exits.
type ServeCmd struct {
	Addr       string `short:"a" long:"addr" description:"listen address" default:":8080"`
	Config     string `short:"f" long:"config" description:"runtime config YAML path" default:"agently.yaml"`
	WorkingDir string `long:"working-dir" description:"working directory recorded in each turn's tool session context; built-in file/shell tools stay confined to the process's current directory" default:"."`
}

type chatRequest struct {
	Provider string   `json:"provider"`
	AuthType string   `json:"authType"`
	Session  string   `json:"session"`
	Model    string   `json:"model"`
	Messages []string `json:"messages"`
	System   string   `json:"system,omitempty"`
}

type chatResponse struct {
	FinalText string                `json:"finalText"`
	Tools     []agent.ToolExecution `json:"tools,omitempty"`
	Usage     llm.TokenUsage        `json:"usage"`
	Rounds    int                   `json:"rounds"`
}

type chatErrorResponse struct {
	Error   string          `json:"error"`
	Partial *agent.Snapshot `json:"partial,omitempty"`
}

func (s *ServeCmd) Execute(_ []string) error {
	rt, err := newRuntime(s.Config)
	if err != nil {
		return err
	}
	defer rt.registry.Shutdown()

	if err := rt.watcher.Start(); err != nil {
		return err
	}
	defer rt.watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rt.refresh.Start(ctx); err != nil {
		return err
	}
	defer rt.refresh.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat(rt))
	mux.HandleFunc("/mcp/status", s.handleMCPStatus(rt))

	srv := &http.Server{Addr: s.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Printf("agently: listening on %s", s.Addr)
	return srv.ListenAndServe()
}

func (s *ServeCmd) handleChat(rt *runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Provider == "" || req.Session == "" || len(req.Messages) == 0 {
			http.Error(w, "provider, session and messages are required", http.StatusBadRequest)
			return
		}

		authType := provider.AuthAPIKey
		if req.AuthType == string(provider.AuthOAuth) {
			authType = provider.AuthOAuth
		}

		messages := make([]llm.Message, 0, len(req.Messages)+1)
		if req.System != "" {
			messages = append(messages, llm.NewSystemMessage(req.System))
		}
		for _, m := range req.Messages {
			messages = append(messages, llm.NewUserMessage(m))
		}

		session := tool.SessionContext{WorkingDir: s.WorkingDir}
		ctx := modelcallctx.WithObserver(r.Context(), rt.recorder)
		result, err := rt.loop.RunTurn(ctx, req.Provider, authType, req.Session, req.Model, messages, &llm.Options{Model: req.Model}, session)
		if err != nil {
			s.writeChatError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{
			FinalText: result.FinalText,
			Tools:     result.Tools,
			Usage:     result.Usage,
			Rounds:    result.Rounds,
		})
	}
}

func (s *ServeCmd) writeChatError(w http.ResponseWriter, err error) {
	var turnErr *agent.TurnError
	resp := chatErrorResponse{Error: err.Error()}
	if errors.As(err, &turnErr) {
		resp.Partial = &turnErr.Snapshot
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *ServeCmd) handleMCPStatus(rt *runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rt.registry.Status())
	}
}
