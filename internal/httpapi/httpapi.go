// Package httpapi exposes the expert system over HTTP: a form-and-evaluate
// page mirroring the original server's GET routes, plus a JSON evaluate
// endpoint for programmatic callers. Every request builds its own
// graph.Graph; only the compiled-query cache is shared across requests.
package httpapi

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/znichola/expert-system/internal/graph"
	"github.com/znichola/expert-system/internal/lexer"
	"github.com/znichola/expert-system/internal/parser"
	"github.com/znichola/expert-system/internal/session"
	"github.com/znichola/expert-system/internal/truthtable"
)

const indexPage = `<h1>Expert System</h1>
<p>Enter your ruleset here</p>
<form action="evaluate" method="get">
    <textarea name="rules" rows="10" cols="60" placeholder="Paste your ruleset here..."></textarea><br>
    <button type="submit">Submit</button>
</form>
`

// Server wires the router to a shared compiled-query cache and logger.
type Server struct {
	log   *zap.SugaredLogger
	cache *truthtable.Cache
}

// New builds a Server. cacheSize bounds the shared compiled-query LRU.
func New(log *zap.SugaredLogger, cacheSize int) (*Server, error) {
	cache, err := truthtable.NewCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("building truth-table cache: %w", err)
	}
	return &Server{log: log, cache: cache}, nil
}

// Router returns the mux.Router exposing this server's routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/evaluate", s.handleEvaluateForm).Methods(http.MethodGet)
	r.HandleFunc("/api/evaluate", s.handleEvaluateJSON).Methods(http.MethodPost)
	return r
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		s.log.Infow("request", "id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (s *Server) handleEvaluateForm(w http.ResponseWriter, r *http.Request) {
	rules := r.URL.Query().Get("rules")

	conclusion, explanation, _, err := s.evaluate(rules, false, true)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		fmt.Fprintf(w, "<h1>Error</h1>\n<pre>%s</pre>\n<a href=\"/\">Back</a>\n", html.EscapeString(err.Error()))
		return
	}

	fmt.Fprintf(w, "<h1>Result</h1>\n<pre>%s</pre>\n<h2>Explanation</h2>\n<pre>%s</pre>\n<a href=\"/\">Back</a>\n",
		html.EscapeString(conclusion), html.EscapeString(explanation))
}

type evaluateRequest struct {
	Rules     string `json:"rules"`
	OpenWorld bool   `json:"open_world"`
	Explain   bool   `json:"explain"`
}

type evaluateResponse struct {
	Conclusion  string `json:"conclusion"`
	Explanation string `json:"explanation,omitempty"`
	HadError    bool   `json:"had_error"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) handleEvaluateJSON(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(evaluateResponse{HadError: true, Error: err.Error()})
		return
	}

	conclusion, explanation, hadError, err := s.evaluate(req.Rules, req.OpenWorld, req.Explain)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(evaluateResponse{HadError: true, Error: err.Error()})
		return
	}

	json.NewEncoder(w).Encode(evaluateResponse{
		Conclusion:  conclusion,
		Explanation: explanation,
		HadError:    hadError,
	})
}

// evaluate runs rules through the full lexer/parser/graph/session pipeline
// against a fresh Graph built for this one request.
func (s *Server) evaluate(rules string, openWorld, explain bool) (conclusion, explanation string, hadError bool, err error) {
	tokens, err := lexer.Lex(rules)
	if err != nil {
		return "", "", false, err
	}
	parsedRules, facts, queries, err := parser.Parse(tokens)
	if err != nil {
		return "", "", false, err
	}

	g, err := graph.Build(facts, parsedRules, queries)
	if err != nil {
		return "", "", false, err
	}
	g.Explain = explain

	mode := graph.ClosedWorld
	if openWorld {
		mode = graph.OpenWorld
	}
	g.ApplyWorldAssumption(mode)

	sess := session.New(g, s.cache)
	conclusion, explanation, hadError = sess.SolveEverything(queries)
	return conclusion, explanation, hadError, nil
}
