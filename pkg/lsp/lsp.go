// Package lsp serves compiler diagnostics and document symbols over the
// language server protocol.
package lsp

import (
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"brio/pkg/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "brio-lsp"

// Server publishes diagnostics for open documents and answers document
// symbol requests. Documents sync whole-text on every change.
type Server struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

func NewServer() *Server {
	s := &Server{
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s
}

// Run starts the server on stdio. Blocks until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "Brio LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.DocumentSymbolProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return SymbolsFor(text), nil
}

func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := DiagnosticsFor(text)
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// DiagnosticsFor compiles text and maps every problem in the report to a
// protocol diagnostic. Always returns a non-nil slice so publishing an
// empty result clears stale diagnostics on the client.
func DiagnosticsFor(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	_, report, err := compiler.Compile(text)
	if err != nil || report.Empty() {
		return diagnostics
	}
	for _, d := range report.Diags {
		kind := d.Kind.String()
		for _, p := range d.Problems {
			severity := protocol.DiagnosticSeverityError
			source := lspName
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    rangeFromSpan(p.Span),
				Severity: &severity,
				Source:   &source,
				Message:  kind + ": " + p.Message,
			})
		}
	}
	return diagnostics
}

// SymbolsFor parses text and lists its top level declarations. A file
// that does not even parse yields no symbols.
func SymbolsFor(text string) []protocol.DocumentSymbol {
	symbols := []protocol.DocumentSymbol{}
	tokens, err := compiler.Lex(text)
	if err != nil {
		return symbols
	}
	stmts, err := compiler.Parse(tokens, strings.Split(text, "\n"))
	if err != nil {
		return symbols
	}
	for _, st := range stmts {
		switch n := st.(type) {
		case *compiler.FunDecl:
			detail := "fun " + n.ReturnType.String()
			symbols = append(symbols, protocol.DocumentSymbol{
				Name:           n.Name,
				Detail:         &detail,
				Kind:           protocol.SymbolKindFunction,
				Range:          rangeFromSpan(n.Span),
				SelectionRange: rangeFromSpan(n.HeaderSpan),
			})
		case *compiler.VarDecl:
			detail := n.Type.String()
			symbols = append(symbols, protocol.DocumentSymbol{
				Name:           n.Name,
				Detail:         &detail,
				Kind:           protocol.SymbolKindVariable,
				Range:          rangeFromSpan(n.Span),
				SelectionRange: rangeFromSpan(n.DeclSpan),
			})
		}
	}
	return symbols
}

// rangeFromSpan converts 1-based compiler spans to 0-based protocol
// positions. Span end columns are already one past the last character,
// which is exactly what the protocol wants.
func rangeFromSpan(sp compiler.Span) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(sp.StartLine - 1), Character: uint32(sp.StartCol - 1)},
		End:   protocol.Position{Line: uint32(sp.EndLine - 1), Character: uint32(sp.EndCol - 1)},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
