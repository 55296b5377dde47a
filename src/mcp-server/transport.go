// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	jsonrpcInternal "github.com/H0llyW00dzZ/app-store-server-go/src/internal/helper/jsonrpc"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	mcptransport "github.com/modelcontextprotocol/go-sdk/mcp"
)

// jsonRPCError represents a JSON-RPC 2.0 error object
type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// jsonRPCResponse represents a JSON-RPC 2.0 response object
type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
}

// InMemoryTransport implements ADK SDK mcp.Transport interface
// It bridges between [Official MCP SDK] transport expectations and [mark3labs/mcp-go] server
//
// Messages written by the ADK side are fed to a [server.StdioServer] through an
// in-memory pipe, and everything the server emits flows back on the read side.
// Sampling requests issued by the server are intercepted by the pipe writer and
// answered locally by the configured sampling handler instead of being forwarded
// to the ADK client.
//
// [mark3labs/mcp-go]: https://pkg.go.dev/github.com/mark3labs/mcp-go
// [Official MCP SDK]: https://pkg.go.dev/github.com/modelcontextprotocol/go-sdk
type InMemoryTransport struct {
	started         bool
	mu              sync.Mutex
	recvCh          chan []byte // channel for receiving messages (ReadMessage)
	sendCh          chan []byte // channel for sending messages (WriteMessage)
	internalRespCh  chan []byte // locally handled responses routed back to the server
	ctx             context.Context
	cancel          context.CancelFunc
	samplingHandler client.SamplingHandler
	shutdownWg      sync.WaitGroup // WaitGroup for graceful shutdown
	processWg       sync.WaitGroup // WaitGroup for the server pipe loop
}

// SetSamplingHandler sets the sampling handler for the transport
func (t *InMemoryTransport) SetSamplingHandler(handler client.SamplingHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samplingHandler = handler
}

// NewInMemoryTransport creates a new in-memory transport
func NewInMemoryTransport(ctx context.Context) *InMemoryTransport {
	ctx, cancel := context.WithCancel(ctx)
	return &InMemoryTransport{
		recvCh:         make(chan []byte, 1),
		sendCh:         make(chan []byte, 1),
		internalRespCh: make(chan []byte, 1),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// ReadMessage implements [mcp.Transport.ReadMessage]
// For ADK compatibility, this should return JSON-RPC messages
// Uses channel-based message passing for in-memory communication
// This method blocks until a message is available or the context is cancelled
func (t *InMemoryTransport) ReadMessage() ([]byte, error) {
	select {
	case msg := <-t.recvCh:
		return msg, nil
	case <-t.ctx.Done():
		return nil, io.EOF
	}
}

// WriteMessage implements [mcp.Transport.WriteMessage]
// For ADK compatibility, this should accept JSON-RPC messages
// Uses channel-based message passing for in-memory communication
func (t *InMemoryTransport) WriteMessage(data []byte) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	select {
	case t.sendCh <- data:
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}

// Close implements mcp.Transport.Close()
func (t *InMemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	// Wait for the server pipe loop to stop (no new tasks added)
	t.processWg.Wait()

	// Wait for active goroutines to finish
	t.shutdownWg.Wait()

	// Don't close channels here as they may still be used by goroutines
	// The context cancellation will cause goroutines to exit cleanly
	t.started = false
	return nil
}

// Connect implements ADK SDK mcp.Transport interface
func (t *InMemoryTransport) Connect(ctx context.Context) (mcptransport.Connection, error) {
	// For ADK compatibility, return a connection that wraps this transport
	return &ADKTransportConnection{
		transport: t,
	}, nil
}

// ConnectServer connects a mark3labs MCP server to this transport using an in-memory stdio pipe.
//
// The server runs its regular stdio loop against pipe endpoints: requests written via
// WriteMessage become server input, and server output is routed back to ReadMessage.
// This enables direct in-memory communication without process overhead, making it ideal
// for ADK integration and testing.
func (t *InMemoryTransport) ConnectServer(ctx context.Context, srv *server.MCPServer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return fmt.Errorf("transport already connected")
	}

	stdioServer := server.NewStdioServer(srv)

	t.processWg.Add(1)
	go func() {
		defer t.processWg.Done()
		reader := &pipeReader{t: t}
		writer := &pipeWriter{t: t}
		// Listen returns once the transport context is cancelled or the
		// pipe reader reports EOF.
		_ = stdioServer.Listen(t.ctx, reader, writer)
	}()

	t.started = true
	return nil
}

// sendToRecv forwards a server-emitted message to the ADK read side
func (t *InMemoryTransport) sendToRecv(msg []byte) {
	select {
	case t.recvCh <- msg:
	case <-t.ctx.Done():
	}
}

// handleSampling services a sampling request emitted by the server without leaving
// the process. The configured sampling handler produces the completion, and the
// JSON-RPC response is fed back to the server through internalRespCh so the
// blocked server-side request can complete.
func (t *InMemoryTransport) handleSampling(req map[string]any) {
	normalizedReq := jsonrpcInternal.Map(req)
	id := normalizedReq["id"]
	method := string(mcp.MethodSamplingCreateMessage)

	t.mu.Lock()
	handler := t.samplingHandler
	t.mu.Unlock()

	if handler == nil {
		t.sendInternalError(id, -32603, "no sampling handler configured")
		return
	}

	params, err := getParams(normalizedReq, method)
	if err != nil {
		t.sendInternalError(id, -32602, err.Error())
		return
	}

	var request mcp.CreateMessageRequest
	if err := jsonrpcInternal.UnmarshalFromMap(params, &request.CreateMessageParams); err != nil {
		t.sendInternalError(id, -32602, fmt.Sprintf("malformed sampling params: %v", err))
		return
	}

	result, err := handler.CreateMessage(t.ctx, request)
	if err != nil {
		t.sendInternalError(id, -32603, err.Error())
		return
	}

	t.sendInternalResponse(jsonRPCResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Result:  result,
	})
}

// sendInternalResponse marshals a response and routes it back to the server input
func (t *InMemoryTransport) sendInternalResponse(resp jsonRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	select {
	case t.internalRespCh <- data:
	case <-t.ctx.Done():
	}
}

// sendInternalError reports a failed locally handled request back to the server
func (t *InMemoryTransport) sendInternalError(id any, code int, message string) {
	t.sendInternalResponse(jsonRPCResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error: &jsonRPCError{
			Code:    code,
			Message: message,
		},
	})
}

// ADKTransportConnection implements mcptransport.Connection for ADK integration
type ADKTransportConnection struct {
	transport *InMemoryTransport
}

// Read implements mcptransport.Connection.Read
func (c *ADKTransportConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	// Delegate to underlying transport's ReadMessage
	data, err := c.transport.ReadMessage()
	if err != nil {
		return nil, err
	}

	// Decode directly without normalization for responses
	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JSON-RPC message: %w", err)
	}

	return msg, nil
}

// Write implements mcptransport.Connection.Write
func (c *ADKTransportConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	// Use MCP SDK's EncodeMessage to properly serialize the message
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}

	// Canonicalize the frame before it reaches the stdio server. The SDK
	// encoder can emit an empty id object for notifications, which the
	// server side would misread as a request id.
	if normalized, err := jsonrpcInternal.Marshal(data); err == nil {
		data = normalized
	}

	return c.transport.WriteMessage(data)
}

// Close implements mcptransport.Connection.Close
func (c *ADKTransportConnection) Close() error {
	// Delegate to underlying transport's Close
	return c.transport.Close()
}

// SessionID implements mcptransport.Connection.SessionID
func (c *ADKTransportConnection) SessionID() string {
	return "in-memory-transport"
}

// TransportBuilder helps construct MCP transports for different integration scenarios
//
// This builder provides transport creation utilities that can be used by different
// integration layers (ADK, CLI, etc.) to create appropriate transport mechanisms.
// For in-memory scenarios, it returns the built MCP server for direct integration.
type TransportBuilder struct {
	serverBuilder *ServerBuilder
}

// NewTransportBuilder creates a new transport builder
func NewTransportBuilder() *TransportBuilder {
	return &TransportBuilder{
		serverBuilder: NewServerBuilder(),
	}
}

// WithConfig sets the server configuration
func (tb *TransportBuilder) WithConfig(config *Config) *TransportBuilder {
	tb.serverBuilder.WithConfig(config)
	return tb
}

// WithVersion sets the server version
func (tb *TransportBuilder) WithVersion(version string) *TransportBuilder {
	tb.serverBuilder.WithVersion(version)
	return tb
}

// WithSampling sets the sampling handler wired into the transport
func (tb *TransportBuilder) WithSampling(handler client.SamplingHandler) *TransportBuilder {
	tb.serverBuilder.WithSampling(handler)
	return tb
}

// WithDefaultTools adds the default App Store payload tools
func (tb *TransportBuilder) WithDefaultTools() *TransportBuilder {
	tb.serverBuilder.WithDefaultTools()
	return tb
}

// BuildInMemoryTransport creates an in-memory MCP transport for ADK integration
//
// This follows the ADK pattern where [mcp.NewInMemoryTransports] creates paired
// client and server transports, server connects to server transport, and client
// transport is returned for use with [mcptoolset.New].
//
// For our implementation using [mark3labs/mcp-go], we create the server using
// ServerBuilder, then return a transport that can communicate with it.
//
// [mark3labs/mcp-go]: https://pkg.go.dev/github.com/mark3labs/mcp-go
func (tb *TransportBuilder) BuildInMemoryTransport(ctx context.Context) (any, error) {
	// Build the server using ServerBuilder
	srv, err := tb.serverBuilder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build server: %w", err)
	}

	// Create transport and connect server
	transport := NewInMemoryTransport(ctx)
	if handler := tb.serverBuilder.deps.SamplingHandler; handler != nil {
		transport.SetSamplingHandler(handler)
	}
	if err := transport.ConnectServer(ctx, srv); err != nil {
		return nil, fmt.Errorf("failed to connect server to transport: %w", err)
	}

	// Return the transport for ADK integration
	return transport, nil
}
