package llms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tactus-ai/tactus/pkg/httpclient"
	"github.com/tactus-ai/tactus/pkg/observability"
	"github.com/tactus-ai/tactus/pkg/protocol"
)

// OpenAIConfig configures an OpenAI-compatible chat-completions endpoint.
type OpenAIConfig struct {
	Host        string  `yaml:"host"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// Timeout bounds one HTTP round trip. Engine and registry budgets sit
	// above this; keep it strictly smaller than those.
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

func (c *OpenAIConfig) setDefaults() {
	if c.Host == "" {
		c.Host = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// OpenAIProvider implements Client against any OpenAI-compatible API.
type OpenAIProvider struct {
	config     OpenAIConfig
	httpClient *httpclient.Client
	estimator  *tokenEstimator
}

var _ Client = (*OpenAIProvider)(nil)

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	cfg.setDefaults()
	return &OpenAIProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
		),
		estimator: newTokenEstimator(cfg.Model),
	}
}

func (p *OpenAIProvider) ModelName() string { return p.config.Model }

func (p *OpenAIProvider) Chat(ctx context.Context, messages []protocol.Message) (*ChatResponse, error) {
	return p.complete(ctx, messages, nil)
}

func (p *OpenAIProvider) ChatWithTools(ctx context.Context, messages []protocol.Message, tools []ToolDefinition) (*ChatResponse, error) {
	return p.complete(ctx, messages, tools)
}

func (p *OpenAIProvider) ChatStream(ctx context.Context, messages []protocol.Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	request := p.buildRequest(messages, true, tools)

	ch := make(chan StreamChunk, 16)
	go func() {
		defer close(ch)
		start := time.Now()
		tokens, err := p.makeStreamingRequest(ctx, request, ch)
		observability.GetMetrics().RecordLLMCall(ctx, p.config.Model, time.Since(start), tokens, err)
		if err != nil {
			ch <- StreamChunk{Err: err}
		}
	}()
	return ch, nil
}

// complete wraps one non-streaming round trip with metrics recording.
func (p *OpenAIProvider) complete(ctx context.Context, messages []protocol.Message, tools []ToolDefinition) (*ChatResponse, error) {
	start := time.Now()
	response, err := p.doComplete(ctx, messages, tools)
	tokens := 0
	if response != nil {
		tokens = response.Usage.TotalTokens
	}
	observability.GetMetrics().RecordLLMCall(ctx, p.config.Model, time.Since(start), tokens, err)
	return response, err
}

func (p *OpenAIProvider) doComplete(ctx context.Context, messages []protocol.Message, tools []ToolDefinition) (*ChatResponse, error) {
	request := p.buildRequest(messages, false, tools)
	response, err := p.makeRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, &LLMError{Kind: ErrKindAPI, Message: "response contained no choices"}
	}

	choice := response.Choices[0]
	toolCalls, err := parseToolCalls(choice.Message.ToolCalls)
	if err != nil {
		return nil, &LLMError{Kind: ErrKindAPI, Message: err.Error(), Err: err}
	}

	usage := response.Usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = p.estimator.estimateMessages(messages) + p.estimator.estimate(choice.Message.Content)
	}

	return &ChatResponse{
		Content:      choice.Message.Content,
		ToolCalls:    toolCalls,
		Usage:        usage,
		FinishReason: choice.FinishReason,
	}, nil
}

// Wire types for the chat-completions dialect.

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

type openAIChoice struct {
	Message      openAIResponseMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type openAIResponseMessage struct {
	Content   string           `json:"content"`
	ToolCalls []openAIToolCall `json:"tool_calls"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   Usage          `json:"usage"`
	Error   *openAIError   `json:"error"`
}

type openAIStreamDelta struct {
	Content   string           `json:"content"`
	ToolCalls []openAIToolCall `json:"tool_calls"`
}

type openAIStreamChoice struct {
	Delta        openAIStreamDelta `json:"delta"`
	FinishReason string            `json:"finish_reason"`
}

type openAIStreamResponse struct {
	Choices []openAIStreamChoice `json:"choices"`
	Usage   *Usage               `json:"usage"`
	Error   *openAIError         `json:"error"`
}

func (p *OpenAIProvider) buildRequest(messages []protocol.Message, stream bool, tools []ToolDefinition) openAIRequest {
	wireMessages := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		wireMsg := openAIMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			wireMsg.ToolCalls = append(wireMsg.ToolCalls, openAIToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: openAIFunctionCall{
					Name:      tc.Name,
					Arguments: tc.ArgumentsJSON(),
				},
			})
		}
		wireMessages = append(wireMessages, wireMsg)
	}

	request := openAIRequest{
		Model:       p.config.Model,
		Messages:    wireMessages,
		Temperature: p.config.Temperature,
		Stream:      stream,
	}
	if p.config.MaxTokens > 0 {
		maxTokens := p.config.MaxTokens
		request.MaxTokens = &maxTokens
	}
	if len(tools) > 0 {
		request.Tools = make([]openAITool, len(tools))
		for i, tool := range tools {
			request.Tools[i] = openAITool{Type: "function", Function: openAIToolFunction(tool)}
		}
		request.ToolChoice = "auto"
	}
	return request
}

func parseToolCalls(wireCalls []openAIToolCall) ([]protocol.ToolCall, error) {
	if len(wireCalls) == 0 {
		return nil, nil
	}
	result := make([]protocol.ToolCall, len(wireCalls))
	for i, tc := range wireCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to parse tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		result[i] = protocol.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args}
	}
	return result, nil
}

func (p *OpenAIProvider) newHTTPRequest(ctx context.Context, request openAIRequest) (*http.Request, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, &LLMError{Kind: ErrKindUnknown, Message: "failed to marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Host+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return nil, &LLMError{Kind: ErrKindUnknown, Message: "failed to create HTTP request", Err: err}
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(requestBody)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}
	return req, nil
}

// doRequest performs the round trip and maps failures onto the error
// taxonomy. The retrying client may return both a response and an error for
// non-2xx statuses; the body is inspected either way.
func (p *OpenAIProvider) doRequest(req *http.Request) (*http.Response, error) {
	resp, err := p.httpClient.Do(req)
	if resp != nil && resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		message := string(body)
		if apiErr := parseErrorBody(body); apiErr != nil {
			message = fmt.Sprintf("%s (type: %s)", apiErr.Message, apiErr.Type)
		}
		return nil, classifyStatus(resp.StatusCode, message)
	}
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, classifyTransport(err)
	}
	if resp == nil {
		return nil, &LLMError{Kind: ErrKindConnection, Message: "no response received"}
	}
	return resp, nil
}

func parseErrorBody(body []byte) *openAIError {
	if len(body) == 0 {
		return nil
	}
	var errorResp struct {
		Error openAIError `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
		return &errorResp.Error
	}
	return nil
}

func (p *OpenAIProvider) makeRequest(ctx context.Context, request openAIRequest) (*openAIResponse, error) {
	req, err := p.newHTTPRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	resp, err := p.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LLMError{Kind: ErrKindConnection, Message: "failed to read response", Err: err}
	}
	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &LLMError{Kind: ErrKindAPI, Message: "failed to unmarshal response", Err: err}
	}
	if response.Error != nil {
		return nil, &LLMError{Kind: ErrKindAPI, Message: response.Error.Message}
	}
	return &response, nil
}

// makeStreamingRequest consumes the SSE stream into outputCh and returns
// the total token count the provider reported, if any.
func (p *OpenAIProvider) makeStreamingRequest(ctx context.Context, request openAIRequest, outputCh chan<- StreamChunk) (int, error) {
	req, err := p.newHTTPRequest(ctx, request)
	if err != nil {
		return 0, err
	}
	resp, err := p.doRequest(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	// Tool-call fragments arrive indexed; a fragment with an ID opens a new
	// call, later fragments append to the most recent one's arguments.
	var pendingCalls []*openAIToolCall
	totalTokens := 0
	finished := false

	for !finished {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			if ctx.Err() != nil {
				return totalTokens, ctx.Err()
			}
			return totalTokens, &LLMError{Kind: ErrKindConnection, Message: "failed to read stream", Err: err}
		}

		line = bytes.TrimSpace(line)
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		line = line[6:]
		if bytes.Equal(line, []byte("[DONE]")) {
			break
		}

		var streamResp openAIStreamResponse
		if err := json.Unmarshal(line, &streamResp); err != nil {
			continue
		}
		if streamResp.Error != nil {
			return totalTokens, &LLMError{Kind: ErrKindAPI, Message: streamResp.Error.Message}
		}
		if streamResp.Usage != nil {
			totalTokens = streamResp.Usage.TotalTokens
		}
		if len(streamResp.Choices) == 0 {
			continue
		}
		choice := streamResp.Choices[0]

		if choice.Delta.Content != "" {
			select {
			case outputCh <- StreamChunk{Type: ChunkText, Text: choice.Delta.Content}:
			case <-ctx.Done():
				return totalTokens, ctx.Err()
			}
		}

		for _, fragment := range choice.Delta.ToolCalls {
			if fragment.ID != "" {
				call := fragment
				pendingCalls = append(pendingCalls, &call)
			} else if len(pendingCalls) > 0 {
				last := pendingCalls[len(pendingCalls)-1]
				last.Function.Arguments += fragment.Function.Arguments
			}
		}

		if choice.FinishReason == "stop" || choice.FinishReason == "tool_calls" {
			finished = true
		}
	}

	if len(pendingCalls) > 0 {
		assembled := make([]openAIToolCall, len(pendingCalls))
		for i, call := range pendingCalls {
			assembled[i] = *call
		}
		toolCalls, err := parseToolCalls(assembled)
		if err != nil {
			return totalTokens, &LLMError{Kind: ErrKindAPI, Message: err.Error(), Err: err}
		}
		for i := range toolCalls {
			select {
			case outputCh <- StreamChunk{Type: ChunkToolCall, ToolCall: &toolCalls[i]}:
			case <-ctx.Done():
				return totalTokens, ctx.Err()
			}
		}
	}

	select {
	case outputCh <- StreamChunk{Type: ChunkDone, Tokens: totalTokens}:
	case <-ctx.Done():
		return totalTokens, ctx.Err()
	}
	return totalTokens, nil
}
