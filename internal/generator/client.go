// Package generator は日次メッセージの生成とその安全検証を提供する。
// 外部の生成バックエンド（OpenAI互換のchat completions API）の呼び出し、
// プロンプト組み立て、禁止表現スキャン、代替テンプレートへの置換を含む。
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// defaultBaseURL はOpenAI APIのデフォルトのベースURL。
	defaultBaseURL = "https://api.openai.com/v1"

	// samplingTemperature と maxOutputTokens は固定値。
	// 出力の揺らぎと長さの上限は要件として固定されている。
	samplingTemperature = 0.8
	maxOutputTokens     = 800
)

// ChatClient は生成バックエンドの呼び出しインターフェースを定義する。
// テストではモック実装に差し替えられる。
type ChatClient interface {
	// Complete はシステムとユーザーのプロンプトを送信し、生成テキストを返す。
	// 通信エラー・非2xx応答・空の応答はエラーとして返す。
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client はOpenAI互換のchat completionsエンドポイントのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はOpenAIの本番エンドポイントを使用する。
func NewClient(httpClient *http.Client, apiKey, model, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// chatRequest はchat completions APIのリクエストボディ。
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse はchat completions APIのレスポンスボディ（必要部分のみ）。
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete はシステムとユーザーのプロンプトを送信し、生成テキストを返す。
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: samplingTemperature,
		MaxTokens:   maxOutputTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("生成APIの呼び出しに失敗しました",
			slog.String("model", c.model),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("生成APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("生成APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("model", c.model),
		)
		return "", fmt.Errorf("生成APIがステータス %d を返しました", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("生成APIの応答に候補が含まれていません")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("生成APIの応答が空です")
	}
	return content, nil
}
