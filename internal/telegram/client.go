// Package telegram はTelegram Bot APIのクライアントを提供する。
// メッセージ送信（sendMessage）、受信ポーリング（getUpdates）、
// 疎通確認（getMe）のみを扱う薄いクライアントで、ボットのロジックは含まない。
package telegram

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
	// defaultBaseURL はTelegram Bot APIのベースURL。トークンがパスに続く。
	defaultBaseURL = "https://api.telegram.org"
)

// Update は受信した1件の更新を表す（必要なフィールドのみ）。
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Date int64  `json:"date"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From *struct {
			ID        int64  `json:"id"`
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
		} `json:"from"`
	} `json:"message"`
}

// BotInfo はgetMeの応答からボットの識別情報を保持する。
type BotInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ClientService はTelegram Bot APIの操作のインターフェースを定義する。
type ClientService interface {
	// SendMessage は指定チャットにテキストを送信する。
	// parse_mode=HTML、リンクプレビュー無効で送信される。
	SendMessage(ctx context.Context, chatID, text string) error

	// GetUpdates はoffset以降の更新を取得する。更新がない場合は空スライス。
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)

	// GetMe はボット自身の情報を取得する。トークンの疎通確認に使う。
	GetMe(ctx context.Context) (*BotInfo, error)
}

// Client はClientServiceの実装。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	token      string
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, token string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		token:      token,
		baseURL:    defaultBaseURL,
	}
}

// apiResponse はTelegram Bot APIの共通レスポンス形式。
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// SendMessage は指定チャットにテキストを送信する。
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	var result json.RawMessage
	if err := c.call(ctx, "sendMessage", payload, &result); err != nil {
		c.logger.Error("メッセージの送信に失敗しました",
			slog.String("chat_id", chatID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// GetUpdates はoffset以降の更新を取得する。
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	payload := map[string]any{
		"timeout":         0,
		"allowed_updates": []string{"message"},
	}
	if offset > 0 {
		payload["offset"] = offset
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// GetMe はボット自身の情報を取得する。
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	info := &BotInfo{}
	if err := c.call(ctx, "getMe", map[string]any{}, info); err != nil {
		return nil, err
	}
	return info, nil
}

// call はBot APIのメソッドを呼び出し、result部分をoutにデコードする。
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.baseURL, "/"), c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Telegram APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("Telegram APIがエラーを返しました (%s): %s", method, parsed.Description)
	}

	if out != nil {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return fmt.Errorf("result部分のパースに失敗しました: %w", err)
		}
	}
	return nil
}
