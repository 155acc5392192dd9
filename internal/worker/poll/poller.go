// Package poll は受信メッセージのポーリングを提供する。
// getUpdatesのオフセットを進めながら受信テキストをコマンド処理に渡し、
// 返信がある場合のみ送り返す。
package poll

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/aromabot/internal/security"
	"github.com/hitoshi/aromabot/internal/telegram"
)

// MessageHandler は受信テキストを処理して返信テキストを返す。
// 空文字列は「返信しない」を意味する。
type MessageHandler interface {
	HandleMessage(ctx context.Context, userID, text, locale string) string
}

// LocaleLookup は受信者のロケールを解決する。
type LocaleLookup func(chatID string) string

// Poller は受信ポーリングの本体。オフセットはプロセス内で保持する。
type Poller struct {
	client    telegram.ClientService
	handler   MessageHandler
	sanitizer security.MessageSanitizerService
	localeFor LocaleLookup
	logger    *slog.Logger
	offset    int64
}

// NewPoller はPollerの新しいインスタンスを生成する。
func NewPoller(
	client telegram.ClientService,
	handler MessageHandler,
	sanitizer security.MessageSanitizerService,
	localeFor LocaleLookup,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		client:    client,
		handler:   handler,
		sanitizer: sanitizer,
		localeFor: localeFor,
		logger:    logger,
	}
}

// Start は固定間隔のティッカーでポーリングを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("受信ポーリングを開始しました", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("受信ポーリングを停止しました")
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce は更新を1回分取得して処理する。
// 取得に失敗してもオフセットは進めず、次回のポーリングで再取得する。
func (p *Poller) RunOnce(ctx context.Context) {
	updates, err := p.client.GetUpdates(ctx, p.offset)
	if err != nil {
		p.logger.Error("更新の取得に失敗しました", slog.String("error", err.Error()))
		return
	}

	for _, update := range updates {
		if update.UpdateID >= p.offset {
			p.offset = update.UpdateID + 1
		}
		if update.Message == nil || update.Message.Text == "" {
			continue
		}

		chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
		locale := p.localeFor(chatID)

		reply := p.handler.HandleMessage(ctx, chatID, update.Message.Text, locale)
		if reply == "" {
			continue
		}

		if err := p.client.SendMessage(ctx, chatID, p.sanitizer.Sanitize(reply)); err != nil {
			p.logger.Error("返信の送信に失敗しました",
				slog.String("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
	}
}
