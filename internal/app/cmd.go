package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandBot はボットモード（日次送信＋受信ポーリング＋運用HTTP）で起動することを示す。
	CommandBot Command = "bot"
	// CommandSendNow は日次送信バッチを即時に1回実行して終了することを示す。
	CommandSendNow Command = "sendnow"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandSeed はオイルカタログの初期データを投入することを示す。
	CommandSeed Command = "seed"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandBotを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandBot
	}

	switch args[0] {
	case "bot":
		return CommandBot
	case "sendnow":
		return CommandSendNow
	case "migrate":
		return CommandMigrate
	case "seed":
		return CommandSeed
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandBot
	}
}
