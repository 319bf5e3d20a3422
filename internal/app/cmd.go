package app

import (
	"fmt"
	"io"
)

// Command はblogバイナリのサブコマンド。
type Command string

const (
	CommandServe       Command = "serve"
	CommandWorker      Command = "worker"
	CommandMigrate     Command = "migrate"
	CommandCreateUser  Command = "createuser"
	CommandHealthcheck Command = "healthcheck"
)

// commands はサブコマンドと説明の一覧。usageの表示順を兼ねる。
var commands = []struct {
	cmd  Command
	desc string
}{
	{CommandServe, "ブログのWebサーバーを起動する（デフォルト）"},
	{CommandWorker, "期限切れセッションの定期削除を実行する"},
	{CommandMigrate, "データベースマイグレーションを適用する"},
	{CommandCreateUser, "ログイン用アカウントを作成する（-username, -email, -password）"},
	{CommandHealthcheck, "ローカルの/healthを確認する（コンテナのHEALTHCHECK用）"},
}

// ParseCommand は先頭の引数からサブコマンドを解析する。
// 引数が空の場合はserveとする。knownは既知のサブコマンドだったかどうか。
// 未知のサブコマンドもserveとして扱い、呼び出し側で警告する。
func ParseCommand(args []string) (cmd Command, known bool) {
	if len(args) == 0 {
		return CommandServe, true
	}
	for _, c := range commands {
		if string(c.cmd) == args[0] {
			return c.cmd, true
		}
	}
	return CommandServe, false
}

// printUsage はサブコマンドの一覧をwに書き出す。
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: blog <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.cmd, c.desc)
	}
}
