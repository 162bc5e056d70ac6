// Command elora はELORAパーソナルアシスタントのAPIサーバー。
//
// Usage:
//
//	elora [serve]      HTTP APIサーバーを起動する（既定）
//	elora migrate      データベースマイグレーションを適用する
//	elora prune        保持期間を超過した音声データを削除する
//	elora healthcheck  ローカルの/healthを確認する
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/elora/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
