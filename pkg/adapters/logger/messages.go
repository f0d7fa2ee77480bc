package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// CLI level messages (info)
		"Previewing %s...":              "%s をプレビュー中...",
		"glowcast version %s":           "glowcast バージョン %s",
		"Wrote %d preview frames to %s": "%d 枚のプレビューフレームを %s に書き出しました",
		"Preview completed":             "プレビューが完了しました",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",

		// Surfaces
		"Surfaces resized to %dx%d px": "サーフェスを %dx%d px にリサイズしました",

		// Sampler warnings
		"Frame read failed, keeping last glow: %s":     "フレーム読み取りに失敗しました。直前のグローを維持します: %s",
		"Frame draw failed, keeping last glow: %s":     "フレーム描画に失敗しました。直前のグローを維持します: %s",
		"Pixel readback failed, keeping last glow: %s": "ピクセル読み戻しに失敗しました。直前のグローを維持します: %s",
		"Backdrop write failed, keeping last glow: %s": "バックドロップ書き込みに失敗しました。直前のグローを維持します: %s",

		// Lifecycle
		"Lifecycle destroyed": "ライフサイクルを破棄しました",

		// Facade warnings
		"UpdateOptions ignored: effect already destroyed": "UpdateOptions を無視しました: エフェクトは既に破棄されています",
		"Destroy ignored: effect already destroyed":       "Destroy を無視しました: エフェクトは既に破棄されています",

		// Video adapters
		"Decoded %d frames from %s":     "%d フレームをデコードしました: %s",
		"Video source closed":           "ビデオソースを閉じました",
		"Failed to open video: %s":      "ビデオを開けませんでした: %s",
		"Failed to observe element: %s": "要素の監視に失敗しました: %s",
	})
}
