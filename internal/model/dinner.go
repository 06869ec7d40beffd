package model

import "time"

// Dinner はユーザーが登録した夕食候補1件を表す。
// 1件のDinnerは必ず1人のUserに帰属する（排他的所有）。
// Textは保存前にサニタイズ済みであることが不変条件。
type Dinner struct {
	ID        string
	UserID    string
	Text      string
	CreatedAt time.Time
}
