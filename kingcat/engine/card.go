package engine

import "fmt"

// Rank はカードの強さ。比較と「どのカードを出したか」の識別に使う
type Rank int

// 既定カタログのランク。効果はランクに紐づく
const (
	RankCrystalBowl      Rank = 1  // ランク当て
	RankMouseTrapper     Rank = 2  // 山札の次の1枚を覗く
	RankBattleBunny      Rank = 3  // 対決
	RankShellShield      Rank = 4  // 保護
	RankSnakeSorcerer    Rank = 5  // 強制捨て札
	RankDoggyGraveDigger Rank = 6  // 脇札を覗く
	RankJitteryJuggler   Rank = 7  // 全員引き直し
	RankHermitHomeSwap   Rank = 8  // 手札交換
	RankRoyalRobovac     Rank = 9  // 何もしない
	RankNotAPet          Rank = 10 // 最強カード持ちと交換
	RankKingCat          Rank = 11 // 最強。出せない、当てられない
)

// Card is one physical copy. Identity is ID, comparisons use Rank.
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Rank        Rank   `json:"value"`
	Amount      int    `json:"amount"`
	Color       string `json:"color"`
	DescColor   string `json:"descColor"`
}

func cardID(rank Rank, copyIndex int) string {
	return fmt.Sprintf("%d-%d", rank, copyIndex)
}
