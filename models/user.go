package models

// User は接続中のユーザー。ClientIDは接続ごとに振られる一時的なID
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"-"`
}
