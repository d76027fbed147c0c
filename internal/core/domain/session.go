package domain

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	RoleAdmin = "admin"

	// UntitledSession is shown for sessions without a title.
	UntitledSession = "새 대화"
)

type User struct {
	ID       string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

func (s Session) DisplayTitle() string {
	if strings.TrimSpace(s.Title) == "" {
		return UntitledSession
	}
	return s.Title
}

type Citation struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri,omitempty"`
}

func (c Citation) Label() string {
	switch {
	case c.Title != "":
		return c.Title
	case c.URI != "":
		return c.URI
	default:
		return "출처"
	}
}

// Message is append-only; its index in the transcript identifies it for feedback.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations"`
	CreatedAt Timestamp  `json:"created_at"`
}

type SessionDetail struct {
	Session  Session   `json:"session"`
	Messages []Message `json:"messages"`
}

type ChatReply struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	Model     string     `json:"model,omitempty"`
}
