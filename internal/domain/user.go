package domain

import "time"

// User — зарегистрированный пользователь платформы.
type User struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Address string
	// PasswordHash хранится в формате "salt$hex(sha256(salt+password))".
	PasswordHash string
	CreatedAt    time.Time
}

// ContactSubmission — обращение из контактной формы.
type ContactSubmission struct {
	ID          string
	Name        string
	Message     string
	SubmittedAt time.Time
}
